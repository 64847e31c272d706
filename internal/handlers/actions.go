package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	datastar "github.com/starfederation/datastar-go/datastar"

	"closeenough/internal/game"
)

// roomAction resolves the room code and cookie player for a datastar
// action, runs fn, and answers with a signal patch carrying the outcome.
// Rejections are only ever sent back to the requester.
func (h *Handler) roomAction(w http.ResponseWriter, r *http.Request, action string, fn func(code, player string, signals actionSignals) error, onSuccess map[string]any) {
	code := chi.URLParam(r, "code")

	var signals actionSignals
	err := func() error {
		player, ok := playerFromCookie(r, code)
		if !ok {
			return fmt.Errorf("%w: not in room %s", game.ErrPlayerNotFound, code)
		}
		if err := datastar.ReadSignals(r, &signals); err != nil {
			return fmt.Errorf("%w: %v", game.ErrInvalidInput, err)
		}
		if err := check(&signals); err != nil {
			return err
		}
		return fn(code, player, signals)
	}()

	sse := datastar.NewSSE(w, r)
	if err != nil {
		log.Debug().Err(err).Str("room", code).Str("action", action).Msg("action rejected")
		msg := toErrorMsg(err)
		if patchErr := sse.MarshalAndPatchSignals(map[string]any{
			"error":     msg.Message,
			"errorCode": msg.Code,
		}); patchErr != nil {
			log.Warn().Err(patchErr).Str("room", code).Msg("failed to send action error")
		}
		return
	}

	patch := map[string]any{"error": "", "errorCode": ""}
	for k, v := range onSuccess {
		patch[k] = v
	}
	if err := sse.MarshalAndPatchSignals(patch); err != nil {
		log.Warn().Err(err).Str("room", code).Msg("failed to send action result")
	}
}

// StartGame handles POST /room/{code}/start
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	h.roomAction(w, r, "start", func(code, player string, _ actionSignals) error {
		return h.engine.StartGame(code, player)
	}, nil)
}

// PickCard handles POST /room/{code}/pick
func (h *Handler) PickCard(w http.ResponseWriter, r *http.Request) {
	h.roomAction(w, r, "pick", func(code, player string, signals actionSignals) error {
		if signals.Card == "" {
			return fmt.Errorf("%w: card is required", game.ErrInvalidInput)
		}
		return h.engine.PickCard(code, player, signals.Card)
	}, map[string]any{"card": ""})
}

// SubmitGuess handles POST /room/{code}/guess
func (h *Handler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	h.roomAction(w, r, "guess", func(code, player string, signals actionSignals) error {
		return h.engine.SubmitGuess(code, player, signals.Guess)
	}, map[string]any{"guess": ""})
}

// NextRound handles POST /room/{code}/next
func (h *Handler) NextRound(w http.ResponseWriter, r *http.Request) {
	h.roomAction(w, r, "next", func(code, player string, _ actionSignals) error {
		return h.engine.NextRound(code, player)
	}, nil)
}

// LeaveRoom handles POST /room/{code}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	player, _ := playerFromCookie(r, code)

	clearPlayerCookie(w, code)
	h.roomAction(w, r, "leave", func(code, player string, _ actionSignals) error {
		return h.engine.Leave(code, player)
	}, map[string]any{"left": true})

	log.Info().Str("room", code).Str("player", player).Msg("player left via action")
}
