package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	datastar "github.com/starfederation/datastar-go/datastar"

	"closeenough/internal/events"
)

// sseKeepalive keeps idle browser connections from being dropped
var sseKeepalive = 30 * time.Second

// StreamRoom streams room events to a browser as datastar signal patches.
// The connection counts as the player's live connection while it is open.
func (h *Handler) StreamRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	player, ok := playerFromCookie(r, code)
	if !ok {
		http.Error(w, "Not in room", http.StatusUnauthorized)
		return
	}
	if !h.engine.HasPlayer(code, player) {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}

	// Subscribe before attaching so the attach roomUpdate is delivered
	sub := h.bus.Subscribe(code)
	defer h.bus.Unsubscribe(code, sub)

	connID := uuid.NewString()
	if err := h.engine.Attach(code, player, connID); err != nil {
		writeError(w, err)
		return
	}
	defer h.engine.Detach(code, player, connID)

	logger := log.With().Str("room", code).Str("player", player).Str("conn", connID).Logger()
	logger.Info().Msg("sse stream opened")
	defer logger.Info().Msg("sse stream closed")

	sse := datastar.NewSSE(w, r)

	info, err := h.engine.RoomInfo(code)
	if err != nil {
		return
	}
	if err := sse.MarshalAndPatchSignals(map[string]any{
		"player":   player,
		"roomInfo": info,
		"error":    "",
	}); err != nil {
		logger.Warn().Err(err).Msg("failed to send initial room state")
		return
	}

	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if err := sse.Send("keepalive", []string{fmt.Sprintf(`{"time":"%s"}`, time.Now().Format(time.RFC3339))}); err != nil {
				logger.Debug().Err(err).Msg("keepalive failed")
				return
			}
		case event, ok := <-sub:
			if !ok {
				return
			}
			if err := sse.MarshalAndPatchSignals(eventSignals(event)); err != nil {
				logger.Debug().Err(err).Str("event", event.Type).Msg("failed to forward event")
				return
			}
			if event.Type == events.TypeRoomClosed {
				return
			}
		}
	}
}

// eventSignals turns a room event into a signal patch keyed by event type
func eventSignals(event events.Event) map[string]any {
	return map[string]any{
		"event":    event.Type,
		event.Type: event.Data,
	}
}
