package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"closeenough/internal/events"
	"closeenough/internal/game"
	"closeenough/internal/store"
)

// errorCode maps a rejection to the short code sent to clients
func errorCode(err error) string {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "NotFound"
	case errors.Is(err, game.ErrPlayerNotFound):
		return "PlayerNotFound"
	case errors.Is(err, game.ErrRoomFull):
		return "RoomFull"
	case errors.Is(err, game.ErrDuplicateName):
		return "DuplicateName"
	case errors.Is(err, game.ErrNotHost):
		return "NotHost"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "NotEnoughPlayers"
	case errors.Is(err, game.ErrWrongPhase):
		return "WrongPhase"
	case errors.Is(err, game.ErrNotYourTurn):
		return "NotYourTurn"
	case errors.Is(err, game.ErrInvalidInput), errors.As(err, &verrs):
		return "InvalidInput"
	case errors.Is(err, game.ErrScoringUnavailable):
		return "ScoringUnavailable"
	default:
		return "Internal"
	}
}

// errorStatus maps a rejection to an HTTP status
func errorStatus(err error) int {
	switch errorCode(err) {
	case "NotFound", "PlayerNotFound":
		return http.StatusNotFound
	case "RoomFull", "DuplicateName", "WrongPhase":
		return http.StatusConflict
	case "NotHost", "NotYourTurn":
		return http.StatusForbidden
	case "NotEnoughPlayers", "InvalidInput":
		return http.StatusBadRequest
	case "ScoringUnavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown to the requester
func errorMessage(err error) string {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return "invalid " + strings.ToLower(verrs[0].Field())
	case errors.Is(err, store.ErrCodeSpaceExhausted), errorCode(err) == "Internal":
		return "internal error"
	default:
		return err.Error()
	}
}

func toErrorMsg(err error) events.ErrorMsg {
	return events.ErrorMsg{Code: errorCode(err), Message: errorMessage(err)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{
		"error": errorMessage(err),
		"code":  errorCode(err),
	})
}
