package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"closeenough/internal/game"
)

var validate = validator.New()

// createRequest is the body of POST /create
type createRequest struct {
	Name string `json:"name" validate:"required,max=32"`
}

// joinRequest is the body of POST /join and the websocket joinRoom event
type joinRequest struct {
	Pin  string `json:"pin" validate:"required,number,max=12"`
	Name string `json:"name" validate:"required,max=32"`
}

// pickRequest is the websocket pickCard event
type pickRequest struct {
	Pin  string `json:"pin" validate:"required,number,max=12"`
	Card string `json:"card" validate:"required,max=64"`
}

// guessRequest is the websocket submitGuess event. PlayerName is accepted
// for older clients but the bound connection identity always wins.
type guessRequest struct {
	Pin        string `json:"pin" validate:"required,number,max=12"`
	PlayerName string `json:"playerName" validate:"max=32"`
	Guess      string `json:"guess" validate:"required,max=100"`
}

// pinRequest carries only a room code
type pinRequest struct {
	Pin string `json:"pin" validate:"required,number,max=12"`
}

// actionSignals are the datastar signals read by the room action endpoints
type actionSignals struct {
	Card  string `json:"card" validate:"max=64"`
	Guess string `json:"guess" validate:"max=100"`
}

// decodeJSON reads a JSON body into v, trims its string fields and
// validates it
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", game.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", game.ErrInvalidInput, err)
	}
	return check(v)
}

// decodeData unmarshals a websocket payload into v and validates it
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", game.ErrInvalidInput)
	}
	// A bare string is shorthand for {"pin": "..."}
	if data[0] == '"' {
		var pin string
		if err := json.Unmarshal(data, &pin); err != nil {
			return fmt.Errorf("%w: %v", game.ErrInvalidInput, err)
		}
		data, _ = json.Marshal(pinRequest{Pin: pin})
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", game.ErrInvalidInput, err)
	}
	return check(v)
}

func check(v any) error {
	trimStrings(v)
	return validate.Struct(v)
}

func trimStrings(v any) {
	switch req := v.(type) {
	case *createRequest:
		req.Name = strings.TrimSpace(req.Name)
	case *joinRequest:
		req.Pin = strings.TrimSpace(req.Pin)
		req.Name = strings.TrimSpace(req.Name)
	case *pickRequest:
		req.Pin = strings.TrimSpace(req.Pin)
	case *guessRequest:
		req.Pin = strings.TrimSpace(req.Pin)
		req.Guess = strings.TrimSpace(req.Guess)
	case *pinRequest:
		req.Pin = strings.TrimSpace(req.Pin)
	case *actionSignals:
		req.Guess = strings.TrimSpace(req.Guess)
	}
}
