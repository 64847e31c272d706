package events

import (
	"closeenough/internal/game"
)

// Outbound event types
const (
	TypeRoomUpdate    = "roomUpdate"
	TypeGameStart     = "gameStart"
	TypeStartGuessing = "startGuessing"
	TypeShowResult    = "showResult"
	TypeScoringFailed = "scoringFailed"
	TypeNextTurn      = "nextTurn"
	TypeRoomClosed    = "roomClosed"
)

// RoomUpdate carries the full ordered player list
type RoomUpdate struct {
	Players []game.PlayerView `json:"players"`
	Host    string            `json:"host"`
}

// TurnStart is sent for gameStart and nextTurn
type TurnStart struct {
	CurrentPlayer string   `json:"currentPlayer"`
	Cards         []string `json:"cards"`
	Round         int      `json:"round"`
}

// GuessingStart opens the guessing window
type GuessingStart struct {
	SelectedBy       string `json:"selectedBy"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
	DeadlineUnixMs   int64  `json:"deadline"`
	Round            int    `json:"round"`
}

// Result is the successful reveal of a round
type Result struct {
	CorrectAnswer string                        `json:"correctAnswer"`
	AllGuesses    map[string][]game.ScoredGuess `json:"allGuesses"`
	RankedGuesses []game.ScoredGuess            `json:"rankedGuesses"`
	Winner        string                        `json:"winner"`
	Round         int                           `json:"round"`
}

// ScoringFailed replaces Result when the scorer could not rank the guesses
type ScoringFailed struct {
	CorrectAnswer string                        `json:"correctAnswer"`
	AllGuesses    map[string][]game.ScoredGuess `json:"allGuesses"`
	Reason        string                        `json:"reason"`
	Round         int                           `json:"round"`
}

// RoomClosed tells subscribers the room has been disposed
type RoomClosed struct {
	Reason string `json:"reason"`
}

// ErrorMsg is unicast to the connection whose request was rejected
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
