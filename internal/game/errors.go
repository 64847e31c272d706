package game

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrPlayerNotFound     = errors.New("player not found in room")
	ErrRoomFull           = errors.New("room is full")
	ErrDuplicateName      = errors.New("a player with that name already exists in the room")
	ErrNotHost            = errors.New("only the host can start the game")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrWrongPhase         = errors.New("action not allowed in the current phase")
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrInvalidInput       = errors.New("invalid input")
	ErrScoringUnavailable = errors.New("similarity scoring unavailable")
)
