package game

import (
	"time"
)

// Player represents a player in a room
type Player struct {
	Name     string
	ConnID   string // Live transport connection, empty between reconnects
	JoinedAt time.Time
}

// NewPlayer creates a new player
func NewPlayer(name string) *Player {
	return &Player{
		Name:     name,
		JoinedAt: time.Now(),
	}
}

// Connected reports whether a transport connection is bound to the player
func (p *Player) Connected() bool {
	return p.ConnID != ""
}

// PlayerView is the wire representation of a player
type PlayerView struct {
	Name      string `json:"name"`
	Host      bool   `json:"host"`
	Connected bool   `json:"connected"`
}
