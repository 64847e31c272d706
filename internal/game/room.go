package game

import (
	"sync"
	"time"
)

// Phase represents the stage of the round loop a room is in
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhasePicking   Phase = "picking"
	PhaseGuessing  Phase = "guessing"
	PhaseRevealing Phase = "revealing"
)

// Guess is a single submitted guess
type Guess struct {
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Room represents a game room.
//
// Room methods do not lock; callers hold the room lock (Lock/Unlock) for
// the whole of an operation so validation, mutation and the resulting
// broadcast are applied atomically.
type Room struct {
	Code      string
	Host      string
	Players   []*Player
	TurnIndex int
	Phase     Phase

	// Round state
	Round   int
	Cards   []string
	Secret  string
	Guesses map[string][]Guess
	Result  *Reveal
	Scoring bool

	CreatedAt    time.Time
	LastActivity time.Time

	timer    *PhaseTimer
	timerSeq uint64
	closed   bool

	mu sync.Mutex
}

// NewRoom creates a room in the waiting phase with the host as its only player
func NewRoom(code, host string) *Room {
	now := time.Now()
	return &Room{
		Code:         code,
		Host:         host,
		Players:      []*Player{NewPlayer(host)},
		Phase:        PhaseWaiting,
		Guesses:      make(map[string][]Guess),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Lock acquires the room lock
func (r *Room) Lock() {
	r.mu.Lock()
}

// Unlock releases the room lock
func (r *Room) Unlock() {
	r.mu.Unlock()
}

// Closed reports whether the room has been disposed
func (r *Room) Closed() bool {
	return r.closed
}

// Close cancels the active timer and marks the room as disposed
func (r *Room) Close() {
	r.StopTimer()
	r.closed = true
}

// PlayerIndex returns the position of the named player, or -1
func (r *Room) PlayerIndex(name string) int {
	for i, p := range r.Players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// GetPlayer retrieves a player by name
func (r *Room) GetPlayer(name string) *Player {
	if i := r.PlayerIndex(name); i >= 0 {
		return r.Players[i]
	}
	return nil
}

// AddPlayer appends a player at the tail of the turn order
func (r *Room) AddPlayer(name string, maxPlayers int) (*Player, error) {
	if r.PlayerIndex(name) >= 0 {
		return nil, ErrDuplicateName
	}
	if maxPlayers > 0 && len(r.Players) >= maxPlayers {
		return nil, ErrRoomFull
	}

	player := NewPlayer(name)
	r.Players = append(r.Players, player)
	return player, nil
}

// RemovePlayer removes a player and keeps the turn cursor on the same
// logical position. It reports whether the removed player was holding the
// turn during picking or guessing, in which case the round must restart.
func (r *Room) RemovePlayer(name string) (bool, error) {
	idx := r.PlayerIndex(name)
	if idx < 0 {
		return false, ErrPlayerNotFound
	}

	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	delete(r.Guesses, name)

	if len(r.Players) == 0 {
		r.TurnIndex = 0
		return false, nil
	}

	if r.Host == name {
		r.Host = r.Players[0].Name
	}

	turnLost := false
	switch {
	case idx < r.TurnIndex:
		r.TurnIndex--
	case idx == r.TurnIndex:
		switch r.Phase {
		case PhasePicking, PhaseGuessing:
			turnLost = true
		case PhaseRevealing:
			// NextRound advances from here onto the player that followed
			r.TurnIndex = (r.TurnIndex - 1 + len(r.Players)) % len(r.Players)
		}
	}
	r.TurnIndex %= len(r.Players)

	return turnLost, nil
}

// Attach binds a live connection to an existing player
func (r *Room) Attach(name, connID string) error {
	player := r.GetPlayer(name)
	if player == nil {
		return ErrPlayerNotFound
	}
	player.ConnID = connID
	return nil
}

// Detach clears the connection binding if it still belongs to connID
func (r *Room) Detach(name, connID string) bool {
	player := r.GetPlayer(name)
	if player == nil || player.ConnID != connID {
		return false
	}
	player.ConnID = ""
	return true
}

// TurnHolder returns the player whose turn it is to pick
func (r *Room) TurnHolder() *Player {
	if len(r.Players) == 0 {
		return nil
	}
	return r.Players[r.TurnIndex]
}

// IsTurnHolder reports whether name holds the current turn
func (r *Room) IsTurnHolder(name string) bool {
	holder := r.TurnHolder()
	return holder != nil && holder.Name == name
}

// PlayerViews returns the ordered player list for broadcasting
func (r *Room) PlayerViews() []PlayerView {
	views := make([]PlayerView, 0, len(r.Players))
	for _, p := range r.Players {
		views = append(views, PlayerView{
			Name:      p.Name,
			Host:      p.Name == r.Host,
			Connected: p.Connected(),
		})
	}
	return views
}

// RoomInfo is a read-only snapshot of a room
type RoomInfo struct {
	Code          string       `json:"code"`
	Host          string       `json:"host"`
	Phase         Phase        `json:"phase"`
	Players       []PlayerView `json:"players"`
	TurnIndex     int          `json:"currentTurn"`
	CurrentPlayer string       `json:"currentPlayer,omitempty"`
	Round         int          `json:"round"`
}

// Info returns a snapshot of the room
func (r *Room) Info() RoomInfo {
	info := RoomInfo{
		Code:      r.Code,
		Host:      r.Host,
		Phase:     r.Phase,
		Players:   r.PlayerViews(),
		TurnIndex: r.TurnIndex,
		Round:     r.Round,
	}
	if holder := r.TurnHolder(); holder != nil {
		info.CurrentPlayer = holder.Name
	}
	return info
}
