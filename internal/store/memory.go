package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"closeenough/internal/game"
)

// maxCodeAttempts bounds how many fresh codes CreateRoom tries before
// reporting the code space as exhausted
const maxCodeAttempts = 32

// ErrCodeSpaceExhausted is returned when no unused room code could be found
var ErrCodeSpaceExhausted = errors.New("could not allocate a unique room code")

// MemoryStore holds all rooms in memory, keyed by room code. The store
// lock only guards the map; per-room state is guarded by each room's own
// lock so rooms never block each other.
type MemoryStore struct {
	mu         sync.RWMutex
	rooms      map[string]*game.Room
	codeLength int
}

// NewMemoryStore creates a new in-memory store issuing numeric codes of
// the given length
func NewMemoryStore(codeLength int) *MemoryStore {
	if codeLength < 1 {
		codeLength = 6
	}
	return &MemoryStore{
		rooms:      make(map[string]*game.Room),
		codeLength: codeLength,
	}
}

// CreateRoom creates a waiting room with host as its only player
func (s *MemoryStore) CreateRoom(host string) (*game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxCodeAttempts; i++ {
		code, err := generateRoomCode(s.codeLength)
		if err != nil {
			return nil, err
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}

		room := game.NewRoom(code, host)
		s.rooms[code] = room
		return room, nil
	}

	return nil, ErrCodeSpaceExhausted
}

// GetRoom retrieves a room by code
func (s *MemoryStore) GetRoom(code string) (*game.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return nil, fmt.Errorf("%w: %s", game.ErrRoomNotFound, code)
	}

	return room, nil
}

// RemoveRoom unregisters a room, then closes it under its own lock so any
// pending timer is cancelled before RemoveRoom returns. The caller must
// not hold the room lock.
func (s *MemoryStore) RemoveRoom(code string) (*game.Room, bool) {
	s.mu.Lock()
	room, exists := s.rooms[code]
	delete(s.rooms, code)
	s.mu.Unlock()

	if !exists {
		return nil, false
	}

	room.Lock()
	room.Close()
	room.Unlock()
	return room, true
}

// Forget unregisters a room that its caller has already closed. It is a
// no-op if code now maps to a different room.
func (s *MemoryStore) Forget(code string, room *game.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rooms[code] == room {
		delete(s.rooms, code)
	}
}

// Rooms returns a snapshot of all live rooms
func (s *MemoryStore) Rooms() []*game.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*game.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Count returns the number of live rooms
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rooms)
}

// generateRoomCode generates a zero-padded numeric code
func generateRoomCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate room code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
