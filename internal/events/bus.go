package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Event represents a room-scoped broadcast
type Event struct {
	Type     string
	RoomCode string
	Data     any
}

// Bus fans events out to the subscribers of each room
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	buffer      int
}

// NewBus creates a new event bus with the given per-subscriber buffer
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{
		subscribers: make(map[string][]chan Event),
		buffer:      buffer,
	}
}

// Subscribe subscribes to events for a room
func (b *Bus) Subscribe(roomCode string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	b.subscribers[roomCode] = append(b.subscribers[roomCode], ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel
func (b *Bus) Unsubscribe(roomCode string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[roomCode]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[roomCode] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subscribers[roomCode]) == 0 {
		delete(b.subscribers, roomCode)
	}
}

// Publish delivers an event to every subscriber of its room without
// blocking. A subscriber whose buffer is full misses the event.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.RoomCode] {
		select {
		case ch <- event:
		default:
			log.Warn().
				Str("room", event.RoomCode).
				Str("event", event.Type).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

// SubscriberCount returns the number of live subscriptions for a room
func (b *Bus) SubscriberCount(roomCode string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers[roomCode])
}
