package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"closeenough/internal/game"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore(6)

	if store == nil {
		t.Fatal("NewMemoryStore returned nil")
	}

	if store.rooms == nil {
		t.Fatal("rooms map not initialized")
	}

	if store.Count() != 0 {
		t.Errorf("expected empty store, got %d rooms", store.Count())
	}
}

func TestCreateRoom(t *testing.T) {
	store := NewMemoryStore(6)

	t.Run("creates room with numeric code", func(t *testing.T) {
		room, err := store.CreateRoom("Host")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(room.Code) != 6 {
			t.Errorf("expected room code length 6, got %d", len(room.Code))
		}

		for _, char := range room.Code {
			if char < '0' || char > '9' {
				t.Errorf("room code contains invalid character: %c", char)
			}
		}
	})

	t.Run("creates room in waiting phase with host", func(t *testing.T) {
		room, err := store.CreateRoom("Host")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if room.Phase != game.PhaseWaiting {
			t.Errorf("expected phase waiting, got %s", room.Phase)
		}
		if room.Host != "Host" {
			t.Errorf("expected host Host, got %s", room.Host)
		}
		if len(room.Players) != 1 || room.Players[0].Name != "Host" {
			t.Errorf("expected host as sole player, got %v", room.Players)
		}
	})

	t.Run("creates unique codes", func(t *testing.T) {
		codes := make(map[string]bool)
		for i := 0; i < 100; i++ {
			room, err := store.CreateRoom(fmt.Sprintf("H%d", i))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if codes[room.Code] {
				t.Errorf("duplicate room code generated: %s", room.Code)
			}
			codes[room.Code] = true
		}
	})
}

func TestCreateRoomCodeSpaceExhausted(t *testing.T) {
	store := NewMemoryStore(1)

	for store.Count() < 10 {
		store.CreateRoom("Host")
	}

	_, err := store.CreateRoom("Host")
	if !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Errorf("expected ErrCodeSpaceExhausted, got %v", err)
	}
	if store.Count() != 10 {
		t.Errorf("expected 10 rooms, got %d", store.Count())
	}
}

func TestGetRoom(t *testing.T) {
	store := NewMemoryStore(6)

	t.Run("retrieves existing room", func(t *testing.T) {
		created, _ := store.CreateRoom("Host")

		retrieved, err := store.GetRoom(created.Code)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if retrieved != created {
			t.Error("retrieved room is not the same instance as created room")
		}
	})

	t.Run("returns not found for missing room", func(t *testing.T) {
		_, err := store.GetRoom("000000x")
		if !errors.Is(err, game.ErrRoomNotFound) {
			t.Errorf("expected ErrRoomNotFound, got %v", err)
		}
	})
}

func TestRemoveRoom(t *testing.T) {
	store := NewMemoryStore(6)

	t.Run("removes and closes room", func(t *testing.T) {
		room, _ := store.CreateRoom("Host")

		removed, ok := store.RemoveRoom(room.Code)
		if !ok || removed != room {
			t.Fatal("expected room to be removed")
		}
		if !room.Closed() {
			t.Error("expected removed room to be closed")
		}
		if _, err := store.GetRoom(room.Code); !errors.Is(err, game.ErrRoomNotFound) {
			t.Errorf("expected ErrRoomNotFound after removal, got %v", err)
		}
	})

	t.Run("cancels pending timer", func(t *testing.T) {
		room, _ := store.CreateRoom("Host")

		fired := make(chan struct{}, 1)
		room.Lock()
		room.ArmTimer(20*time.Millisecond, func(id uint64) {
			room.Lock()
			defer room.Unlock()
			if room.Closed() || !room.TimerCurrent(id) {
				return
			}
			fired <- struct{}{}
		})
		room.Unlock()

		store.RemoveRoom(room.Code)

		select {
		case <-fired:
			t.Error("timer acted on a removed room")
		case <-time.After(60 * time.Millisecond):
		}
	})

	t.Run("missing room", func(t *testing.T) {
		if _, ok := store.RemoveRoom("nope"); ok {
			t.Error("expected false for missing room")
		}
	})
}

func TestForget(t *testing.T) {
	store := NewMemoryStore(6)
	room, _ := store.CreateRoom("Host")

	other := game.NewRoom(room.Code, "Other")
	store.Forget(room.Code, other)
	if store.Count() != 1 {
		t.Error("Forget removed a room it did not own")
	}

	store.Forget(room.Code, room)
	if store.Count() != 0 {
		t.Error("expected room to be forgotten")
	}
}

func TestRoomsSnapshot(t *testing.T) {
	store := NewMemoryStore(6)
	for i := 0; i < 3; i++ {
		store.CreateRoom(fmt.Sprintf("H%d", i))
	}

	rooms := store.Rooms()
	if len(rooms) != 3 {
		t.Errorf("expected 3 rooms, got %d", len(rooms))
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(6)

	var wg sync.WaitGroup
	codes := make(chan string, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := store.CreateRoom(fmt.Sprintf("H%d", i))
			if err != nil {
				t.Errorf("failed to create room: %v", err)
				return
			}
			codes <- room.Code
		}(i)
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			if _, err := store.GetRoom(code); err != nil {
				t.Errorf("failed to get room %s: %v", code, err)
			}
			store.RemoveRoom(code)
		}(code)
	}
	wg.Wait()

	if store.Count() != 0 {
		t.Errorf("expected empty store, got %d rooms", store.Count())
	}
}
