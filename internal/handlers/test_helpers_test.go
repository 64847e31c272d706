package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"closeenough/internal/config"
	"closeenough/internal/events"
	"closeenough/internal/game"
	"closeenough/internal/scorer"
	"closeenough/internal/session"
	"closeenough/internal/store"
)

var testCards = []string{"Dragon", "Wizard", "Robot"}

// lengthScorer ranks guesses by how close their length is to the target
type lengthScorer struct{}

func (lengthScorer) Score(_ context.Context, req scorer.Request) (*scorer.Response, error) {
	resp := &scorer.Response{Results: make(map[string][]scorer.Score, len(req.Guesses))}
	for name, texts := range req.Guesses {
		for _, text := range texts {
			diff := len(text) - len(req.Target)
			if diff < 0 {
				diff = -diff
			}
			resp.Results[name] = append(resp.Results[name], scorer.Score{Similarity: 1 / float64(1+diff)})
		}
	}
	return resp, nil
}

type testEnv struct {
	cfg    *config.ServerConfig
	bus    *events.Bus
	engine *session.Engine
	h      *Handler
	router *chi.Mux
}

// newTestEnv wires a handler against a real engine with a local scorer
func newTestEnv(t *testing.T, mutate func(cfg *config.ServerConfig)) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Game.GuessDuration = 5 * time.Second
	cfg.Server.SocketRate = 100
	cfg.Server.SocketBurst = 100
	if mutate != nil {
		mutate(cfg)
	}

	bus := events.NewBus(cfg.Rooms.EventBuffer)
	engine := session.New(
		store.NewMemoryStore(cfg.Rooms.CodeLength),
		bus,
		game.NewCardPool(testCards),
		lengthScorer{},
		session.SettingsFromConfig(cfg),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		engine.Shutdown(ctx)
	})

	h := New(engine, bus, cfg)
	router := SetupRouter(h, cfg, &RouterOptions{
		DisableRateLimiting:  true,
		DisableRequestLogger: true,
	})
	return &testEnv{cfg: cfg, bus: bus, engine: engine, h: h, router: router}
}

func (env *testEnv) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// createRoom creates a room over HTTP and returns its code and the host cookie
func (env *testEnv) createRoom(t *testing.T, host string) (string, *http.Cookie) {
	t.Helper()
	w := env.do("POST", "/create", map[string]string{"name": host})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code := resp["pin"]
	require.Len(t, code, 6)
	return code, playerCookie(t, w, code)
}

// joinRoom joins a room over HTTP and returns the player cookie
func (env *testEnv) joinRoom(t *testing.T, code, name string) *http.Cookie {
	t.Helper()
	w := env.do("POST", "/join", map[string]string{"pin": code, "name": name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return playerCookie(t, w, code)
}

func playerCookie(t *testing.T, w *httptest.ResponseRecorder, code string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == playerCookieName(code) {
			return c
		}
	}
	t.Fatalf("no player cookie for room %s", code)
	return nil
}
