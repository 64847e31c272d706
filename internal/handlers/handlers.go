package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"closeenough/internal/config"
	"closeenough/internal/events"
	"closeenough/internal/session"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	engine   *session.Engine
	bus      *events.Bus
	cfg      *config.ServerConfig
	upgrader websocket.Upgrader
}

// New creates a new handler
func New(engine *session.Engine, bus *events.Bus, cfg *config.ServerConfig) *Handler {
	h := &Handler{
		engine: engine,
		bus:    bus,
		cfg:    cfg,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Engine returns the handler's engine (for testing)
func (h *Handler) Engine() *session.Engine {
	return h.engine
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	allowed := h.cfg.Server.AllowedOrigin
	if allowed == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == allowed
}

// playerCookieName is the cookie that remembers which player a browser is
// in a given room
func playerCookieName(code string) string {
	return "player_" + code
}

func setPlayerCookie(w http.ResponseWriter, code, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName(code),
		Value:    url.QueryEscape(name),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 1 day
	})
}

func clearPlayerCookie(w http.ResponseWriter, code string) {
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName(code),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// playerFromCookie returns the player name a browser joined code as
func playerFromCookie(r *http.Request, code string) (string, bool) {
	cookie, err := r.Cookie(playerCookieName(code))
	if err != nil || cookie.Value == "" {
		return "", false
	}
	name, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", false
	}
	return name, true
}
