package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"closeenough/internal/config"
	localMiddleware "closeenough/internal/middleware"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler

	// RateLimiter is created from cfg when nil. The caller owns sweeping it.
	RateLimiter *localMiddleware.RateLimiter
}

// SetupRouter creates the application router with all routes and middleware
func SetupRouter(h *Handler, cfg *config.ServerConfig, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}

	r := chi.NewRouter()

	// Chi's built-in middleware (conditionally applied)
	if !opts.DisableRequestLogger {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Our custom middleware
	r.Use(localMiddleware.RequestSizeLimiter(cfg.Server.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())
	r.Use(localMiddleware.CORS(cfg.Server.AllowedOrigin))

	if !opts.DisableRateLimiting {
		limiter := opts.RateLimiter
		if limiter == nil {
			limiter = localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
		}
		r.Use(limiter.Middleware())
	}

	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	// Request/response routes get a deadline; streams stay open
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

		r.Post("/create", h.CreateRoom)
		r.Post("/join", h.JoinRoom)
		r.Get("/room/{code}", h.RoomInfo)
		r.Get("/room/{code}/qr", h.RoomQR)

		r.Post("/room/{code}/start", h.StartGame)
		r.Post("/room/{code}/pick", h.PickCard)
		r.Post("/room/{code}/guess", h.SubmitGuess)
		r.Post("/room/{code}/next", h.NextRound)
		r.Post("/room/{code}/leave", h.LeaveRoom)
	})

	r.Get("/sse/room/{code}", ValidateSSERequest(h.StreamRoom))
	r.Get("/ws", h.ServeWS)

	// Health check endpoints (no auth required)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
