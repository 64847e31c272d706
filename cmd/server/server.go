package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"closeenough"
	"closeenough/internal/config"
	"closeenough/internal/events"
	"closeenough/internal/game"
	"closeenough/internal/handlers"
	localMiddleware "closeenough/internal/middleware"
	"closeenough/internal/scorer"
	"closeenough/internal/session"
	"closeenough/internal/store"
)

// App is a fully wired server
type App struct {
	Config  *config.ServerConfig
	Engine  *session.Engine
	Limiter *localMiddleware.RateLimiter
	Handler http.Handler
}

// SetupServer builds the engine and router from cfg
func SetupServer(cfg *config.ServerConfig) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pool, err := game.LoadCardPoolFile(cfg.Game.CardsFile, closeenough.DefaultCardsYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	if pool.Size() < cfg.Game.CardsPerTurn {
		return nil, fmt.Errorf("card pool has %d cards, need at least %d", pool.Size(), cfg.Game.CardsPerTurn)
	}

	if cfg.Scorer.URL == "" {
		log.Warn().Msg("no similarity service configured, every round will fail to score")
	}
	sc := scorer.New(cfg.Scorer.URL, cfg.Scorer.Timeout)

	bus := events.NewBus(cfg.Rooms.EventBuffer)
	engine := session.New(
		store.NewMemoryStore(cfg.Rooms.CodeLength),
		bus,
		pool,
		sc,
		session.SettingsFromConfig(cfg),
	)

	limiter := localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
	h := handlers.New(engine, bus, cfg)
	router := handlers.SetupRouter(h, cfg, &handlers.RouterOptions{RateLimiter: limiter})

	log.Info().
		Int("cards", pool.Size()).
		Int("maxPlayers", cfg.Rooms.MaxPlayers).
		Dur("guessDuration", cfg.Game.GuessDuration).
		Str("scorer", cfg.Scorer.URL).
		Msg("server configured")

	return &App{
		Config:  cfg,
		Engine:  engine,
		Limiter: limiter,
		Handler: router,
	}, nil
}

// Start runs the background sweepers until ctx is done
func (a *App) Start(ctx context.Context) {
	go a.Engine.RunJanitor(ctx, a.Config.Rooms.JanitorInterval)
	go a.Limiter.RunSweeper(ctx, a.Config.Rooms.JanitorInterval)
}

// Shutdown closes every room and waits for in-flight scoring
func (a *App) Shutdown(ctx context.Context) error {
	return a.Engine.Shutdown(ctx)
}
