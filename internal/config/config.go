package config

import (
	"fmt"
	"time"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// ServerConfig represents the server configuration
type ServerConfig struct {
	Server ServerSettings `yaml:"server"`
	Rooms  RoomSettings   `yaml:"rooms"`
	Game   GameSettings   `yaml:"game"`
	Scorer ScorerSettings `yaml:"scorer"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"` // 0 for SSE and websocket support
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"` // Timeout for regular HTTP requests (middleware)

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit"`      // requests per second per IP
	RateLimitBurst int     `yaml:"rateLimitBurst"` // burst size
	SocketRate     float64 `yaml:"socketRate"`     // websocket events per second per connection
	SocketBurst    int     `yaml:"socketBurst"`

	// Request limits
	MaxRequestSize int64  `yaml:"maxRequestSize"`
	AllowedOrigin  string `yaml:"allowedOrigin"`

	// Logging
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"` // text or json
}

// RoomSettings controls room lifecycle
type RoomSettings struct {
	CodeLength        int           `yaml:"codeLength"`
	MaxPlayers        int           `yaml:"maxPlayers"`
	MinPlayersToStart int           `yaml:"minPlayersToStart"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	JanitorInterval   time.Duration `yaml:"janitorInterval"`
	EventBuffer       int           `yaml:"eventBuffer"` // per-subscriber broadcast buffer
}

// GameSettings controls the round loop
type GameSettings struct {
	GuessDuration             time.Duration `yaml:"guessDuration"`
	CardsPerTurn              int           `yaml:"cardsPerTurn"`
	EndGuessingWhenAllGuessed bool          `yaml:"endGuessingWhenAllGuessed"`
	CardsFile                 string        `yaml:"cardsFile"` // empty uses the embedded pool
}

// ScorerSettings points at the similarity service
type ScorerSettings struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Port:            "3000",
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // streams stay open
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,

			RateLimit:      10,
			RateLimitBurst: 20,
			SocketRate:     5,
			SocketBurst:    10,

			MaxRequestSize: 1048576, // 1MB
			AllowedOrigin:  "*",

			LogLevel:  "info",
			LogFormat: "text",
		},
		Rooms: RoomSettings{
			CodeLength:        6,
			MaxPlayers:        20,
			MinPlayersToStart: 2,
			IdleTimeout:       2 * time.Hour,
			JanitorInterval:   time.Minute,
			EventBuffer:       64,
		},
		Game: GameSettings{
			GuessDuration:             15 * time.Second,
			CardsPerTurn:              3,
			EndGuessingWhenAllGuessed: false,
		},
		Scorer: ScorerSettings{
			URL:     "http://localhost:8000/similarity",
			Timeout: 10 * time.Second,
		},
	}
}

// Validate checks if the configuration is valid
func (c *ServerConfig) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if c.Server.LogFormat != "text" && c.Server.LogFormat != "json" {
		return fmt.Errorf("logFormat must be text or json, got %q", c.Server.LogFormat)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("rateLimit and rateLimitBurst must be positive")
	}
	if c.Server.SocketRate <= 0 || c.Server.SocketBurst < 1 {
		return fmt.Errorf("socketRate and socketBurst must be positive")
	}

	if c.Rooms.CodeLength < 3 || c.Rooms.CodeLength > 12 {
		return fmt.Errorf("codeLength must be between 3 and 12")
	}
	if c.Rooms.MaxPlayers < 1 {
		return fmt.Errorf("maxPlayers must be at least 1")
	}
	if c.Rooms.MinPlayersToStart < 1 {
		return fmt.Errorf("minPlayersToStart must be at least 1")
	}
	if c.Rooms.MinPlayersToStart > c.Rooms.MaxPlayers {
		return fmt.Errorf("minPlayersToStart cannot be greater than maxPlayers")
	}
	if c.Rooms.JanitorInterval <= 0 {
		return fmt.Errorf("janitorInterval must be positive")
	}
	if c.Rooms.EventBuffer < 1 {
		c.Rooms.EventBuffer = 64
	}

	if c.Game.GuessDuration <= 0 {
		return fmt.Errorf("guessDuration must be positive")
	}
	if c.Game.CardsPerTurn < 1 {
		return fmt.Errorf("cardsPerTurn must be at least 1")
	}

	if c.Scorer.Timeout <= 0 {
		return fmt.Errorf("scorer timeout must be positive")
	}

	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
