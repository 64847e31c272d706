package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	// Set config file details
	v.SetConfigName("server")
	v.SetConfigType("yaml")

	// Add config paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/closeenough")
	}

	// Enable environment variable binding
	// CLOSEENOUGH_GAME_GUESSDURATION and friends work for every key
	v.SetEnvPrefix("closeenough")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Short aliases for the common knobs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.loglevel", "LOG_LEVEL")
	v.BindEnv("server.logformat", "LOG_FORMAT")
	v.BindEnv("server.ratelimit", "RATE_LIMIT")
	v.BindEnv("server.ratelimitburst", "RATE_LIMIT_BURST")
	v.BindEnv("server.maxrequestsize", "MAX_REQUEST_SIZE")
	v.BindEnv("scorer.url", "SCORER_URL")
	v.BindEnv("scorer.timeout", "SCORER_TIMEOUT")
	v.BindEnv("game.guessduration", "GUESS_DURATION")
	v.BindEnv("game.cardsfile", "CARDS_FILE")

	setDefaults(v, DefaultConfig())

	// Try to read config file (it's optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; continue with env vars and defaults
	}

	cfg := &ServerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *ServerConfig) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.readtimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writetimeout", d.Server.WriteTimeout)
	v.SetDefault("server.idletimeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdowntimeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.requesttimeout", d.Server.RequestTimeout)
	v.SetDefault("server.ratelimit", d.Server.RateLimit)
	v.SetDefault("server.ratelimitburst", d.Server.RateLimitBurst)
	v.SetDefault("server.socketrate", d.Server.SocketRate)
	v.SetDefault("server.socketburst", d.Server.SocketBurst)
	v.SetDefault("server.maxrequestsize", d.Server.MaxRequestSize)
	v.SetDefault("server.allowedorigin", d.Server.AllowedOrigin)
	v.SetDefault("server.loglevel", d.Server.LogLevel)
	v.SetDefault("server.logformat", d.Server.LogFormat)

	v.SetDefault("rooms.codelength", d.Rooms.CodeLength)
	v.SetDefault("rooms.maxplayers", d.Rooms.MaxPlayers)
	v.SetDefault("rooms.minplayerstostart", d.Rooms.MinPlayersToStart)
	v.SetDefault("rooms.idletimeout", d.Rooms.IdleTimeout)
	v.SetDefault("rooms.janitorinterval", d.Rooms.JanitorInterval)
	v.SetDefault("rooms.eventbuffer", d.Rooms.EventBuffer)

	v.SetDefault("game.guessduration", d.Game.GuessDuration)
	v.SetDefault("game.cardsperturn", d.Game.CardsPerTurn)
	v.SetDefault("game.endguessingwhenallguessed", d.Game.EndGuessingWhenAllGuessed)
	v.SetDefault("game.cardsfile", d.Game.CardsFile)

	v.SetDefault("scorer.url", d.Scorer.URL)
	v.SetDefault("scorer.timeout", d.Scorer.Timeout)
}
