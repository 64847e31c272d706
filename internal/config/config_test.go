package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Test loading default config when file doesn't exist
	t.Run("LoadDefaultWhenMissing", func(t *testing.T) {
		config, err := LoadConfig("nonexistent.yaml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config == nil {
			t.Fatal("expected default config, got nil")
		}
		if config.Rooms.CodeLength != 6 {
			t.Errorf("expected CodeLength 6, got %d", config.Rooms.CodeLength)
		}
		if config.Game.GuessDuration != 15*time.Second {
			t.Errorf("expected GuessDuration 15s, got %v", config.Game.GuessDuration)
		}
		if config.Game.CardsPerTurn != 3 {
			t.Errorf("expected CardsPerTurn 3, got %d", config.Game.CardsPerTurn)
		}
		if config.Rooms.MinPlayersToStart != 2 {
			t.Errorf("expected MinPlayersToStart 2, got %d", config.Rooms.MinPlayersToStart)
		}
	})

	// Test loading from YAML file
	t.Run("LoadFromYAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yaml")

		yamlContent := `
server:
  port: "8080"
  logFormat: json
rooms:
  codeLength: 4
  maxPlayers: 6
  idleTimeout: 30m
game:
  guessDuration: 20s
  cardsPerTurn: 4
  endGuessingWhenAllGuessed: true
scorer:
  url: http://scorer:9000/similarity
  timeout: 3s
`
		if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != "8080" {
			t.Errorf("expected Port 8080, got %s", config.Server.Port)
		}
		if config.Server.LogFormat != "json" {
			t.Errorf("expected LogFormat json, got %s", config.Server.LogFormat)
		}
		if config.Rooms.CodeLength != 4 {
			t.Errorf("expected CodeLength 4, got %d", config.Rooms.CodeLength)
		}
		if config.Rooms.IdleTimeout != 30*time.Minute {
			t.Errorf("expected IdleTimeout 30m, got %v", config.Rooms.IdleTimeout)
		}
		if config.Game.GuessDuration != 20*time.Second {
			t.Errorf("expected GuessDuration 20s, got %v", config.Game.GuessDuration)
		}
		if !config.Game.EndGuessingWhenAllGuessed {
			t.Error("expected EndGuessingWhenAllGuessed to be true")
		}
		if config.Scorer.URL != "http://scorer:9000/similarity" {
			t.Errorf("unexpected scorer URL %s", config.Scorer.URL)
		}
		if config.Scorer.Timeout != 3*time.Second {
			t.Errorf("expected scorer timeout 3s, got %v", config.Scorer.Timeout)
		}
		// Untouched keys keep their defaults
		if config.Server.RateLimit != 10 {
			t.Errorf("expected default RateLimit 10, got %v", config.Server.RateLimit)
		}
	})

	t.Run("EnvironmentOverridesFile", func(t *testing.T) {
		t.Setenv("PORT", "9999")
		t.Setenv("SCORER_URL", "http://env-scorer/similarity")
		t.Setenv("GUESS_DURATION", "5s")

		config, err := LoadConfig("nonexistent.yaml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Server.Port != "9999" {
			t.Errorf("expected Port 9999, got %s", config.Server.Port)
		}
		if config.Scorer.URL != "http://env-scorer/similarity" {
			t.Errorf("unexpected scorer URL %s", config.Scorer.URL)
		}
		if config.Game.GuessDuration != 5*time.Second {
			t.Errorf("expected GuessDuration 5s, got %v", config.Game.GuessDuration)
		}
	})

	t.Run("InvalidFileValues", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		if err := os.WriteFile(configPath, []byte("rooms:\n  codeLength: 1\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "codeLength") {
			t.Errorf("expected codeLength error, got %v", err)
		}
	})
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *ServerConfig)
		wantError bool
		errorMsg  string
	}{
		{
			name:      "ValidConfig",
			mutate:    func(c *ServerConfig) {},
			wantError: false,
		},
		{
			name:      "MissingPort",
			mutate:    func(c *ServerConfig) { c.Server.Port = "" },
			wantError: true,
			errorMsg:  "PORT must be set",
		},
		{
			name:      "UnknownLogFormat",
			mutate:    func(c *ServerConfig) { c.Server.LogFormat = "xml" },
			wantError: true,
			errorMsg:  "logFormat",
		},
		{
			name:      "InvalidMaxPlayers",
			mutate:    func(c *ServerConfig) { c.Rooms.MaxPlayers = 0 },
			wantError: true,
			errorMsg:  "maxPlayers must be at least 1",
		},
		{
			name: "MinGreaterThanMax",
			mutate: func(c *ServerConfig) {
				c.Rooms.MaxPlayers = 4
				c.Rooms.MinPlayersToStart = 5
			},
			wantError: true,
			errorMsg:  "minPlayersToStart cannot be greater than maxPlayers",
		},
		{
			name:      "ZeroJanitorInterval",
			mutate:    func(c *ServerConfig) { c.Rooms.JanitorInterval = 0 },
			wantError: true,
			errorMsg:  "janitorInterval",
		},
		{
			name:      "ZeroGuessDuration",
			mutate:    func(c *ServerConfig) { c.Game.GuessDuration = 0 },
			wantError: true,
			errorMsg:  "guessDuration must be positive",
		},
		{
			name:      "NoCardsPerTurn",
			mutate:    func(c *ServerConfig) { c.Game.CardsPerTurn = 0 },
			wantError: true,
			errorMsg:  "cardsPerTurn",
		},
		{
			name:      "ZeroScorerTimeout",
			mutate:    func(c *ServerConfig) { c.Scorer.Timeout = 0 },
			wantError: true,
			errorMsg:  "scorer timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error containing '%s', got nil", tt.errorMsg)
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateFillsEventBuffer(t *testing.T) {
	config := DefaultConfig()
	config.Rooms.EventBuffer = 0

	if err := config.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if config.Rooms.EventBuffer != 64 {
		t.Errorf("expected EventBuffer 64, got %d", config.Rooms.EventBuffer)
	}
}

func TestAddr(t *testing.T) {
	config := DefaultConfig()
	if got := config.Addr(); got != "0.0.0.0:3000" {
		t.Errorf("expected 0.0.0.0:3000, got %s", got)
	}
}
