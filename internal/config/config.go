package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Hands     HandsConfig
	Coach     CoachConfig
	Sessions  SessionConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// HandsConfig holds hand-history import configuration.
type HandsConfig struct {
	Dir          string `envconfig:"HANDS_DIR" default:"./hands"`
	Pattern      string `envconfig:"HANDS_PATTERN" default:"**/*.jsonl"`
	WatchEnabled bool   `envconfig:"HANDS_WATCH" default:"true"`
	QueueSize    int    `envconfig:"HANDS_QUEUE_SIZE" default:"64"`
}

// CoachConfig holds coaching service configuration.
type CoachConfig struct {
	BaseURL           string  `envconfig:"COACH_URL" default:"http://localhost:9100"`
	APIKey            string  `envconfig:"COACH_API_KEY" default:""`
	Enabled           bool    `envconfig:"COACH_ENABLED" default:"true"`
	RequestsPerSecond float64 `envconfig:"COACH_RPS" default:"2"`
}

// SessionConfig holds dashboard session persistence configuration.
type SessionConfig struct {
	Dir string `envconfig:"SESSIONS_DIR" default:"./sessions"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Hands: HandsConfig{
			Dir:          "./hands",
			Pattern:      "**/*.jsonl",
			WatchEnabled: true,
			QueueSize:    64,
		},
		Coach: CoachConfig{
			BaseURL:           "http://localhost:9100",
			Enabled:           true,
			RequestsPerSecond: 2,
		},
		Sessions: SessionConfig{
			Dir: "./sessions",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
