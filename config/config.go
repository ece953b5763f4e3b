package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"3000" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	WorkerCount       int     `env:"WORKER_COUNT" envDefault:"1" validate:"min=1,max=100"`
	PollIntervalMs    int     `env:"POLL_INTERVAL_MS" envDefault:"5000" validate:"min=100,max=60000"`
	LeaseTimeoutSec   int     `env:"LEASE_TIMEOUT_SEC" envDefault:"30" validate:"min=1,max=3600"`
	RateLimitPerHost  float64 `env:"RATE_LIMIT_PER_HOST" envDefault:"5" validate:"min=0.1"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
