package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL     string `env:"DATABASE_URL,required" validate:"required"`
	PollIntervalSec int    `env:"POLL_INTERVAL_SEC" envDefault:"5" validate:"min=1,max=60"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	APIKey    string `env:"API_KEY,required"    validate:"required,min=16"`
	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	// Alerting is optional: leave ALERT_EMAIL empty to disable failure
	// alerts entirely. Outside local, Resend credentials must accompany it.
	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM"`
	AlertEmail   string `env:"ALERT_EMAIL" validate:"omitempty,email"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.AlertEmail != "" && cfg.Env != "local" && (cfg.ResendAPIKey == "" || cfg.ResendFrom == "") {
		return nil, fmt.Errorf("invalid config: ALERT_EMAIL requires RESEND_API_KEY and RESEND_FROM outside local")
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto the slog level used by both binaries.
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
