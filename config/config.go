package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL   string `env:"DATABASE_URL,required" validate:"required"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret      string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h" validate:"min=1m"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s" validate:"min=100ms"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`
	AppBaseURL   string `env:"APP_BASE_URL"   envDefault:"http://localhost:3000" validate:"required,url"`

	// ExposeVerificationToken returns the plaintext verification token in the
	// signup response. Only meant for local development.
	ExposeVerificationToken *bool `env:"EXPOSE_VERIFICATION_TOKEN"`

	RateLimitBackend string `env:"RATE_LIMIT_BACKEND" envDefault:"memory" validate:"oneof=memory redis"`
	RedisURL         string `env:"REDIS_URL"          validate:"required_if=RateLimitBackend redis"`
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

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// ExposeTokens reports whether signup responses carry the plaintext
// verification token. Defaults to true only for ENV=local.
func (c *Config) ExposeTokens() bool {
	if c.ExposeVerificationToken != nil {
		return *c.ExposeVerificationToken
	}
	return c.Env == "local"
}
