package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the Pokédex server.
type Config struct {
	DBPath           string        `env:"DB_PATH" envDefault:"./data/pokedex.db"`
	ServerPort       int           `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	Environment      string        `env:"ENV" envDefault:"development"`
	SentryDSN        string        `env:"SENTRY_DSN"`
	OTelEndpoint     string        `env:"OTEL_ENDPOINT"`
	AdminJWTSecret   string        `env:"ADMIN_JWT_SECRET"`
	BootstrapOnStart bool          `env:"BOOTSTRAP_ON_START" envDefault:"false"`
	ShutdownGrace    time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`

	PokeAPI   PokeAPIConfig   `envPrefix:"POKEAPI_"`
	Batch     BatchConfig     `envPrefix:"BATCH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

// PokeAPIConfig controls the upstream gateway.
type PokeAPIConfig struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"https://pokeapi.co/api/v2"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"15s"`
	RateLimit float64       `env:"RATE_LIMIT" envDefault:"20"`
	RateBurst int           `env:"RATE_BURST" envDefault:"5"`
}

// BatchConfig bounds batch fetches against the upstream.
type BatchConfig struct {
	Workers     int           `env:"WORKERS" envDefault:"1"`
	ItemTimeout time.Duration `env:"ITEM_TIMEOUT" envDefault:"30s"`
}

// RateLimitConfig configures the inbound per-client rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64       `env:"RPS" envDefault:"10"`
	Burst             int           `env:"BURST" envDefault:"20"`
	ClientTTL         time.Duration `env:"TTL" envDefault:"5m"`
}

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, eris.Wrap(err, "parsing environment")
	}

	cfg.LogLevel = strings.TrimSpace(cfg.LogLevel)
	cfg.PokeAPI.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.PokeAPI.BaseURL), "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return eris.Errorf("invalid SERVER_PORT value: %d", c.ServerPort)
	}
	if c.PokeAPI.BaseURL == "" {
		return eris.New("POKEAPI_BASE_URL must not be empty")
	}
	if c.PokeAPI.CacheTTL <= 0 {
		return eris.Errorf("invalid POKEAPI_CACHE_TTL value: %s", c.PokeAPI.CacheTTL)
	}
	if c.PokeAPI.Timeout <= 0 {
		return eris.Errorf("invalid POKEAPI_TIMEOUT value: %s", c.PokeAPI.Timeout)
	}
	if c.Batch.Workers < 1 {
		return eris.Errorf("invalid BATCH_WORKERS value: %d", c.Batch.Workers)
	}
	if c.Batch.ItemTimeout <= 0 {
		return eris.Errorf("invalid BATCH_ITEM_TIMEOUT value: %s", c.Batch.ItemTimeout)
	}
	if c.RateLimit.Burst <= 0 || c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.ClientTTL <= 0 {
		return eris.New("RATE_LIMIT_RPS, RATE_LIMIT_BURST and RATE_LIMIT_TTL must be positive")
	}
	return nil
}
