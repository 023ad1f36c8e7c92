package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the tracker server configuration.
type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath       string        `env:"DB_PATH" envDefault:"matchtrack.db"`
	LogLevel     slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SyncURL      string        `env:"SYNC_URL"`
	SyncDebounce time.Duration `env:"SYNC_DEBOUNCE" envDefault:"2s"`
	SPADir       string        `env:"SPA_DIR"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// Syncd holds the standalone sync endpoint configuration.
type Syncd struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8090"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	RedisURL string     `env:"REDIS_URL"`
	DBPath   string     `env:"DB_PATH" envDefault:"syncd.db"`
}

func LoadSyncd() (*Syncd, error) {
	cfg, err := env.ParseAs[Syncd]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
