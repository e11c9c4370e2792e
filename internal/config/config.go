// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backend selectors
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds every tunable of the three services
type Config struct {
	// LobbyAddr is the lobby's listen address
	LobbyAddr string `env:"LOBBY_ADDR" envDefault:":10000"`

	// AdminAddr is the lobby's HTTP status API address; empty disables it
	AdminAddr string `env:"ADMIN_ADDR" envDefault:""`

	// DBAddr is where the persistence service listens and where the lobby
	// and game services reach it
	DBAddr string `env:"DB_ADDR" envDefault:"127.0.0.1:10001"`

	// DBTimeout bounds one persistence round-trip
	DBTimeout time.Duration `env:"DB_TIMEOUT" envDefault:"5s"`

	// GameHost is the address game services bind and advertise
	GameHost string `env:"GAME_HOST" envDefault:"127.0.0.1"`

	// GamePortBase is where the per-match port probe starts
	GamePortBase int `env:"GAME_PORT_BASE" envDefault:"11001"`

	// GravityInterval is the match tick length
	GravityInterval time.Duration `env:"GRAVITY_INTERVAL" envDefault:"500ms"`

	// StorageType selects the persistence backend: memory or redis
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`

	// RedisURL is used when StorageType is redis
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
}

// Load parses configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StorageType != StorageMemory && c.StorageType != StorageRedis {
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	if c.GravityInterval <= 0 {
		return fmt.Errorf("gravity interval must be positive")
	}
	if c.GamePortBase <= 0 || c.GamePortBase > 65535 {
		return fmt.Errorf("game port base %d out of range", c.GamePortBase)
	}
	return nil
}
