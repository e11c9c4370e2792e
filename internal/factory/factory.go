// Package factory wires application components from configuration.
package factory

import (
	"io"
	"log/slog"

	"github.com/franbrizuelab/NPHW2/internal/config"
	"github.com/franbrizuelab/NPHW2/internal/db"
	"github.com/franbrizuelab/NPHW2/internal/db/memory"
	redisstore "github.com/franbrizuelab/NPHW2/internal/db/redis"
)

// App contains the wired components shared by the service entry points
type App struct {
	Store  db.Store
	Logger *slog.Logger
}

// New creates an App from configuration, picking the storage backend
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store db.Store
	switch cfg.StorageType {
	case config.StorageRedis:
		redisCfg := redisstore.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisStore, err := redisstore.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		store = memory.New()
	}

	return &App{
		Store:  store,
		Logger: logger,
	}, nil
}
