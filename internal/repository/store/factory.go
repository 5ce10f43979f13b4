package store

import (
	"fmt"

	"github.com/jczaplew/gl-js-offline/pkg/config"
	"github.com/jczaplew/gl-js-offline/pkg/logger"
)

// NewFromConfig builds the store backend selected by cfg.Store.Driver.
func NewFromConfig(cfg *config.Config, l logger.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return NewSQLiteStore(cfg.Store.SQLitePath, l)
	case "redis":
		return NewRedisStore(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
