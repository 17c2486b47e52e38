// Package bootstrap wires the process-wide database and Redis handles.
package bootstrap

import (
	"fmt"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedGroups upserts the default community groups after migration.
	SeedGroups bool
}

// InitRuntime connects to the database (migrating it) and to Redis. The Redis
// client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if err := prepare(db, opts); err != nil {
		return nil, nil, err
	}
	return db, rdb, nil
}

func prepare(db *gorm.DB, opts Options) error {
	if !opts.SeedGroups {
		return nil
	}
	groups, err := seed.Groups(db)
	if err != nil {
		return fmt.Errorf("failed to seed default groups: %w", err)
	}
	middleware.Logger.Info("default groups ensured", slog.Int("count", len(groups)))
	return nil
}
