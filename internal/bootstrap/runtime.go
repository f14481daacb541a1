// Package bootstrap connects the runtime dependencies shared by the server and the seeder.
package bootstrap

import (
	"fmt"

	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Migrate forces schema migration even in production, where Connect skips it.
	Migrate bool
	// SkipRedis leaves the Redis client nil, e.g. for one-off database tools.
	SkipRedis bool
}

// InitRuntime connects to the database and Redis. The Redis client is nil when
// Redis is unreachable or skipped.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.Migrate && cfg.IsProduction() {
		if err := database.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	if opts.SkipRedis {
		return db, nil, nil
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}
