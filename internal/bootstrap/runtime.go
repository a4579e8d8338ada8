// Package bootstrap wires the process-wide runtime: database, schema and Redis.
package bootstrap

import (
	"fmt"

	"modulehub/internal/cache"
	"modulehub/internal/config"
	"modulehub/internal/database"
	"modulehub/internal/middleware"
	"modulehub/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema leaves the schema untouched, for tools that only read.
	SkipSchema bool
	// SeedCatalog applies the reference catalog after the schema is current.
	SeedCatalog bool
}

// InitRuntime connects to DB and Redis, applies the schema and optionally the
// reference catalog. The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.SeedCatalog || cfg.SeedCatalog {
		if err := applyCatalog(db, cfg.CatalogPath); err != nil {
			return nil, nil, err
		}
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}

func applyCatalog(db *gorm.DB, path string) error {
	var (
		cat *seed.Catalog
		err error
	)
	if path != "" {
		cat, err = seed.LoadCatalog(path)
	} else {
		cat, err = seed.DefaultCatalog()
	}
	if err != nil {
		return err
	}
	if err := seed.ApplyCatalog(db, cat); err != nil {
		return fmt.Errorf("apply catalog: %w", err)
	}
	middleware.Logger.Info("reference catalog applied",
		"plans", len(cat.Plans), "apple_products", len(cat.AppleProducts), "sessions", len(cat.Sessions))
	return nil
}
