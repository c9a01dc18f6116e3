package bootstrap

import (
	"context"
	"fmt"
	"log"

	"dajtovon/internal/cache"
	"dajtovon/internal/config"
	"dajtovon/internal/database"
	"dajtovon/internal/models"
	"dajtovon/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with demo data.
	SeedDemo bool
}

// DemoSeed is what SeedDemo writes.
var DemoSeed = seed.Options{
	NumUsers:            12,
	NumContent:          40,
	CommentsPerContent:  3,
	ReactionsPerContent: 5,
	Factory:             seed.FactoryOptions{MaxDays: 60},
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemo {
		if err := ensureDemoData(context.Background(), cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func ensureDemoData(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.IsProduction() {
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	if _, err := seed.Seed(ctx, db, DemoSeed); err != nil {
		return err
	}
	log.Printf("demo data seeded; every account uses password %q", seed.DefaultPassword)
	return nil
}
