package commands

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"deediq/internal/cache"
	"deediq/internal/config"
	"deediq/internal/database"
	"deediq/internal/market"
	"deediq/internal/messaging"
)

func getDB(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		LogLevel: cfg.DBLogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	return db, nil
}

// getEvents returns nil when NATS is not configured.
func getEvents(cfg config.Config) (*messaging.Client, error) {
	if cfg.NatsURL == "" {
		return nil, nil
	}
	return messaging.Connect(cfg.NatsURL)
}

// getMarkets builds the market repository, fronted by Redis when configured.
// The returned func releases the cache connection.
func getMarkets(ctx context.Context, db *gorm.DB, cfg config.Config) (*market.Repository, func(), error) {
	if cfg.RedisAddr == "" {
		return market.NewRepository(db, nil), func() {}, nil
	}
	mc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	return market.NewRepository(db, mc), func() { mc.Close() }, nil
}
