package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"deediq/internal/models"
)

const (
	marketListKey = "markets"
	marketKeyFmt  = "market:%s"
	// Market data only changes on ingestion, which invalidates explicitly.
	marketTTL = 5 * time.Minute
)

// MarketCache stores market reads in Redis. It satisfies market.Cache.
type MarketCache struct {
	client *redis.Client
}

// NewRedis connects to addr and verifies the connection with a PING.
func NewRedis(ctx context.Context, addr, password string) (*MarketCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	log.Println("Redis connected successfully")
	return &MarketCache{client: client}, nil
}

func (c *MarketCache) Close() error {
	return c.client.Close()
}

func (c *MarketCache) GetMarketList(ctx context.Context) ([]models.MarketSummary, error) {
	var markets []models.MarketSummary
	if err := c.get(ctx, marketListKey, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

func (c *MarketCache) SetMarketList(ctx context.Context, markets []models.MarketSummary) error {
	return c.set(ctx, marketListKey, markets)
}

// GetMarket returns the cached detail for a lower-cased city name.
func (c *MarketCache) GetMarket(ctx context.Context, city string) (*models.MarketDetail, error) {
	var detail models.MarketDetail
	if err := c.get(ctx, fmt.Sprintf(marketKeyFmt, city), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *MarketCache) SetMarket(ctx context.Context, city string, detail *models.MarketDetail) error {
	return c.set(ctx, fmt.Sprintf(marketKeyFmt, city), detail)
}

// InvalidateMarkets drops the list and every per-city entry.
func (c *MarketCache) InvalidateMarkets(ctx context.Context) error {
	keys := []string{marketListKey}
	iter := c.client.Scan(ctx, 0, fmt.Sprintf(marketKeyFmt, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *MarketCache) get(ctx context.Context, key string, v interface{}) error {
	result, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(result), v)
}

func (c *MarketCache) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, marketTTL).Err()
}
