package cache

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deediq/internal/models"
)

func testCache(t *testing.T) *MarketCache {
	// Skip if no Redis connection
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("Skipping test - no Redis connection configured")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	c, err := NewRedis(context.Background(), fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), port), os.Getenv("REDIS_PASSWORD"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMarketCache_RoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	require.NoError(t, c.InvalidateMarkets(ctx))

	_, err := c.GetMarket(ctx, "nashville")
	assert.ErrorIs(t, err, redis.Nil)

	detail := &models.MarketDetail{
		Market:           models.Market{ID: "m1", City: "Nashville", State: "TN", MedianRent: 1350, MedianHomeValue: 315900},
		RentToValueRatio: 5.13,
		Historical:       []models.HistoricalRecord{{Year: 2022, MedianRent: 1350}},
	}
	require.NoError(t, c.SetMarket(ctx, "nashville", detail))

	cached, err := c.GetMarket(ctx, "nashville")
	require.NoError(t, err)
	assert.Equal(t, "Nashville", cached.Market.City)
	assert.Equal(t, 5.13, cached.RentToValueRatio)
	assert.Len(t, cached.Historical, 1)
}

func TestMarketCache_Invalidate(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMarketList(ctx, []models.MarketSummary{{ID: "m1", City: "Memphis", State: "TN"}}))
	require.NoError(t, c.SetMarket(ctx, "memphis", &models.MarketDetail{}))

	list, err := c.GetMarketList(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.InvalidateMarkets(ctx))

	_, err = c.GetMarketList(ctx)
	assert.ErrorIs(t, err, redis.Nil)
	_, err = c.GetMarket(ctx, "memphis")
	assert.ErrorIs(t, err, redis.Nil)
}
