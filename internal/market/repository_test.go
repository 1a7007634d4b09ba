package market

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"deediq/internal/apperror"
	"deediq/internal/database"
	"deediq/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{URL: "sqlite://:memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { database.Close(db) })
	return db
}

func seededRepo(t *testing.T, cache Cache) *Repository {
	repo := NewRepository(setupTestDB(t), cache)
	require.NoError(t, repo.Ingest(context.Background(), SampleData()))
	return repo
}

func TestListMarketsSortedByCity(t *testing.T) {
	repo := seededRepo(t, nil)

	markets, err := repo.ListMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 3)

	assert.Equal(t, "Knoxville", markets[0].City)
	assert.Equal(t, "Memphis", markets[1].City)
	assert.Equal(t, "Nashville", markets[2].City)
	for _, m := range markets {
		assert.NotEmpty(t, m.ID)
		assert.Equal(t, "TN", m.State)
	}
}

func TestGetMarketCaseInsensitive(t *testing.T) {
	repo := seededRepo(t, nil)

	detail, err := repo.GetMarket(context.Background(), "nAsHvIlLe")
	require.NoError(t, err)

	assert.Equal(t, "Nashville", detail.Market.City)
	assert.Equal(t, 1350.0, detail.Market.MedianRent)
	assert.Equal(t, 315900.0, detail.Market.MedianHomeValue)
	assert.Equal(t, 5.13, detail.RentToValueRatio)

	require.Len(t, detail.Historical, 7)
	for i := 1; i < len(detail.Historical); i++ {
		assert.Less(t, detail.Historical[i-1].Year, detail.Historical[i].Year)
	}
}

func TestGetMarketNotFound(t *testing.T) {
	repo := seededRepo(t, nil)

	_, err := repo.GetMarket(context.Background(), "Chattanooga")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, "Market not found: Chattanooga", err.Error())

	_, err = repo.GetSubmarkets(context.Background(), "Chattanooga")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestGetSubmarketsSortedByName(t *testing.T) {
	repo := seededRepo(t, nil)

	subs, err := repo.GetSubmarkets(context.Background(), "memphis")
	require.NoError(t, err)
	require.Len(t, subs, 10)

	for i := 1; i < len(subs); i++ {
		assert.LessOrEqual(t, subs[i-1].Name, subs[i].Name)
	}
	assert.Equal(t, "Bartlett", subs[0].Name)
	assert.Equal(t, "38134", subs[0].ZipCode)
}

func TestIngestIsIdempotentAndUpdates(t *testing.T) {
	repo := seededRepo(t, nil)
	ctx := context.Background()

	update := SampleData()[:1]
	update[0].Market.City = "NASHVILLE"
	update[0].Market.MedianRent = 1400
	update[0].Historical = append(update[0].Historical, models.HistoricalRecord{Year: 2024, Population: 700000, MedianIncome: 66000, MedianHomeValue: 330000, MedianRent: 1400})
	require.NoError(t, repo.Ingest(ctx, update))

	markets, err := repo.ListMarkets(ctx)
	require.NoError(t, err)
	assert.Len(t, markets, 3)

	detail, err := repo.GetMarket(ctx, "Nashville")
	require.NoError(t, err)
	assert.Equal(t, 1400.0, detail.Market.MedianRent)
	assert.Len(t, detail.Historical, 8)
	assert.Equal(t, 2024, detail.Historical[7].Year)

	subs, err := repo.GetSubmarkets(ctx, "Nashville")
	require.NoError(t, err)
	assert.Len(t, subs, 10)
}

func TestIngestRejectsMissingCity(t *testing.T) {
	repo := NewRepository(setupTestDB(t), nil)

	err := repo.Ingest(context.Background(), []CityData{{Market: models.Market{State: "TN"}}})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

type memoryCache struct {
	mu          sync.Mutex
	list        []models.MarketSummary
	details     map[string]*models.MarketDetail
	detailHits  int
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{details: map[string]*models.MarketDetail{}}
}

func (c *memoryCache) GetMarketList(ctx context.Context) ([]models.MarketSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.list == nil {
		return nil, errors.New("miss")
	}
	return c.list, nil
}

func (c *memoryCache) SetMarketList(ctx context.Context, markets []models.MarketSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = markets
	return nil
}

func (c *memoryCache) GetMarket(ctx context.Context, city string) (*models.MarketDetail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.details[city]
	if !ok {
		return nil, errors.New("miss")
	}
	c.detailHits++
	return d, nil
}

func (c *memoryCache) SetMarket(ctx context.Context, city string, detail *models.MarketDetail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[city] = detail
	return nil
}

func (c *memoryCache) InvalidateMarkets(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
	c.details = map[string]*models.MarketDetail{}
	c.invalidated++
	return nil
}

func TestGetMarketReadThroughCache(t *testing.T) {
	cache := newMemoryCache()
	repo := seededRepo(t, cache)
	ctx := context.Background()
	assert.Equal(t, 1, cache.invalidated)

	first, err := repo.GetMarket(ctx, "Memphis")
	require.NoError(t, err)
	assert.Equal(t, 0, cache.detailHits)
	assert.Contains(t, cache.details, "memphis")

	second, err := repo.GetMarket(ctx, "MEMPHIS")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.detailHits)
	assert.Equal(t, first.Market.ID, second.Market.ID)

	_, err = repo.ListMarkets(ctx)
	require.NoError(t, err)
	assert.Len(t, cache.list, 3)

	require.NoError(t, repo.Ingest(ctx, SampleData()[1:2]))
	assert.Equal(t, 2, cache.invalidated)
	assert.Nil(t, cache.list)
	assert.Empty(t, cache.details)
}
