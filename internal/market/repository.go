package market

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"deediq/internal/apperror"
	"deediq/internal/finance"
	"deediq/internal/models"
)

// Cache is a read-through store for market reads. Any error from a Get is
// treated as a miss.
type Cache interface {
	GetMarketList(ctx context.Context) ([]models.MarketSummary, error)
	SetMarketList(ctx context.Context, markets []models.MarketSummary) error
	GetMarket(ctx context.Context, city string) (*models.MarketDetail, error)
	SetMarket(ctx context.Context, city string, detail *models.MarketDetail) error
	InvalidateMarkets(ctx context.Context) error
}

// CityData is one city's worth of ingested statistics.
type CityData struct {
	Market     models.Market
	Historical []models.HistoricalRecord
	Submarkets []models.Submarket
}

type Repository struct {
	db    *gorm.DB
	cache Cache
}

// NewRepository returns a market repository. cache may be nil.
func NewRepository(db *gorm.DB, cache Cache) *Repository {
	return &Repository{db: db, cache: cache}
}

// ListMarkets returns every market ordered by city name.
func (r *Repository) ListMarkets(ctx context.Context) ([]models.MarketSummary, error) {
	if r.cache != nil {
		if cached, err := r.cache.GetMarketList(ctx); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	markets := []models.MarketSummary{}
	err := r.db.WithContext(ctx).
		Model(&models.Market{}).
		Select("id, city, state").
		Order("city ASC").
		Scan(&markets).Error
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	if r.cache != nil && len(markets) > 0 {
		if err := r.cache.SetMarketList(ctx, markets); err != nil {
			log.Printf("Failed to cache market list: %v", err)
		}
	}
	return markets, nil
}

// GetMarket looks a market up by city name, case-insensitively, with its
// history and rent-to-value ratio.
func (r *Repository) GetMarket(ctx context.Context, city string) (*models.MarketDetail, error) {
	key := strings.ToLower(city)
	if r.cache != nil {
		if cached, err := r.cache.GetMarket(ctx, key); err == nil && cached != nil {
			return cached, nil
		}
	}

	market, err := r.findMarket(ctx, city)
	if err != nil {
		return nil, err
	}

	historical := []models.HistoricalRecord{}
	err = r.db.WithContext(ctx).
		Where("market_id = ?", market.ID).
		Order("year ASC").
		Find(&historical).Error
	if err != nil {
		return nil, fmt.Errorf("get historical data: %w", err)
	}

	detail := &models.MarketDetail{
		Market:           *market,
		RentToValueRatio: finance.RentToValueRatio(market.MedianRent, market.MedianHomeValue),
		Historical:       historical,
	}

	if r.cache != nil {
		if err := r.cache.SetMarket(ctx, key, detail); err != nil {
			log.Printf("Failed to cache market %s: %v", city, err)
		}
	}
	return detail, nil
}

// GetSubmarkets returns a market's submarkets ordered by name.
func (r *Repository) GetSubmarkets(ctx context.Context, city string) ([]models.Submarket, error) {
	market, err := r.findMarket(ctx, city)
	if err != nil {
		return nil, err
	}

	submarkets := []models.Submarket{}
	err = r.db.WithContext(ctx).
		Where("market_id = ?", market.ID).
		Order("name ASC").
		Find(&submarkets).Error
	if err != nil {
		return nil, fmt.Errorf("get submarkets: %w", err)
	}
	return submarkets, nil
}

func (r *Repository) findMarket(ctx context.Context, city string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).
		Where("LOWER(city) = LOWER(?)", city).
		Order("state ASC").
		First(&market).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Missing(fmt.Sprintf("Market not found: %s", city))
	}
	if err != nil {
		return nil, fmt.Errorf("get market: %w", err)
	}
	return &market, nil
}

// Ingest upserts each city: the market row by (city, state), historical rows
// by year and submarkets by name. Each city is written in one transaction.
func (r *Repository) Ingest(ctx context.Context, cities []CityData) error {
	for _, data := range cities {
		log.Printf("Processing %s, %s...", data.Market.City, data.Market.State)
		if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return ingestCity(tx, data)
		}); err != nil {
			return fmt.Errorf("ingest %s: %w", data.Market.City, err)
		}
		log.Printf("  %d historical records, %d submarkets", len(data.Historical), len(data.Submarkets))
	}

	if r.cache != nil {
		if err := r.cache.InvalidateMarkets(ctx); err != nil {
			log.Printf("Failed to invalidate market cache: %v", err)
		}
	}
	return nil
}

func ingestCity(tx *gorm.DB, data CityData) error {
	incoming := data.Market
	if incoming.City == "" || incoming.State == "" {
		return apperror.Invalid("market city and state are required")
	}

	var market models.Market
	err := tx.Where("LOWER(city) = LOWER(?) AND LOWER(state) = LOWER(?)", incoming.City, incoming.State).
		First(&market).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		market = incoming
		market.ID = ""
		if err := tx.Create(&market).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		incoming.ID = market.ID
		market = incoming
		if err := tx.Save(&market).Error; err != nil {
			return err
		}
	}

	for _, h := range data.Historical {
		h.ID = ""
		h.MarketID = market.ID
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "market_id"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{"population", "median_income", "median_home_value", "median_rent"}),
		}).Create(&h).Error
		if err != nil {
			return err
		}
	}

	for _, s := range data.Submarkets {
		s.ID = ""
		s.MarketID = market.ID
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "market_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"zip_code", "vacancy_rate", "poverty_level", "median_rent", "unemployment_rate",
				"median_income", "renter_occupied_pct", "yoy_rent_growth", "population_density",
				"median_age", "avg_household_size", "walk_score", "school_rating", "updated_at",
			}),
		}).Create(&s).Error
		if err != nil {
			return err
		}
	}
	return nil
}
