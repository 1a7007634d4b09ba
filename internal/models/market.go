package models

import (
	"time"

	"gorm.io/gorm"
)

type Market struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid"`
	City            string    `json:"city" gorm:"not null;uniqueIndex:idx_markets_city_state"`
	State           string    `json:"state" gorm:"not null;uniqueIndex:idx_markets_city_state"`
	Population      int64     `json:"population"`
	MedianIncome    float64   `json:"median_income"`
	MedianHomeValue float64   `json:"median_home_value"`
	MedianRent      float64   `json:"median_rent"`
	PropertyTaxRate float64   `json:"property_tax_rate"`
	VacancyRate     float64   `json:"vacancy_rate"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (m *Market) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type HistoricalRecord struct {
	ID              string  `json:"-" gorm:"primaryKey;type:uuid"`
	MarketID        string  `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_historical_market_year"`
	Year            int     `json:"year" gorm:"not null;uniqueIndex:idx_historical_market_year"`
	Population      int64   `json:"population"`
	MedianIncome    float64 `json:"median_income"`
	MedianHomeValue float64 `json:"median_home_value"`
	MedianRent      float64 `json:"median_rent"`
}

func (HistoricalRecord) TableName() string { return "historical_data" }

func (h *HistoricalRecord) BeforeCreate(tx *gorm.DB) error {
	assignID(&h.ID)
	return nil
}

type Submarket struct {
	ID                string    `json:"-" gorm:"primaryKey;type:uuid"`
	MarketID          string    `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_submarkets_market_name"`
	Name              string    `json:"name" gorm:"not null;uniqueIndex:idx_submarkets_market_name"`
	ZipCode           string    `json:"zip_code"`
	VacancyRate       float64   `json:"vacancy_rate"`
	PovertyLevel      float64   `json:"poverty_level"`
	MedianRent        float64   `json:"median_rent"`
	UnemploymentRate  float64   `json:"unemployment_rate"`
	MedianIncome      float64   `json:"median_income"`
	RenterOccupiedPct float64   `json:"renter_occupied_pct"`
	YoYRentGrowth     float64   `json:"yoy_rent_growth" gorm:"column:yoy_rent_growth"`
	PopulationDensity float64   `json:"population_density"`
	MedianAge         float64   `json:"median_age"`
	AvgHouseholdSize  float64   `json:"avg_household_size"`
	WalkScore         int       `json:"walk_score"`
	SchoolRating      float64   `json:"school_rating"`
	UpdatedAt         time.Time `json:"-"`
}

func (s *Submarket) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type MarketSummary struct {
	ID    string `json:"id"`
	City  string `json:"city"`
	State string `json:"state"`
}

// MarketDetail is the read model for a single market. It is also the value
// stored in the market cache.
type MarketDetail struct {
	Market           Market             `json:"market"`
	RentToValueRatio float64            `json:"rent_to_value_ratio"`
	Historical       []HistoricalRecord `json:"historical"`
}
