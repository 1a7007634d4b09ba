package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid"`
	Username     string     `json:"username" gorm:"not null;uniqueIndex"`
	Email        string     `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Name         string     `json:"name"`
	Bio          string     `json:"bio"`
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// SavedProperty is a snapshot of one calculator scenario. Rows are never
// updated after insert.
type SavedProperty struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID             string    `json:"user_id" gorm:"type:uuid;not null;index"`
	Address            string    `json:"address" gorm:"not null"`
	MaxPurchasePrice   float64   `json:"max_purchase_price"`
	PurchasePrice      float64   `json:"purchase_price"`
	DownPaymentPercent float64   `json:"down_payment_percent"`
	InterestRate       float64   `json:"interest_rate"`
	LoanTerm           int       `json:"loan_term"`
	MonthlyRent        float64   `json:"monthly_rent"`
	PropertyTax        float64   `json:"property_tax"`
	Insurance          float64   `json:"insurance"`
	HOA                float64   `json:"hoa"`
	Maintenance        float64   `json:"maintenance"`
	Capex              float64   `json:"capex"`
	VacancyRate        float64   `json:"vacancy_rate"`
	MonthlyPayment     float64   `json:"monthly_payment"`
	MonthlyNOI         float64   `json:"monthly_noi"`
	CashOnCashReturn   float64   `json:"cash_on_cash_return"`
	CapRate            float64   `json:"cap_rate"`
	TotalCashNeeded    float64   `json:"total_cash_needed"`
	IRR                float64   `json:"irr"`
	CreatedAt          time.Time `json:"created_at"`
}

func (SavedProperty) TableName() string { return "saved_properties" }

func (p *SavedProperty) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
