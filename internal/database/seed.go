package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"deediq/internal/models"
)

// DefaultCategories is the forum's static reference data.
var DefaultCategories = []models.ForumCategory{
	{Name: "Market Discussion", Description: "Talk about specific cities and neighborhoods", Icon: "📈", DisplayOrder: 1},
	{Name: "Investment Strategies", Description: "Buy and hold, BRRRR, flips and everything in between", Icon: "💡", DisplayOrder: 2},
	{Name: "Financing & Mortgages", Description: "Loans, rates and creative financing", Icon: "🏦", DisplayOrder: 3},
	{Name: "Property Management", Description: "Tenants, maintenance and operations", Icon: "🔧", DisplayOrder: 4},
	{Name: "Newbie Corner", Description: "No question is too basic", Icon: "👋", DisplayOrder: 5},
	{Name: "Off Topic", Description: "Everything else", Icon: "💬", DisplayOrder: 6},
}

// SeedCategories inserts any default category missing by name.
func SeedCategories(ctx context.Context, db *gorm.DB) error {
	for _, c := range DefaultCategories {
		c := c
		err := db.WithContext(ctx).
			Where(models.ForumCategory{Name: c.Name}).
			Attrs(models.ForumCategory{Description: c.Description, Icon: c.Icon, DisplayOrder: c.DisplayOrder}).
			FirstOrCreate(&c).Error
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return nil
}
