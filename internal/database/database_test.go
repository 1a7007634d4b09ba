package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"deediq/internal/models"
)

func TestMigrateAndSeedSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Options{URL: "sqlite://:memory:"})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, SeedCategories(ctx, db))
	// Seeding twice must not duplicate categories.
	require.NoError(t, SeedCategories(ctx, db))

	var count int64
	require.NoError(t, db.Model(&models.ForumCategory{}).Count(&count).Error)
	assert.Equal(t, int64(len(DefaultCategories)), count)

	var first models.ForumCategory
	require.NoError(t, db.Order("display_order ASC").First(&first).Error)
	assert.Equal(t, "Market Discussion", first.Name)
	assert.NotEmpty(t, first.ID)
}

func TestPostLikeUniqueIndexTranslatesToDuplicate(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Options{URL: "sqlite://:memory:"})
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, Migrate(ctx, db))

	require.NoError(t, db.Create(&models.PostLike{PostID: "p1", UserID: "u1"}).Error)
	err = db.Create(&models.PostLike{PostID: "p1", UserID: "u1"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
