package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"deediq/internal/database"
	"deediq/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "deediq.db")
	t.Setenv("DATABASE_URL", dbURL)
	t.Setenv("REDIS_HOST", "")
	t.Setenv("NATS_HOST", "")
	return dbURL
}

func openDB(t *testing.T, url string) *gorm.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Options{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func TestSeedLoadsCategoriesAndMarkets(t *testing.T) {
	url := setupEnv(t)

	_, err := run(t, "seed")
	require.NoError(t, err)
	// Seeding twice is a no-op for categories and an upsert for markets.
	_, err = run(t, "seed")
	require.NoError(t, err)

	db := openDB(t, url)
	var categories, markets int64
	require.NoError(t, db.Model(&models.ForumCategory{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.Market{}).Count(&markets).Error)
	assert.Equal(t, int64(len(database.DefaultCategories)), categories)
	assert.Equal(t, int64(3), markets)
}

func TestSeedSkipMarkets(t *testing.T) {
	url := setupEnv(t)

	_, err := run(t, "seed", "--skip-markets")
	require.NoError(t, err)

	db := openDB(t, url)
	var markets int64
	require.NoError(t, db.Model(&models.Market{}).Count(&markets).Error)
	assert.Zero(t, markets)
}

func TestLockThread(t *testing.T) {
	url := setupEnv(t)
	_, err := run(t, "seed", "--skip-markets")
	require.NoError(t, err)

	db := openDB(t, url)
	var category models.ForumCategory
	require.NoError(t, db.First(&category).Error)
	user := models.User{Username: "mod", Email: "mod@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	thread := models.Thread{CategoryID: category.ID, UserID: user.ID, Title: "Rules of the forum"}
	require.NoError(t, db.Create(&thread).Error)
	require.NoError(t, database.Close(db))

	_, err = run(t, "lock-thread", thread.ID, "--pin")
	require.NoError(t, err)

	db = openDB(t, url)
	var got models.Thread
	require.NoError(t, db.First(&got, "id = ?", thread.ID).Error)
	assert.True(t, got.IsLocked)
	assert.True(t, got.IsPinned)
	require.NoError(t, database.Close(db))

	_, err = run(t, "lock-thread", thread.ID, "--unlock")
	require.NoError(t, err)

	db = openDB(t, url)
	require.NoError(t, db.First(&got, "id = ?", thread.ID).Error)
	assert.False(t, got.IsLocked)
	assert.True(t, got.IsPinned)
}

func TestLockThreadUnknownID(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)

	_, err = run(t, "lock-thread", "00000000-0000-0000-0000-000000000000")
	assert.EqualError(t, err, "Thread not found")
}

func TestServeRequiresSecret(t *testing.T) {
	setupEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "serve")
	assert.EqualError(t, err, "JWT_SECRET must be set")
}
