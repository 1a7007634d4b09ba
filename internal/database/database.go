package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"deediq/internal/models"
)

const sqlitePrefix = "sqlite://"

type Options struct {
	// URL is a postgres URL or key=value DSN, or sqlite://<path>.
	URL      string
	MaxConns int32
	LogLevel logger.LogLevel
}

// Open connects to the store named by opts.URL. TranslateError is on so
// unique violations surface as gorm.ErrDuplicatedKey on both dialects.
func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(opts.LogLevel),
		TranslateError: true,
	}

	if strings.HasPrefix(opts.URL, sqlitePrefix) {
		return OpenSQLite(strings.TrimPrefix(opts.URL, sqlitePrefix), cfg)
	}
	return openPostgres(ctx, opts, cfg)
}

func openPostgres(ctx context.Context, opts Options, cfg *gorm.Config) (*gorm.DB, error) {
	poolCfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	poolCfg.ConnConfig.StatementCacheCapacity = 256

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a sqlite database at path (":memory:" for tests). The
// pool is pinned to one connection: sqlite has a single writer, and an
// in-memory database exists only on the connection that created it.
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates or updates every table and the composite read indexes.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_forum_posts_thread_created ON forum_posts(thread_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_forum_threads_category_order ON forum_threads(category_id, is_pinned, updated_at)",
		"CREATE INDEX IF NOT EXISTS idx_saved_properties_user_created ON saved_properties(user_id, created_at)",
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	log.Println("Database migrated successfully")
	return nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
