package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DB_HOST", "REDIS_HOST", "NATS_HOST", "PORT", "GRPC_PORT", "DB_LOG_LEVEL", "DB_MAX_CONNS"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "sqlite://deediq.db", cfg.DatabaseURL)
	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, "7001", cfg.GRPCPort)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, logger.Warn, cfg.DBLogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.NatsURL)
}

func TestFromEnvBuildsDSNAndAddresses(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "deediq")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "markets")
	t.Setenv("DB_PORT", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("NATS_HOST", "bus")
	t.Setenv("NATS_PORT", "")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("DB_LOG_LEVEL", "INFO")

	cfg := FromEnv()

	assert.Equal(t, "host=db user=deediq password=secret dbname=markets port=5432 sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, "nats://bus:4222", cfg.NatsURL)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, logger.Info, cfg.DBLogLevel)
}
