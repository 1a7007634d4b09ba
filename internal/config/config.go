package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

type Config struct {
	DatabaseURL string
	DBMaxConns  int32
	DBLogLevel  logger.LogLevel

	// Empty RedisAddr or NatsURL disables the market cache or forum events.
	RedisAddr     string
	RedisPassword string
	NatsURL       string

	JWTSecret string
	HTTPPort  string
	GRPCPort  string

	GeminiAPIKey string
	GeminiModel  string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return FromEnv()
}

func FromEnv() Config {
	cfg := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    int32(envInt("DB_MAX_CONNS", 25)),
		DBLogLevel:    logLevel(os.Getenv("DB_LOG_LEVEL")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		HTTPPort:      envOr("PORT", "3000"),
		GRPCPort:      envOr("GRPC_PORT", "7001"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOr("GEMINI_MODEL", "gemini-pro"),
	}

	if cfg.DatabaseURL == "" && os.Getenv("DB_HOST") != "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			envOr("DB_PORT", "5432"),
		)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "sqlite://deediq.db"
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.RedisAddr = fmt.Sprintf("%s:%s", host, envOr("REDIS_PORT", "6379"))
	}
	if host := os.Getenv("NATS_HOST"); host != "" {
		cfg.NatsURL = fmt.Sprintf("nats://%s:%s", host, envOr("NATS_PORT", "4222"))
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func logLevel(v string) logger.LogLevel {
	switch strings.ToLower(v) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
