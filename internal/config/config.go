package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	API      APIConfig
	Dispatch DispatchConfig
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the Redis connection used for the run lease
type RedisConfig struct {
	URL string
}

// ProviderConfig holds the messaging-provider API configuration
type ProviderConfig struct {
	BaseURL string
	APIKey  string
}

// APIConfig holds API server configuration
type APIConfig struct {
	Port int
}

// DispatchConfig holds dispatch engine tuning
type DispatchConfig struct {
	BatchLimit        int
	MessagesPerSecond int
	SendTimeout       time.Duration
	StaleClaimAfter   time.Duration
	LeaseTTL          time.Duration
	CronSpec          string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	apiPort, err := strconv.Atoi(getEnv("API_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_PORT: %w", err)
	}

	batchLimit, err := strconv.Atoi(getEnv("DISPATCH_BATCH_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_BATCH_LIMIT: %w", err)
	}

	messagesPerSecond, err := strconv.Atoi(getEnv("DISPATCH_MESSAGES_PER_SECOND", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_MESSAGES_PER_SECOND: %w", err)
	}

	sendTimeout, err := time.ParseDuration(getEnv("DISPATCH_SEND_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_SEND_TIMEOUT: %w", err)
	}

	staleClaimAfter, err := time.ParseDuration(getEnv("DISPATCH_STALE_CLAIM_AFTER", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_STALE_CLAIM_AFTER: %w", err)
	}

	leaseTTL, err := time.ParseDuration(getEnv("DISPATCH_LEASE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_LEASE_TTL: %w", err)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "campaign_dispatch"),
			Password: getEnv("DB_PASSWORD", "campaign_dispatch"),
			DBName:   getEnv("DB_NAME", "campaign_dispatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", ""),
			APIKey:  getEnv("PROVIDER_API_KEY", ""),
		},
		API: APIConfig{
			Port: apiPort,
		},
		Dispatch: DispatchConfig{
			BatchLimit:        batchLimit,
			MessagesPerSecond: messagesPerSecond,
			SendTimeout:       sendTimeout,
			StaleClaimAfter:   staleClaimAfter,
			LeaseTTL:          leaseTTL,
			CronSpec:          getEnv("DISPATCH_CRON", "@every 1m"),
		},
	}, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
