package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Vendure VendureConfig
	Redis   RedisConfig
	Session SessionConfig
	CORS    CORSConfig
	Catalog CatalogConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

// VendureConfig points the storefront at the commerce backend's shop API.
type VendureConfig struct {
	APIURL      string
	Timeout     time.Duration
	ReadRetries int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret     string
	CookieName string
	Expiry     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CatalogConfig struct {
	FeaturedTake    int
	RefreshSchedule string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Vendure: VendureConfig{
			APIURL:      getEnv("VENDURE_API_URL", "https://stablecommerce.ai/mgmt/shop-api"),
			Timeout:     parseDuration(getEnv("VENDURE_TIMEOUT", "10s"), 10*time.Second),
			ReadRetries: parseInt(getEnv("VENDURE_READ_RETRIES", "2"), 2),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", "your-secret-key"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "storefront_session"),
			Expiry:     parseDuration(getEnv("SESSION_EXPIRY", "720h"), 720*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Catalog: CatalogConfig{
			FeaturedTake:    parseInt(getEnv("CATALOG_FEATURED_TAKE", "12"), 12),
			RefreshSchedule: getEnv("CATALOG_REFRESH_SCHEDULE", "@every 5m"),
		},
	}

	return config, nil
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
