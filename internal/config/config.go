package config

import (
	"os"
	"strconv"
)

// Config holds all service configuration loaded from environment variables.
// Empty connection strings mean the corresponding backend is not configured
// and the in-memory development store is used instead.
type Config struct {
	Port        string
	PostgresDSN string
	MongoURI    string
	MongoDB     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	// Heuristic constants for the stats endpoint. Placeholders, not
	// physical truths, so they stay configurable.
	SavingsPerItem  float64
	CarbonPerItemKg float64
}

func Load() *Config {
	return &Config{
		Port:            getenv("PORT", "8080"),
		PostgresDSN:     getenv("POSTGRES_DSN", ""),
		MongoURI:        getenv("MONGO_URI", ""),
		MongoDB:         getenv("MONGO_DB", "happyshelf"),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		RedisPassword:   getenv("REDIS_PASSWORD", ""),
		JWTSecret:       getenv("JWT_SECRET", "dev-secret"),
		SavingsPerItem:  getenvFloat("SAVINGS_PER_ITEM", 5),
		CarbonPerItemKg: getenvFloat("CARBON_PER_ITEM_KG", 0.5),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
