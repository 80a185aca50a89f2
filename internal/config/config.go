package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string // "development" or "production"

	// Content settings
	ContentDir string // Root of the markdown content tree (articles/, projects/)

	// Storage settings
	StorageBackend string // "file" or "sqlite"
	DataDir        string // Directory for JSON data files (file backend)
	DatabasePath   string // SQLite database path (sqlite backend)

	// Visitor registry policy
	MaxVisitors     int           // Retention ceiling for stored visitor records
	MaxFeedback     int           // Retention ceiling for stored feedback entries
	RateLimitWindow time.Duration // Cooldown between visits under the same name
}

// Storage backend identifiers accepted in STORAGE_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Load loads configuration from environment variables with defaults
func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		ContentDir: getEnv("CONTENT_DIR", "content"),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendFile),
		DataDir:        dataDir,
		DatabasePath:   getEnv("DATABASE_PATH", filepath.Join(dataDir, "graysky.db")),

		MaxVisitors:     getIntEnv("MAX_VISITORS", 1000),
		MaxFeedback:     getIntEnv("MAX_FEEDBACK", 1000),
		RateLimitWindow: time.Duration(getIntEnv("RATE_LIMIT_WINDOW_MINUTES", 60)) * time.Minute,
	}

	// Anything unrecognized falls back to the file backend so a typo can't
	// leave the server without persistence.
	if cfg.StorageBackend != BackendFile && cfg.StorageBackend != BackendSQLite {
		cfg.StorageBackend = BackendFile
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
