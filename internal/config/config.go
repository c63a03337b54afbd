package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	InputPath    string
	ArtifactDir  string
	DatabasePath string

	S3Bucket string
	S3Region string

	EnrichmentEnabled bool
	QuoteBaseURL      string
	GeminiAPIKey      string
	GeminiModel       string
	EnrichWorkers     int
	EnrichRateLimit   int
	EnrichTimeoutSecs int
	EnrichThreshold   float64

	// Schedule is a cron expression; empty means run once and exit.
	Schedule string
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		InputPath:         getEnv("INPUT_PATH", "./data/holdings.json"),
		ArtifactDir:       getEnv("ARTIFACT_DIR", "./data/artifacts"),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/folio.db"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Region:          getEnv("S3_REGION", ""),
		EnrichmentEnabled: getEnvAsBool("ENRICHMENT_ENABLED", true),
		QuoteBaseURL:      getEnv("QUOTE_BASE_URL", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", ""),
		EnrichWorkers:     getEnvAsInt("ENRICH_WORKERS", 4),
		EnrichRateLimit:   getEnvAsInt("ENRICH_RATE_LIMIT", 5),
		EnrichTimeoutSecs: getEnvAsInt("ENRICH_TIMEOUT_SECS", 10),
		EnrichThreshold:   getEnvAsFloat("ENRICH_THRESHOLD", 0.5),
		Schedule:          getEnv("SCHEDULE", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("INPUT_PATH is required")
	}
	if c.ArtifactDir == "" {
		return fmt.Errorf("ARTIFACT_DIR is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.EnrichThreshold < 0 || c.EnrichThreshold > 1 {
		return fmt.Errorf("ENRICH_THRESHOLD must be between 0 and 1")
	}

	// Note: Gemini key optional; without it enrichment runs quote-only

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
