package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string
	Env      string
	RedisURL string

	// AdminPassword seeds the admin account at startup when set.
	AdminPassword string

	// UploadDir is where uploaded files land; served under /uploads/.
	UploadDir string
}

// Load reads configuration from environment variables. In development
// it loads from a .env file if present. In production it panics on a
// missing Redis URL; in development an empty URL yields an unconfigured
// store and the app surfaces that state instead of crashing.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		RedisURL:      os.Getenv("REDIS_URL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
	}

	if cfg.Env == "production" && cfg.RedisURL == "" {
		panic("REDIS_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
