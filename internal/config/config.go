package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	DatabaseURL    string // empty runs on the in-memory store
	DBMaxConns     int
	RedisURL       string
	JWTSecret      string
	Environment    string
	AdminUserIDs   []string

	SeasonYear       int
	ScheduleBaseURL  string
	ScheduleCacheTTL time.Duration
	ScheduleTimeout  time.Duration
	ReconcileCron    string
	ReconcileEnabled bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBMaxConns:     getIntEnv("DB_MAX_CONNS", 10),
		RedisURL:       getEnv("REDIS_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		Environment:    getEnv("ENVIRONMENT", "production"),
		AdminUserIDs:   parseList(getEnv("ADMIN_USER_IDS", "")),

		SeasonYear:       getIntEnv("SEASON_YEAR", defaultSeason(time.Now())),
		ScheduleBaseURL:  getEnv("SCHEDULE_BASE_URL", ""),
		ScheduleCacheTTL: getDurationEnv("SCHEDULE_CACHE_TTL", 2*time.Minute),
		ScheduleTimeout:  getDurationEnv("SCHEDULE_TIMEOUT", 5*time.Second),
		ReconcileCron:    getEnv("RECONCILE_CRON", "*/5 * * * *"),
		ReconcileEnabled: getBoolEnv("RECONCILE_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" && c.Environment == "production" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.SeasonYear < 2000 || c.SeasonYear > 2100 {
		return fmt.Errorf("SEASON_YEAR %d is out of range", c.SeasonYear)
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}
	if c.ScheduleCacheTTL <= 0 || c.ScheduleTimeout <= 0 {
		return fmt.Errorf("schedule cache TTL and timeout must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// defaultSeason is the NFL season in progress at now. January and February games belong to
// the previous year's season.
func defaultSeason(now time.Time) int {
	if now.Month() < time.March {
		return now.Year() - 1
	}
	return now.Year()
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseList parses comma-separated values into a slice
func parseList(values string) []string {
	if values == "" {
		return []string{}
	}

	parts := strings.Split(values, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
