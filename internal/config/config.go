// Package config loads and validates application configuration from environment variables.
// A .env file in the working directory is read first when present; variables already
// set in the environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds all configuration values for the API server and the admin CLI.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:3000"].
	CORSOrigins []string

	// StoreDriver selects the schedule store: postgres (default), sqlite or mongo.
	StoreDriver string

	// DatabaseURL is the Postgres DSN, the SQLite file path or the MongoDB URI,
	// depending on StoreDriver. Required.
	DatabaseURL string

	// MongoDatabase names the database used when StoreDriver is mongo.
	MongoDatabase string

	// BaseURL prefixes share links. When empty the link is derived from the request.
	BaseURL string

	// AdminCleanupKey authorises the admin cleanup and analytics operations. Required.
	AdminCleanupKey string

	// CleanupInterval is the period of the background expired-schedule sweep.
	// Zero disables the sweep.
	CleanupInterval time.Duration

	// ExpiredRetention is how long expired schedules are kept, answering
	// "expired" to viewers, before the sweep removes them.
	ExpiredRetention time.Duration

	// RateLimitPerMinute caps schedule creation and admin requests per client IP.
	// Zero disables rate limiting.
	RateLimitPerMinute int

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
}

// Load reads a .env file if one exists, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables alone.
// Returns an error listing any required variables that are not set and any
// values that could not be parsed.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		MongoDatabase: getEnv("MONGO_DATABASE", "quickavail"),
		BaseURL:       strings.TrimRight(os.Getenv("BASE_URL"), "/"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.AdminCleanupKey = os.Getenv("ADMIN_CLEANUP_KEY")
	if cfg.AdminCleanupKey == "" {
		missing = append(missing, "ADMIN_CLEANUP_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMongo:
	default:
		invalid = append(invalid, "STORE_DRIVER")
	}

	var err error
	if cfg.CleanupInterval, err = parseDuration("CLEANUP_INTERVAL", "1h"); err != nil {
		invalid = append(invalid, "CLEANUP_INTERVAL")
	}
	if cfg.ExpiredRetention, err = parseDuration("EXPIRED_RETENTION", "168h"); err != nil {
		invalid = append(invalid, "EXPIRED_RETENTION")
	}
	if cfg.RateLimitPerMinute, err = strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "30")); err != nil || cfg.RateLimitPerMinute < 0 {
		invalid = append(invalid, "RATE_LIMIT_PER_MINUTE")
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDuration reads a non-negative duration. A bare "0" is accepted.
func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
