// Package config loads and validates application configuration from
// environment variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverCSV      = "csv"
	DriverPostgres = "postgres"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreDriver selects where the trip and people caches live:
	// "csv" (default) or "postgres".
	StoreDriver string

	// DatabaseURL is the Postgres connection string. Required when
	// StoreDriver is "postgres", ignored otherwise.
	DatabaseURL string

	// PeopleCachePath and TripCachePath locate the CSV caches.
	PeopleCachePath string
	TripCachePath   string

	// BackupSchedule is a standard 5-field cron expression for copying the
	// cache files into BackupDir. Empty disables backups.
	BackupSchedule string
	BackupDir      string

	// MaxBodyBytes caps request bodies, CSV uploads included. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from the environment and returns a Config.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
// Returns an error naming every variable that is missing or invalid.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: read .env: %w", err)
	}

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", DriverCSV)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		PeopleCachePath: getEnv("PEOPLE_CACHE_PATH", "people_cache.csv"),
		TripCachePath:   getEnv("TRIP_CACHE_PATH", "cache.csv"),
		BackupSchedule:  strings.TrimSpace(os.Getenv("BACKUP_SCHEDULE")),
		BackupDir:       getEnv("BACKUP_DIR", "backup"),
	}

	var problems []string

	switch cfg.StoreDriver {
	case DriverCSV:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL (required when STORE_DRIVER=postgres)")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER (unknown driver %q)", cfg.StoreDriver))
	}

	if cfg.BackupSchedule != "" {
		if _, err := cron.ParseStandard(cfg.BackupSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("BACKUP_SCHEDULE (%v)", err))
		}
	}

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || maxBody <= 0 {
		problems = append(problems, "MAX_BODY_BYTES (must be a positive integer)")
	}
	cfg.MaxBodyBytes = maxBody

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(problems, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
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
