// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Storage settings.
	DBPath string // sqlite database file for snapshot persistence.

	// Evaluation settings.
	Timezone string // IANA zone name governing all local-calendar math.

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                envInt("TSUKIMI_PORT", 8080),
		ReadTimeout:         envDuration("TSUKIMI_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        envDuration("TSUKIMI_WRITE_TIMEOUT", 30*time.Second),
		DBPath:              envStr("TSUKIMI_DB_PATH", "data/tsukimi.db"),
		Timezone:            envStr("TSUKIMI_TIMEZONE", "Local"),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:         envStr("OTEL_SERVICE_NAME", "tsukimi"),
		LogLevel:            envStr("TSUKIMI_LOG_LEVEL", "info"),
		MaxRequestBodyBytes: int64(envInt("TSUKIMI_MAX_REQUEST_BODY_BYTES", 1*1024*1024)), // 1 MB default
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and coherent.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: TSUKIMI_PORT must be in 1..65535")
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: TSUKIMI_DB_PATH is required")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: TSUKIMI_MAX_REQUEST_BODY_BYTES must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: TSUKIMI_TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves the configured timezone. Validate has already checked
// that it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
