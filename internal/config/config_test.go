package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/tsukimi/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "data/tsukimi.db", cfg.DBPath)
	assert.Equal(t, "Local", cfg.Timezone)
	assert.Equal(t, "tsukimi", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(1024*1024), cfg.MaxRequestBodyBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TSUKIMI_PORT", "9999")
	t.Setenv("TSUKIMI_READ_TIMEOUT", "5s")
	t.Setenv("TSUKIMI_TIMEZONE", "Asia/Tokyo")
	t.Setenv("TSUKIMI_DB_PATH", "/tmp/test.db")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("TSUKIMI_PORT", "not-a-number")
	t.Setenv("TSUKIMI_READ_TIMEOUT", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		Port:                8080,
		DBPath:              "data/t.db",
		Timezone:            "UTC",
		MaxRequestBodyBytes: 1024,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port zero", func(c *config.Config) { c.Port = 0 }},
		{"port out of range", func(c *config.Config) { c.Port = 70000 }},
		{"empty db path", func(c *config.Config) { c.DBPath = "" }},
		{"non-positive body cap", func(c *config.Config) { c.MaxRequestBodyBytes = 0 }},
		{"unknown timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
