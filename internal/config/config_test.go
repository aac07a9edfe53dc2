package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "abc")
	t.Setenv("TEST_DURATION", "1h30m")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_LIST", " 111, ,222 ,")
	os.Unsetenv("TEST_MISSING")

	assert.Equal(t, "value", GetEnv("TEST_STR", "default"))
	assert.Equal(t, "default", GetEnv("TEST_MISSING", "default"))
	assert.Equal(t, 42, GetEnvInt("TEST_INT", 0))
	assert.Equal(t, 7, GetEnvInt("TEST_INT_INVALID", 7))
	assert.Equal(t, 90*time.Minute, GetEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("TEST_MISSING", time.Second))
	assert.True(t, GetEnvBool("TEST_BOOL", false))
	assert.Equal(t, []string{"111", "222"}, GetEnvList("TEST_LIST"))
	assert.Empty(t, GetEnvList("TEST_MISSING"))
}

func TestLoadFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DATABASE_PATH", "MATCH_SPACING", "ROUND_SPACING", "OVERLAY_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg := LoadFromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "esport_cup.db", cfg.DatabasePath)
	assert.Equal(t, time.Hour, cfg.Bracket.MatchSpacing)
	assert.Equal(t, 24*time.Hour, cfg.Bracket.RoundSpacing)
	assert.Equal(t, []string{"*"}, cfg.OverlayAllowedOrigins)
	assert.True(t, cfg.Logger.IsProduction())
	assert.False(t, cfg.Discord.Enabled())
}

func TestLoadFromEnvCustomValues(t *testing.T) {
	t.Setenv("STAFF_DISCORD_IDS", "1,2")
	t.Setenv("MATCH_SPACING", "30m")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DISCORD_KEY", "key")
	t.Setenv("DISCORD_SECRET", "secret")

	cfg := LoadFromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"1", "2"}, cfg.StaffDiscordIDs)
	assert.Equal(t, 30*time.Minute, cfg.Bracket.MatchSpacing)
	assert.False(t, cfg.Logger.IsProduction())
	assert.True(t, cfg.Discord.Enabled())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database path", func(c *Config) { c.DatabasePath = "" }},
		{"zero session lifetime", func(c *Config) { c.SessionLifetime = 0 }},
		{"negative spacing", func(c *Config) { c.Bracket.RoundSpacing = -time.Hour }},
		{"zero scheduler interval", func(c *Config) { c.SchedulerInterval = 0 }},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				DatabasePath:      "test.db",
				SessionLifetime:   time.Hour,
				SchedulerInterval: time.Minute,
				Logger:            LoggerConfig{Level: "info", Format: "json"},
			}
			require.NoError(t, cfg.Validate())

			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
