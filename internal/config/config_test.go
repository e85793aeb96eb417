package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "gpt-4", cfg.AIChatModel)
	assert.Equal(t, 20, cfg.AIRateLimitPerMinute)
	assert.Equal(t, "assets", cfg.StorageBucket)
	assert.Equal(t, time.UTC, cfg.UsageLocation())
	assert.Equal(t, 90*time.Second, cfg.AIRequestTimeout)
	assert.Equal(t, "free", cfg.DefaultPlan)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("STRIPE_PRICE_ARMOURED", "price_a")
	t.Setenv("STRIPE_PRICE_ELITE", "price_e")
	t.Setenv("USAGE_TIMEZONE", "Europe/London")
	t.Setenv("AI_REQUEST_TIMEOUT", "2m")
	t.Setenv("DEFAULT_PLAN", "armoured")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "price_a", cfg.StripePriceID("armoured"))
	assert.Equal(t, "price_e", cfg.StripePriceID("armoured_elite"))
	assert.Empty(t, cfg.StripePriceID("free"))
	assert.Equal(t, "Europe/London", cfg.UsageLocation().String())
	assert.Equal(t, 2*time.Minute, cfg.AIRequestTimeout)
	assert.Equal(t, "armoured", cfg.DefaultPlan)
}

func TestValidate(t *testing.T) {
	valid := Config{
		HTTPAddr:         ":8080",
		DBDriver:         "postgres",
		UsageTimezone:    "UTC",
		SessionSecret:    "s",
		AIRequestTimeout: time.Minute,
		DefaultPlan:      "free",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing addr", func(c *Config) { c.HTTPAddr = "" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }},
		{"default secret in release", func(c *Config) {
			c.GinMode = "release"
			c.SessionSecret = "default-secret-key-change-me"
		}},
		{"negative rate", func(c *Config) { c.AIRateLimitPerMinute = -1 }},
		{"bad timezone", func(c *Config) { c.UsageTimezone = "Mars/Olympus" }},
		{"zero ai timeout", func(c *Config) { c.AIRequestTimeout = 0 }},
		{"unknown default plan", func(c *Config) { c.DefaultPlan = "platinum" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
