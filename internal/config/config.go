// Package config loads the API configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	GinMode  string `mapstructure:"GIN_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// DBDriver selects the gorm dialector: postgres or mysql.
	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`

	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	// JWTSecret verifies HS256 bearer tokens issued by the hosted auth provider.
	JWTSecret string `mapstructure:"JWT_SECRET"`

	OpenAIAPIKey         string        `mapstructure:"OPENAI_API_KEY"`
	AIChatModel          string        `mapstructure:"AI_CHAT_MODEL"`
	AIRateLimitPerMinute int           `mapstructure:"AI_RATE_LIMIT_PER_MINUTE"`
	AIRequestTimeout     time.Duration `mapstructure:"AI_REQUEST_TIMEOUT"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePriceArmoured string `mapstructure:"STRIPE_PRICE_ARMOURED"`
	StripePriceElite    string `mapstructure:"STRIPE_PRICE_ELITE"`

	SupabaseURL        string `mapstructure:"SUPABASE_URL"`
	SupabaseServiceKey string `mapstructure:"SUPABASE_SERVICE_KEY"`
	StorageBucket      string `mapstructure:"STORAGE_BUCKET"`
	// StorageDir is used for generated assets when no Supabase project is configured.
	StorageDir string `mapstructure:"STORAGE_DIR"`

	// UsageTimezone is the reference clock for monthly usage periods.
	UsageTimezone string `mapstructure:"USAGE_TIMEZONE"`
	// DefaultPlan applies to organizations without a subscription row.
	DefaultPlan string `mapstructure:"DEFAULT_PLAN"`
}

// Load reads .env (if present) and the environment. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "nexus")
	v.SetDefault("DB_PASSWORD", "nexus")
	v.SetDefault("DB_NAME", "armour_nexus")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SESSION_SECRET", "default-secret-key-change-me")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("AI_CHAT_MODEL", "gpt-4")
	v.SetDefault("AI_RATE_LIMIT_PER_MINUTE", 20)
	v.SetDefault("AI_REQUEST_TIMEOUT", "90s")
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("STRIPE_PRICE_ARMOURED", "")
	v.SetDefault("STRIPE_PRICE_ELITE", "")
	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_SERVICE_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "assets")
	v.SetDefault("STORAGE_DIR", "./data/assets")
	v.SetDefault("USAGE_TIMEZONE", "UTC")
	v.SetDefault("DEFAULT_PLAN", "free")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("config: DB_DRIVER must be postgres or mysql, got %q", c.DBDriver)
	}
	if c.GinMode == "release" && c.SessionSecret == "default-secret-key-change-me" {
		return errors.New("config: SESSION_SECRET must be changed when GIN_MODE=release")
	}
	if c.AIRateLimitPerMinute < 0 {
		return errors.New("config: AI_RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.AIRequestTimeout <= 0 {
		return errors.New("config: AI_REQUEST_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.UsageTimezone); err != nil {
		return fmt.Errorf("config: USAGE_TIMEZONE is invalid: %w", err)
	}
	switch c.DefaultPlan {
	case "free", "armoured", "armoured_elite":
	default:
		return fmt.Errorf("config: DEFAULT_PLAN must be free, armoured or armoured_elite, got %q", c.DefaultPlan)
	}
	return nil
}

// IsProduction reports whether the server runs in gin release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// UsageLocation returns the location usage periods are computed in. Falls back to UTC.
func (c *Config) UsageLocation() *time.Location {
	loc, err := time.LoadLocation(c.UsageTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StripePriceID maps a paid plan name to the configured Stripe price.
func (c *Config) StripePriceID(plan string) string {
	switch plan {
	case "armoured":
		return c.StripePriceArmoured
	case "armoured_elite":
		return c.StripePriceElite
	default:
		return ""
	}
}
