package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// UnmarshalText parses values such as "10/min".
func (r *RateLimitConfig) UnmarshalText(text []byte) error {
	parsed, err := parseRateLimit(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Config aggregates application-wide configuration values.
type Config struct {
	StoreDriver         string          `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL         string          `env:"DATABASE_URL"`
	DatabaseMaxConns    int32           `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	SQLitePath          string          `env:"SQLITE_PATH" envDefault:"proposal-tracker.db"`
	RedisURL            string          `env:"REDIS_URL"`
	RedisChannel        string          `env:"REDIS_CHANNEL" envDefault:"proposal-tracker:actor-events"`
	JWTSecret           string          `env:"JWT_SECRET" envDefault:"dev-secret"`
	TokenTTL            time.Duration   `env:"JWT_TTL" envDefault:"24h"`
	Port                string          `env:"PORT" envDefault:"8080"`
	LogLevel            string          `env:"LOG_LEVEL" envDefault:"info"`
	RateLimitAuth       RateLimitConfig `env:"RATE_LIMIT_AUTH" envDefault:"10/min"`
	MessageTemplatePath string          `env:"MESSAGE_TEMPLATE_PATH"`
	ProfileCacheTTL     time.Duration   `env:"PROFILE_CACHE_TTL" envDefault:"1m"`
	AutoMigrate         bool            `env:"AUTO_MIGRATE" envDefault:"false"`
	DefaultPageSize     int             `env:"DEFAULT_PAGE_SIZE" envDefault:"50"`
	ShutdownTimeout     time.Duration   `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables, after a local .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MigrationDSN returns the location migrations run against for the configured store.
func (c *Config) MigrationDSN() string {
	if c.StoreDriver == StoreSQLite {
		return c.SQLitePath
	}
	return c.DatabaseURL
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	return nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}
