package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	RunMigrations  bool
	MigrationsPath string
	AllowedHosts   []string

	DB      DatabaseConfig
	Redis   RedisConfig
	Pricing PricingConfig
	Cache   CacheConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// PricingConfig controls the pricing analysis.
type PricingConfig struct {
	// RetailerStore is the store tag of the retailer's own catalog rows.
	RetailerStore string
	// TimeZone decides where calendar days start for date windows.
	TimeZone       string
	Location       *time.Location
	RequestTimeout time.Duration
}

// CacheConfig contains TTL and refresh settings for cached lookups.
type CacheConfig struct {
	FilterOptionsTTL     time.Duration
	FilterOptionsRefresh time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; real environment variables still win.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", false)
	cfg.MigrationsPath = getEnv("MIGRATIONS_PATH", "file://migrations")
	cfg.AllowedHosts = getEnvList("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Enabled:  getEnvBool("REDIS_ENABLED", true),
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Pricing
	cfg.Pricing = PricingConfig{
		RetailerStore: strings.TrimSpace(getEnv("RETAILER_STORE", "MIMBRAL")),
		TimeZone:      getEnv("PRICING_TIMEZONE", "America/Santiago"),
	}
	loc, err := time.LoadLocation(cfg.Pricing.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_TIMEZONE: %w", err)
	}
	cfg.Pricing.Location = loc

	if cfg.Pricing.RequestTimeout, err = parseDurationEnv("PRICING_REQUEST_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid PRICING_REQUEST_TIMEOUT: %w", err)
	}
	if cfg.Cache.FilterOptionsTTL, err = parseDurationEnv("FILTER_OPTIONS_TTL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid FILTER_OPTIONS_TTL: %w", err)
	}
	if cfg.Cache.FilterOptionsRefresh, err = parseDurationEnv("FILTER_OPTIONS_REFRESH_INTERVAL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid FILTER_OPTIONS_REFRESH_INTERVAL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if cfg.Pricing.RetailerStore == "" {
		return nil, errors.New("RETAILER_STORE must not be empty")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key, def string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, def), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
