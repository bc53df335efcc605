package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	History   HistoryConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig selects the product store
type CatalogConfig struct {
	Driver     string `mapstructure:"driver"` // "memory" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
	Seed       bool   `mapstructure:"seed"`
}

// HistoryConfig holds price history storage configuration
type HistoryConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "lru"
	TTL  time.Duration `mapstructure:"ttl"`
	Size int           `mapstructure:"size"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/poundsaver/")

	// Environment variable settings
	v.SetEnvPrefix("POUNDSAVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the environment. Variables that are already
// set win, and a missing file is not an error.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Catalog defaults
	v.SetDefault("catalog.driver", "memory")
	v.SetDefault("catalog.sqlite_path", "data/catalog.db")
	v.SetDefault("catalog.seed", true)

	// History defaults
	v.SetDefault("history.sqlite_path", ":memory:")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.size", 1024)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 20)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Driver {
	case "memory":
	case "sqlite":
		if config.Catalog.SQLitePath == "" {
			return fmt.Errorf("catalog sqlite path is required when driver is 'sqlite' (set POUNDSAVER_CATALOG_SQLITE_PATH)")
		}
	default:
		return fmt.Errorf("catalog driver must be 'memory' or 'sqlite', got: %s", config.Catalog.Driver)
	}

	if config.History.SQLitePath == "" {
		return fmt.Errorf("history sqlite path is required (set POUNDSAVER_HISTORY_SQLITE_PATH)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "lru" {
		return fmt.Errorf("cache type must be 'memory' or 'lru', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "lru" && config.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive when cache type is 'lru', got: %d", config.Cache.Size)
	}

	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got: %v", config.Cache.TTL)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
