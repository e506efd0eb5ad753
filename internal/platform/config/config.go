// Package config loads application configuration from an optional config
// file, an optional .env file and environment variables.
// All variables use the KOOKMATH_ prefix, e.g. KOOKMATH_STORAGE_DRIVER.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Share    ShareConfig    `mapstructure:"share"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// StorageConfig selects where the catalog document lives.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	Path       string `mapstructure:"path"`        // file driver
	SQLitePath string `mapstructure:"sqlite_path"` // sqlite driver
	Document   string `mapstructure:"document"`    // row name for database drivers
	Watch      bool   `mapstructure:"watch"`       // reload on file change (file driver)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// CacheConfig holds Redis settings. An empty URL disables the cache.
type CacheConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// ShareConfig holds deep-link settings.
type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// AdminConfig controls whether editing is available.
type AdminConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"server.port":         8080,
	"server.host":         "0.0.0.0",
	"storage.driver":      DriverFile,
	"storage.path":        "data/books.json",
	"storage.sqlite_path": "data/kookmath.db",
	"storage.document":    "default",
	"storage.watch":       true,
	"database.url":        "",
	"database.max_conns":  5,
	"database.min_conns":  1,
	"cache.url":           "",
	"cache.ttl":           5 * time.Minute,
	"share.base_url":      "https://kug0115-cpu.github.io/kookmath/",
	"admin.enabled":       false,
	"log.level":           "info",
	"log.format":          "json",
}

// Load reads configuration from .env (if present) and KOOKMATH_ environment
// variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an additional config file. An empty path looks for
// kookmath.yaml in the working directory and ignores it if absent.
func LoadFile(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("KOOKMATH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("kookmath")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("KOOKMATH_STORAGE_PATH is required for the file driver")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("KOOKMATH_STORAGE_SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("KOOKMATH_DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("KOOKMATH_STORAGE_DRIVER must be one of file, sqlite, postgres, got %q", c.Storage.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("KOOKMATH_SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.Share.BaseURL == "" {
		return fmt.Errorf("KOOKMATH_SHARE_BASE_URL is required")
	}
	return nil
}

// UsesCache reports whether the Redis cache is configured.
func (c *Config) UsesCache() bool {
	return c.Cache.URL != ""
}
