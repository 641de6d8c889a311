// Package config loads the seafood-terminal configuration: embedded
// defaults, an optional YAML file and environment overrides.
package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Storage backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Environment variables overriding the file.
const (
	EnvAPIURL     = "SEAFOOD_API_URL"
	EnvStore      = "SEAFOOD_STORE"
	EnvRedisURL   = "SEAFOOD_REDIS_URL"
	EnvSQLitePath = "SEAFOOD_SQLITE_PATH"
	EnvLogLevel   = "SEAFOOD_LOG_LEVEL"
	EnvPort       = "PORT"
)

// Dataset configures one dataset pipeline.
type Dataset struct {
	Endpoint     string   `yaml:"endpoint,omitempty"`
	TTL          string   `yaml:"ttl,omitempty"`
	PageSize     int      `yaml:"page_size,omitempty"`
	Auth         *bool    `yaml:"auth,omitempty"`
	Paged        *bool    `yaml:"paged,omitempty"`
	FilterFields []string `yaml:"filter_fields,omitempty"`
}

// TTLDuration returns the parsed TTL, or 0 when unset.
func (d Dataset) TTLDuration() time.Duration {
	ttl, err := time.ParseDuration(d.TTL)
	if err != nil {
		return 0
	}
	return ttl
}

// Authenticated reports whether requests carry the bearer token.
func (d Dataset) Authenticated() bool {
	return d.Auth != nil && *d.Auth
}

// IsPaged reports whether the endpoint is fetched page by page.
func (d Dataset) IsPaged() bool {
	return d.Paged != nil && *d.Paged
}

// Config is the application configuration.
type Config struct {
	APIURL          string             `yaml:"api_url"`
	Store           string             `yaml:"store"`
	RedisURL        string             `yaml:"redis_url"`
	RedisPrefix     string             `yaml:"redis_prefix"`
	SQLitePath      string             `yaml:"sqlite_path,omitempty"`
	Port            string             `yaml:"port"`
	LogLevel        string             `yaml:"log_level"`
	LogPretty       bool               `yaml:"log_pretty"`
	PageSize        int                `yaml:"page_size"`
	RefreshInterval string             `yaml:"refresh_interval"`
	Datasets        map[string]Dataset `yaml:"datasets"`
}

// RefreshDuration returns how often the server checks datasets for
// expiry, defaulting to one minute.
func (c *Config) RefreshDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// DatasetPageSize returns the page size for name, falling back to the
// global page size.
func (c *Config) DatasetPageSize(name string) int {
	if ds, ok := c.Datasets[name]; ok && ds.PageSize > 0 {
		return ds.PageSize
	}
	return c.PageSize
}

// DatasetNames returns the configured dataset names in sorted order.
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SQLiteFile returns the SQLite database path, defaulting to the XDG
// cache directory.
func (c *Config) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return CachePath()
}

// DefaultConfigPath returns the XDG config file location.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "seafood", "config.yaml")
}

// CachePath returns the default SQLite cache location.
func CachePath() string {
	return filepath.Join(xdg.CacheHome, "seafood", "cache.db")
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads path over the embedded defaults and applies environment
// overrides. An empty path means DefaultConfigPath; a missing file is not
// an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.merge(&file)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaults writes the embedded defaults to path unless it exists.
func WriteDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return fmt.Errorf("read embedded config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// merge overlays the non-zero fields of file onto c. Dataset entries are
// merged field by field so a file may override only a TTL.
func (c *Config) merge(file *Config) {
	if file.APIURL != "" {
		c.APIURL = file.APIURL
	}
	if file.Store != "" {
		c.Store = file.Store
	}
	if file.RedisURL != "" {
		c.RedisURL = file.RedisURL
	}
	if file.RedisPrefix != "" {
		c.RedisPrefix = file.RedisPrefix
	}
	if file.SQLitePath != "" {
		c.SQLitePath = file.SQLitePath
	}
	if file.Port != "" {
		c.Port = file.Port
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.LogPretty {
		c.LogPretty = true
	}
	if file.PageSize != 0 {
		c.PageSize = file.PageSize
	}
	if file.RefreshInterval != "" {
		c.RefreshInterval = file.RefreshInterval
	}

	if c.Datasets == nil {
		c.Datasets = make(map[string]Dataset)
	}
	for name, override := range file.Datasets {
		ds := c.Datasets[name]
		if override.Endpoint != "" {
			ds.Endpoint = override.Endpoint
		}
		if override.TTL != "" {
			ds.TTL = override.TTL
		}
		if override.PageSize != 0 {
			ds.PageSize = override.PageSize
		}
		if override.Auth != nil {
			ds.Auth = override.Auth
		}
		if override.Paged != nil {
			ds.Paged = override.Paged
		}
		if override.FilterFields != nil {
			ds.FilterFields = override.FilterFields
		}
		c.Datasets[name] = ds
	}
}

func (c *Config) applyEnv() {
	c.APIURL = getEnv(EnvAPIURL, c.APIURL)
	c.Store = getEnv(EnvStore, c.Store)
	c.RedisURL = getEnv(EnvRedisURL, c.RedisURL)
	c.SQLitePath = getEnv(EnvSQLitePath, c.SQLitePath)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.Port = getEnv(EnvPort, c.Port)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url scheme must be http or https, got %q", u.Scheme)
	}

	switch c.Store {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (valid: memory, redis, sqlite)", c.Store)
	}
	if c.Store == StoreRedis && c.RedisURL == "" {
		return fmt.Errorf("redis_url is required for the redis store")
	}

	if c.Port != "" {
		if _, err := strconv.Atoi(c.Port); err != nil {
			return fmt.Errorf("port %q is not a number", c.Port)
		}
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be > 0 (got %d)", c.PageSize)
	}
	if c.RefreshInterval != "" {
		if _, err := time.ParseDuration(c.RefreshInterval); err != nil {
			return fmt.Errorf("refresh_interval: %w", err)
		}
	}

	for _, name := range c.DatasetNames() {
		ds := c.Datasets[name]
		if ds.TTL != "" {
			ttl, err := time.ParseDuration(ds.TTL)
			if err != nil {
				return fmt.Errorf("dataset %q: ttl: %w", name, err)
			}
			if ttl < 0 {
				return fmt.Errorf("dataset %q: ttl must be >= 0, got %s", name, ds.TTL)
			}
		}
		if ds.PageSize < 0 {
			return fmt.Errorf("dataset %q: page_size must be >= 0 (got %d)", name, ds.PageSize)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
