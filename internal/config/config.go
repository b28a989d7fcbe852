// Package config loads and saves the YAML configuration. A missing file is
// created with defaults (mode 0600) on first run, and environment variables,
// optionally from a .env file, override deployment-specific keys.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"contentcal/internal/model"
)


// FeedConfig describes an ICS calendar of occasions (public holidays,
// awareness days) shown next to the content plan.
type FeedConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// StoreConfig selects the table store that holds events and quotas.
type StoreConfig struct {
	// Driver is "csv" (default) or "postgres".
	Driver string `yaml:"driver" json:"driver"`
	// DataDir holds events.csv and quotas.csv for the csv driver.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// DatabaseURL is the postgres DSN for the postgres driver.
	DatabaseURL string `yaml:"database_url,omitempty" json:"database_url,omitempty"`
}

// CacheConfig selects where loaded tables are memoized.
type CacheConfig struct {
	// Driver is "memory" (default), "redis" or "none".
	Driver        string `yaml:"driver" json:"driver"`
	RedisAddress  string `yaml:"redis_address,omitempty" json:"redis_address,omitempty"`
	RedisUsername string `yaml:"redis_username,omitempty" json:"redis_username,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty" json:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty" json:"redis_db,omitempty"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// Dir enables a rotating log file when set.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to decide what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Language selects month/weekday/week labels ("en", "es").
	Language string `yaml:"language" json:"language"`

	// WeekPolicy is the default bucketing of the month view:
	//   - "fixed" (default): 7-day blocks starting on the 1st
	//   - "calendar": rows of a calendar grid
	// The year view always defaults to "calendar".
	WeekPolicy string `yaml:"week_policy" json:"week_policy"`

	// WeekStart controls which weekday starts a calendar-grid row.
	// Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used to drop caches and refetch occasion feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheTTLSeconds bounds how long a loaded table is reused.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	Store StoreConfig `yaml:"store" json:"store"`
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// OccasionFeeds is the list of subscribed occasion calendars.
	OccasionFeeds []FeedConfig `yaml:"occasion_feeds" json:"occasion_feeds"`

	// Platforms are offered as choices when entering events.
	Platforms []string `yaml:"platforms" json:"platforms"`

	// DefaultQuotas seeds the quota table on first use.
	DefaultQuotas map[string]int `yaml:"default_quotas" json:"default_quotas"`

	Log LogConfig `yaml:"log" json:"log"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Timezone:        "UTC",
		Language:        "en",
		WeekPolicy:      "fixed",
		WeekStart:       "monday",
		RefreshCron:     "*/15 * * * *",
		CacheTTLSeconds: 60,
		Store: StoreConfig{
			Driver:  "csv",
			DataDir: "./data",
		},
		Cache: CacheConfig{
			Driver: "memory",
		},
		OccasionFeeds: []FeedConfig{},
		Platforms:     append([]string(nil), model.DefaultPlatforms...),
		DefaultQuotas: model.DefaultQuotas(),
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	switch strings.ToLower(c.Language) {
	case "en", "es":
		c.Language = strings.ToLower(c.Language)
	default:
		c.Language = "en"
	}

	switch c.WeekPolicy {
	case "fixed", "calendar":
		// ok
	default:
		// Unknown or empty; fall back to the block layout.
		c.WeekPolicy = "fixed"
	}

	// WeekStart default & validation.
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}

	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 60
	}

	switch c.Store.Driver {
	case "csv", "postgres":
	default:
		c.Store.Driver = "csv"
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "./data"
	}

	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		c.Cache.Driver = "memory"
	}

	if c.OccasionFeeds == nil {
		c.OccasionFeeds = []FeedConfig{}
	}
	if len(c.Platforms) == 0 {
		c.Platforms = append([]string(nil), model.DefaultPlatforms...)
	}
	if len(c.DefaultQuotas) == 0 {
		c.DefaultQuotas = model.DefaultQuotas()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return errors.New("config: store.database_url is required for the postgres driver")
	}
	if c.Cache.Driver == "redis" && c.Cache.RedisAddress == "" {
		return errors.New("config: cache.redis_address is required for the redis cache")
	}
	return model.QuotaSet(c.DefaultQuotas).Validate()
}

// ApplyEnv overrides deployment-specific keys from the environment. A .env
// file in the working directory is loaded first if present; variables
// already set in the process environment win over it.
//
//	CONTENTCAL_LISTEN, DATABASE_URL, REDIS_ADDRESS, REDIS_USERNAME,
//	REDIS_PASSWORD, CONTENTCAL_LOG_DIR
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("CONTENTCAL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
		c.Store.Driver = "postgres"
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Cache.RedisAddress = v
		c.Cache.Driver = "redis"
	}
	if v := os.Getenv("REDIS_USERNAME"); v != "" {
		c.Cache.RedisUsername = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("CONTENTCAL_LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data next to path in a temp file, syncs it, sets
// perm and renames it over path, creating the parent directory (0700) if
// needed. Readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".contentcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
