package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Storage    StorageConfig    `json:"storage"`
	Scraper    ScraperConfig    `json:"scraper"`
	Retention  RetentionConfig  `json:"retention"`
	Sources    SourcesConfig    `json:"sources"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	// Backend is one of "file", "postgres", "supabase".
	Backend     string `json:"backend"`
	DataDir     string `json:"data_dir"`
	PostgresDSN string `json:"postgres_dsn"`
	SupabaseURL string `json:"supabase_url"`
	SupabaseKey string `json:"supabase_key"`
}

// ScraperConfig holds pipeline configuration.
type ScraperConfig struct {
	ConcurrentSources int           `json:"concurrent_sources"`
	RetryAttempts     int           `json:"retry_attempts"`
	RetryDelay        time.Duration `json:"retry_delay"`
	ScrapingInterval  time.Duration `json:"scraping_interval"`
	RequestTimeout    time.Duration `json:"request_timeout"`
}

// RetentionConfig holds the cleanup windows in days.
type RetentionConfig struct {
	ExpiredRetentionDays  int `json:"expired_retention_days"`
	InactiveRetentionDays int `json:"inactive_retention_days"`
}

// SourcesConfig holds per-source settings.
type SourcesConfig struct {
	Devpost       SourceConfig `json:"devpost"`
	Unstop        SourceConfig `json:"unstop"`
	AllHackathons SourceConfig `json:"allhackathons"`
	Cumulus       SourceConfig `json:"cumulus"`
}

// SourceConfig holds configuration for an individual source.
type SourceConfig struct {
	Enabled   bool `json:"enabled"`
	RateLimit int  `json:"rate_limit"`
	Pages     int  `json:"pages"`
}

// MonitoringConfig holds logging and lifecycle configuration.
type MonitoringConfig struct {
	MetricsInterval time.Duration `json:"metrics_interval"`
	LogFile         string        `json:"log_file"`
	AutoShutdown    bool          `json:"auto_shutdown"`
	ShutdownDelay   time.Duration `json:"shutdown_delay"`
}

// DefaultConfig returns a default configuration, with environment overrides
// applied for the settings that were historically environment-driven.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         3001,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     "file",
			DataDir:     "data",
			PostgresDSN: os.Getenv("DATABASE_URL"),
			SupabaseURL: os.Getenv("SUPABASE_URL"),
			SupabaseKey: os.Getenv("SUPABASE_KEY"),
		},
		Scraper: ScraperConfig{
			ConcurrentSources: 5,
			RetryAttempts:     3,
			RetryDelay:        2 * time.Second,
			ScrapingInterval:  0,
			RequestTimeout:    30 * time.Second,
		},
		Retention: RetentionConfig{
			ExpiredRetentionDays:  30,
			InactiveRetentionDays: 90,
		},
		Sources: SourcesConfig{
			Devpost:       SourceConfig{Enabled: true, RateLimit: 30, Pages: 3},
			Unstop:        SourceConfig{Enabled: true, RateLimit: 30, Pages: 1},
			AllHackathons: SourceConfig{Enabled: true, RateLimit: 60, Pages: 1},
			Cumulus:       SourceConfig{Enabled: true, RateLimit: 60, Pages: 1},
		},
		Monitoring: MonitoringConfig{
			MetricsInterval: 1 * time.Minute,
			LogFile:         "",
			AutoShutdown:    os.Getenv("AUTO_SHUTDOWN") == "true",
			ShutdownDelay:   30 * time.Second,
		},
	}

	if days, ok := envInt("CLEANUP_EXPIRED_AFTER_DAYS"); ok {
		cfg.Retention.ExpiredRetentionDays = days
	}
	if days, ok := envInt("CLEANUP_INACTIVE_AFTER_DAYS"); ok {
		cfg.Retention.InactiveRetentionDays = days
	}
	if ms, ok := envInt("SHUTDOWN_DELAY"); ok {
		cfg.Monitoring.ShutdownDelay = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LoadConfig loads configuration from a JSON file, layered over defaults.
// A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a JSON file.
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("data_dir is required for the file backend")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn (or DATABASE_URL) is required for the postgres backend")
		}
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			return fmt.Errorf("supabase URL and key are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Scraper.ConcurrentSources <= 0 {
		return fmt.Errorf("concurrent sources must be positive")
	}
	if c.Scraper.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.Retention.ExpiredRetentionDays <= 0 || c.Retention.InactiveRetentionDays <= 0 {
		return fmt.Errorf("retention windows must be positive")
	}

	hasEnabledSource := c.Sources.Devpost.Enabled ||
		c.Sources.Unstop.Enabled ||
		c.Sources.AllHackathons.Enabled ||
		c.Sources.Cumulus.Enabled
	if !hasEnabledSource {
		return fmt.Errorf("at least one source must be enabled")
	}

	return nil
}
