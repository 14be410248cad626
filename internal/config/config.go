package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Cache       CacheConfig       `yaml:"cache"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Logging     LoggingConfig     `yaml:"logging"`
	Backup      BackupConfig      `yaml:"backup"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig holds match cache settings.
type CacheConfig struct {
	TTLSeconds             int `yaml:"ttl_seconds"`
	JanitorIntervalSeconds int `yaml:"janitor_interval_seconds"`
}

// ProvidersConfig holds external audio platform credentials.
type ProvidersConfig struct {
	YouTubeAPIKey      string `yaml:"youtube_api_key"`
	SoundCloudClientID string `yaml:"soundcloud_client_id"`
}

// BackupConfig holds database backup settings.
type BackupConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Path           string `yaml:"path"`
	IntervalHours  int    `yaml:"interval_hours"`
	RetentionCount int    `yaml:"retention_count"`
	MaxAgeDays     int    `yaml:"max_age_days"`
}

// MaintenanceConfig holds database maintenance scheduler settings.
type MaintenanceConfig struct {
	Enabled       bool `yaml:"enabled"`
	IntervalHours int  `yaml:"interval_hours"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "/data/needledrop.db",
		},
		Cache: CacheConfig{
			TTLSeconds:             86400,
			JanitorIntervalSeconds: 300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Backup: BackupConfig{
			IntervalHours:  24,
			RetentionCount: 7,
			MaxAgeDays:     30,
		},
		Maintenance: MaintenanceConfig{
			Enabled:       true,
			IntervalHours: 24,
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("ND_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("ND_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("ND_CACHE_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			c.Cache.TTLSeconds = ttl
		}
	}
	if v := os.Getenv("ND_YOUTUBE_API_KEY"); v != "" {
		c.Providers.YouTubeAPIKey = v
	}
	if v := os.Getenv("ND_SOUNDCLOUD_CLIENT_ID"); v != "" {
		c.Providers.SoundCloudClientID = v
	}
	if v := os.Getenv("ND_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ND_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("ND_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("ND_BACKUP_PATH"); v != "" {
		c.Backup.Path = v
		c.Backup.Enabled = true
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttl must be positive: %d", c.Cache.TTLSeconds)
	}
	if c.Cache.JanitorIntervalSeconds <= 0 {
		return fmt.Errorf("cache janitor interval must be positive: %d", c.Cache.JanitorIntervalSeconds)
	}
	if c.Backup.Enabled && c.Backup.IntervalHours <= 0 {
		return fmt.Errorf("backup interval must be positive: %d", c.Backup.IntervalHours)
	}
	if c.Maintenance.Enabled && c.Maintenance.IntervalHours <= 0 {
		return fmt.Errorf("maintenance interval must be positive: %d", c.Maintenance.IntervalHours)
	}
	return nil
}
