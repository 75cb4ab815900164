package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DataDir string       `yaml:"data_dir"`
	Debug   bool         `yaml:"debug"` // Enable debug logging
	Store   StoreConfig  `yaml:"store"`
	Web     WebConfig    `yaml:"web"`
	Reload  ReloadConfig `yaml:"reload"`
	Alert   AlertConfig  `yaml:"alert"`
}

// StoreConfig selects the task-run audit store backend
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (default) or "postgres"
	DSN    string `yaml:"dsn"`    // Postgres DSN; ignored for sqlite
	DSNEnv string `yaml:"dsn_env"`
}

// WebConfig represents web server and session tracking configuration
type WebConfig struct {
	CookieName string `yaml:"cookie_name"` // Session cookie (default: "sessmon_sid")
	SessionTTL string `yaml:"session_ttl"` // Idle sessions older than this are swept, e.g. "30m"
}

// ReloadConfig controls background reloads of the session list
type ReloadConfig struct {
	Interval      string `yaml:"interval"`       // Auto-reload period, e.g. "30s"; "0" disables
	LoaderTimeout string `yaml:"loader_timeout"` // Bound on a single load; "0" means none
	Workers       int    `yaml:"workers"`        // Worker pool size for loads
}

// AlertConfig represents failure alerting via email
type AlertConfig struct {
	Enabled          bool   `yaml:"enabled"`
	SendGridAPIKey   string `yaml:"sendgrid_api_key"`     // Direct API key
	SendGridKeyEnv   string `yaml:"sendgrid_api_key_env"` // Environment variable name
	FromEmail        string `yaml:"from_email"`
	FromName         string `yaml:"from_name"`
	ToEmail          string `yaml:"to_email"`
	SubjectPrefix    string `yaml:"subject_prefix"`
	FailureThreshold int    `yaml:"failure_threshold"` // Consecutive failures before an alert
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "", // Must be specified by user
		Store: StoreConfig{
			Driver: "sqlite",
			DSNEnv: "SESSMON_STORE_DSN",
		},
		Web: WebConfig{
			CookieName: "sessmon_sid",
			SessionTTL: "30m",
		},
		Reload: ReloadConfig{
			Interval:      "30s",
			LoaderTimeout: "10s",
			Workers:       2,
		},
		Alert: AlertConfig{
			Enabled:          false,
			SendGridKeyEnv:   "SENDGRID_API_KEY",
			FromEmail:        "sessmon@example.com",
			FromName:         "Sessmon",
			SubjectPrefix:    "[sessmon]",
			FailureThreshold: 3,
		},
	}
}

// GetCookieName returns the configured session cookie name
func (c *Config) GetCookieName() string {
	if c.Web.CookieName != "" {
		return c.Web.CookieName
	}
	return "sessmon_sid"
}

// GetSessionTTL returns the parsed session TTL, falling back to 30 minutes
func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Web.SessionTTL, 30*time.Minute)
}

// GetReloadInterval returns the parsed auto-reload interval, falling back to
// 30 seconds. A configured "0" disables auto-reload.
func (c *Config) GetReloadInterval() time.Duration {
	return parseDuration(c.Reload.Interval, 30*time.Second)
}

// GetLoaderTimeout returns the parsed per-load timeout, falling back to 10
// seconds. A configured "0" means no bound.
func (c *Config) GetLoaderTimeout() time.Duration {
	return parseDuration(c.Reload.LoaderTimeout, 10*time.Second)
}

// GetWorkers returns the worker pool size, at least 1
func (c *Config) GetWorkers() int {
	if c.Reload.Workers > 0 {
		return c.Reload.Workers
	}
	return 1
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// GetStoreDSN returns the store DSN, checking the direct value first then the env var
func (c *Config) GetStoreDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	if c.Store.DSNEnv != "" {
		return os.Getenv(c.Store.DSNEnv)
	}
	return ""
}

// GetSendGridAPIKey returns the SendGrid API key, checking direct key first then env var
func (c *Config) GetSendGridAPIKey() string {
	if c.Alert.SendGridAPIKey != "" {
		return c.Alert.SendGridAPIKey
	}
	if c.Alert.SendGridKeyEnv != "" {
		return os.Getenv(c.Alert.SendGridKeyEnv)
	}
	return ""
}

// Load loads configuration from the specified path, falling back to defaults
func Load(configPath string) (*Config, error) {
	// If no path specified, use default location
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".config", "sessmon", "config.yaml")
	}

	// Expand ~ in path
	configPath = expandPath(configPath)

	// Start with defaults
	cfg := DefaultConfig()

	// Try to load from file
	data, err := os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, return defaults
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Expand ~ in data_dir if present
	cfg.DataDir = expandPath(cfg.DataDir)

	return cfg, nil
}

// expandPath expands ~ to home directory in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return homeDir
		}
		return filepath.Join(homeDir, path[1:])
	}

	return path
}

// EnsureDataDir creates the data directory if it doesn't exist
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
