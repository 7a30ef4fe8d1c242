// Package config handles visitwatch configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure for visitwatch.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// API is the subject service the dashboard talks to.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Server settings for the subject service.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Schedule tunes visit classification.
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global visitwatch settings.
type GlobalConfig struct {
	// DataDir is where visitwatch stores its data (default: ~/.local/share/visitwatch).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/visitwatch).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// APIConfig points the client at the subject service.
type APIConfig struct {
	// BaseURL is the service root, e.g. http://127.0.0.1:8080.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ServerConfig contains subject service listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// MaxConnections is the maximum number of database connections.
	MaxConnections int `yaml:"max_connections" mapstructure:"max_connections"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The dashboard always logs to a file
	// or nowhere, never to the terminal it draws on.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ScheduleConfig tunes visit classification.
type ScheduleConfig struct {
	// SoonHorizonDays is how many days ahead a visit counts as due soon.
	SoonHorizonDays int `yaml:"soon_horizon_days" mapstructure:"soon_horizon_days"`

	// Timezone is the IANA zone dates are read in. Empty means the local zone.
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// PageSize is the number of rows per table page.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// RefreshInterval re-fetches subjects in the background. Zero disables it.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// ToastDuration is how long action notices stay on screen.
	ToastDuration time.Duration `yaml:"toast_duration" mapstructure:"toast_duration"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "visitwatch"),
			ConfigDir: filepath.Join(homeDir, ".config", "visitwatch"),
		},
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8080",
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:           "", // Will be set to DataDir/visitwatch.db
			MaxConnections: 10,
			BusyTimeoutMs:  5000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Schedule: ScheduleConfig{
			SoonHorizonDays: 2,
		},
		TUI: TUIConfig{
			PageSize:        10,
			Theme:           "default",
			RefreshInterval: time.Minute,
			ToastDuration:   4 * time.Second,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api.base_url must be an http(s) url, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database.max_connections must be at least 1")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, fatal")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json")
	}

	if c.Schedule.SoonHorizonDays < 0 {
		return fmt.Errorf("schedule.soon_horizon_days must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.TUI.PageSize < 1 {
		return fmt.Errorf("tui.page_size must be at least 1")
	}
	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("tui.theme must be default or high-contrast")
	}
	if c.TUI.RefreshInterval != 0 && c.TUI.RefreshInterval < time.Second {
		return fmt.Errorf("tui.refresh_interval must be 0 (off) or at least 1s")
	}

	return nil
}

// Location resolves schedule.timezone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Schedule.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone %q: %w", name, err)
	}
	return loc, nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "visitwatch.db")
}
