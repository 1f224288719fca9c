package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all genspec configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Root for the record store, reports and logs
	DataDir string `yaml:"data_dir"`

	// Where rendered documents are written (default: <data_dir>/reports)
	ReportsDir string `yaml:"reports_dir"`

	Store    StoreConfig    `yaml:"store"`
	Renderer RendererConfig `yaml:"renderer"`
	Loads    LoadsConfig    `yaml:"loads"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StoreConfig configures the report record store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite3 (cgo) or sqlite (pure Go)
	Path   string `yaml:"path"`   // default: <data_dir>/reports.db
}

// RendererConfig configures document output.
type RendererConfig struct {
	PageSize   string `yaml:"page_size"` // A4, Letter
	Header     string `yaml:"header"`
	QRCode     bool   `yaml:"qr_code"`
	ExportXLSX bool   `yaml:"export_xlsx"`
}

// LoadsConfig configures the load ledger.
type LoadsConfig struct {
	// Capacity used for load analysis before a rating is selected
	FallbackCapacityKW int  `yaml:"fallback_capacity_kw"`
	SeedDefaults       bool `yaml:"seed_defaults"`
}

// HistoryConfig configures report listing.
type HistoryConfig struct {
	ListLimit int `yaml:"list_limit"`
}

// Supported values
var (
	ValidDrivers   = []string{"sqlite3", "sqlite"}
	ValidPageSizes = []string{"A4", "Letter"}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "genspec",
		Version: "1.0.0",
		DataDir: ".genspec",

		Store: StoreConfig{
			Driver: "sqlite3",
		},

		Renderer: RendererConfig{
			PageSize:   "A4",
			Header:     "MAVEN IMAGING",
			QRCode:     true,
			ExportXLSX: false,
		},

		Loads: LoadsConfig{
			FallbackCapacityKW: 30,
			SeedDefaults:       true,
		},

		History: HistoryConfig{
			ListLimit: 50,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A .env file beside it is read
// first so GENSPEC_* overrides can be kept on disk. A missing config file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("GENSPEC_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if dir := os.Getenv("GENSPEC_REPORTS_DIR"); dir != "" {
		c.ReportsDir = dir
	}
	if path := os.Getenv("GENSPEC_DB"); path != "" {
		c.Store.Path = path
	}
	if driver := os.Getenv("GENSPEC_DB_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}
	if v := os.Getenv("GENSPEC_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
		}
	}
	if v := os.Getenv("GENSPEC_XLSX"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Renderer.ExportXLSX = on
		}
	}
}

// ReportsPath returns the directory rendered documents go to.
func (c *Config) ReportsPath() string {
	if c.ReportsDir != "" {
		return c.ReportsDir
	}
	return filepath.Join(c.DataDir, "reports")
}

// StorePath returns the record store database file.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.DataDir, "reports.db")
}

// LogsPath returns the directory category log files go to.
func (c *Config) LogsPath() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	return filepath.Join(c.DataDir, "logs")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if !contains(ValidDrivers, c.Store.Driver) {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}
	if !contains(ValidPageSizes, c.Renderer.PageSize) {
		return fmt.Errorf("invalid page size: %s (valid: %v)", c.Renderer.PageSize, ValidPageSizes)
	}
	if c.Loads.FallbackCapacityKW <= 0 {
		return fmt.Errorf("fallback_capacity_kw must be > 0, got %d", c.Loads.FallbackCapacityKW)
	}
	if c.History.ListLimit <= 0 {
		return fmt.Errorf("list_limit must be > 0, got %d", c.History.ListLimit)
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
