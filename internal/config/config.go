// Package config loads and validates the uvc.yaml configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the uvc.yaml configuration file.
type Config struct {
	// WorkingCopy is the root of the checked-out working copy.
	WorkingCopy string `yaml:"working_copy"`

	// Client is the svn binary to invoke. Defaults to "svn".
	Client string `yaml:"client,omitempty"`

	// RefreshIntervalMS is the refresh loop cadence in milliseconds.
	// Defaults to 200.
	RefreshIntervalMS int `yaml:"refresh_interval_ms,omitempty"`

	// MaxBatchSize caps how many paths one status query covers.
	// Defaults to 20.
	MaxBatchSize int `yaml:"max_batch_size,omitempty"`

	// SnapshotPath is the status snapshot database location. Empty
	// disables persistence.
	SnapshotPath string `yaml:"snapshot_path,omitempty"`

	// Watch enables the working-copy filesystem watcher.
	Watch bool `yaml:"watch,omitempty"`

	// DashboardPort serves the WebSocket dashboard when nonzero.
	DashboardPort int `yaml:"dashboard_port,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		WorkingCopy:       ".",
		Client:            "svn",
		RefreshIntervalMS: 200,
		MaxBatchSize:      20,
	}
}

// RefreshInterval returns the loop cadence as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// Load reads and validates a uvc.yaml configuration file. Missing
// optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Client == "" {
		cfg.Client = "svn"
	}
	if cfg.RefreshIntervalMS == 0 {
		cfg.RefreshIntervalMS = 200
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 20
	}
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.WorkingCopy == "" {
		errs = append(errs, "'working_copy' is required")
	}
	if cfg.RefreshIntervalMS < 0 {
		errs = append(errs, "'refresh_interval_ms' must not be negative")
	}
	if cfg.MaxBatchSize < 0 {
		errs = append(errs, "'max_batch_size' must not be negative")
	}
	if cfg.DashboardPort < 0 || cfg.DashboardPort > 65535 {
		errs = append(errs, fmt.Sprintf("'dashboard_port' %d is out of range", cfg.DashboardPort))
	}

	return errs
}
