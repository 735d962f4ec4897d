// Package config holds the startup configuration. It is constructed
// once in main and passed by handle into the components that need it;
// nothing here is re-evaluated per call.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/entrhq/chronos/pkg/errors"
	"github.com/entrhq/chronos/pkg/identifier"
	"github.com/entrhq/chronos/pkg/storage"
)

// Config is the full startup configuration for the server.
type Config struct {
	// StorageMode selects one shared store or one store per project.
	StorageMode string `yaml:"storage_mode"`
	// DataDir is the shared-store directory (centralized mode only).
	DataDir string `yaml:"data_dir"`
	// ProjectRoot explicitly pins the project root (per-project mode).
	ProjectRoot string `yaml:"project_root"`
	// IDFormat selects the identifier format for new records.
	IDFormat string `yaml:"id_format"`
	// LocalTimezone overrides host timezone detection.
	LocalTimezone string `yaml:"local_timezone"`
	// TimeoutSeconds bounds each tool call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		StorageMode:    string(storage.ModeCentralized),
		DataDir:        storage.DefaultDataDir,
		IDFormat:       string(identifier.FormatShort),
		TimeoutSeconds: 60,
	}
}

// Load builds a configuration from defaults overlaid with an optional
// YAML file. Flag overrides are applied by the caller afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every enumerated value so misconfiguration fails at
// startup rather than on first use.
func (c *Config) Validate() error {
	if _, err := storage.ParseMode(c.StorageMode); err != nil {
		return err
	}
	if _, err := identifier.ParseFormat(c.IDFormat); err != nil {
		return err
	}
	if c.TimeoutSeconds <= 0 {
		return apperrors.NewValidationError("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	return nil
}

// Mode returns the parsed storage mode. Validate must have succeeded.
func (c *Config) Mode() storage.Mode {
	mode, _ := storage.ParseMode(c.StorageMode)
	return mode
}

// Timeout returns the per-call deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
