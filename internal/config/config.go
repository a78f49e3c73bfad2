// Package config loads htmlstore configuration from an optional
// .htmlstore.yaml file. Flags always override file values; the resolved
// configuration is passed explicitly down the pipeline, never read as
// ambient state mid-run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pjamar/htmls-to-datasette/internal/errors"
)

// ConfigFileName is the per-directory configuration file.
const ConfigFileName = ".htmlstore.yaml"

// DefaultDatabase is the store filename used when none is configured.
const DefaultDatabase = "htmlstore.db"

// Config represents the htmlstore configuration.
type Config struct {
	// Database is the path to the SQLite store.
	Database string `yaml:"database"`

	// StoreBinary persists raw HTML bytes inside the store (inline mode).
	StoreBinary bool `yaml:"store_binary"`

	// Exclude lists glob patterns of file names to skip while locating.
	Exclude []string `yaml:"exclude"`

	// Workers is the number of concurrent extraction workers (0 = NumCPU).
	Workers int `yaml:"workers"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Database: DefaultDatabase,
		LogLevel: "info",
	}
}

// Load reads configuration from dir/.htmlstore.yaml.
// Returns defaults without error when the file does not exist.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("workers must be >= 0, got %d", c.Workers), nil)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown log_level %q", c.LogLevel), nil)
	}
	for _, pattern := range c.Exclude {
		if _, err := filepath.Match(pattern, "sample"); err != nil {
			return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid exclude pattern %q", pattern), err)
		}
	}
	return nil
}

// Save writes the configuration to dir/.htmlstore.yaml.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
