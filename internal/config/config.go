// Package config holds engine-wide constants and the optional funsor.yaml
// project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up in the working directory by the CLI.
const ConfigFileName = "funsor.yaml"

// DebugEnvVar enables the dispatch trace when set.
const DebugEnvVar = "FUNSOR_DEBUG"

// Interpretation mode names accepted in configuration and on the CLI.
const (
	ModeEager      = "eager"
	ModeLazy       = "lazy"
	ModeMemoize    = "memoize"
	ModeMonteCarlo = "montecarlo"
)

// Config is the top-level funsor.yaml configuration.
type Config struct {
	// Interpretation is the default mode when no -m flag is given.
	Interpretation string `yaml:"interpretation,omitempty"`

	MonteCarlo MonteCarloConfig `yaml:"montecarlo,omitempty"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
}

// MonteCarloConfig tunes the sampling interpretation.
type MonteCarloConfig struct {
	// Samples is the declared sample count per estimated reduction.
	Samples int `yaml:"samples,omitempty"`
	// Seed, when set, makes runs reproducible.
	Seed *int64 `yaml:"seed,omitempty"`
}

// CacheConfig configures the persistent memoization store.
type CacheConfig struct {
	// Path to the SQLite cache database; empty disables persistence.
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Interpretation: ModeEager,
		MonteCarlo:     MonteCarloConfig{Samples: 1},
	}
}

// Load reads funsor.yaml from dir, falling back to defaults when the file
// does not exist.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Interpretation {
	case ModeEager, ModeLazy, ModeMemoize, ModeMonteCarlo:
	default:
		return fmt.Errorf("unknown interpretation %q", c.Interpretation)
	}
	if c.MonteCarlo.Samples < 1 {
		return fmt.Errorf("montecarlo.samples must be positive, got %d", c.MonteCarlo.Samples)
	}
	return nil
}
