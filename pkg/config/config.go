// Package config provides configuration loading and management for seginterp.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"seginterp/internal/models"
	"seginterp/pkg/interpolation"
	"seginterp/pkg/segmentation"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Interpolation parameters
	Interpolation struct {
		// Distance selects the distance transform: euclidean or chamfer
		Distance string `yaml:"distance"`

		// CacheEntries bounds the number of cached interpolations, 0 for no limit
		CacheEntries int `yaml:"cacheEntries"`
	} `yaml:"interpolation"`

	// Segmentation parameters
	Segmentation struct {
		// Orientation along which gaps are filled
		Orientation string `yaml:"orientation"`

		// TimeStep of the volume to work on
		TimeStep int `yaml:"timeStep"`

		// LabelValue is written for accepted foreground pixels
		LabelValue float64 `yaml:"labelValue"`
	} `yaml:"segmentation"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// Evaluate runs a leave-one-out evaluation before filling gaps
		Evaluate bool `yaml:"evaluate"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Interpolation.Distance = interpolation.Euclidean.String()
	cfg.Interpolation.CacheEntries = 256

	cfg.Segmentation.Orientation = models.Transversal.String()
	cfg.Segmentation.TimeStep = 0
	cfg.Segmentation.LabelValue = 1

	cfg.Output.Verbose = true
	cfg.Output.Evaluate = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// Validate checks every value that has a restricted range
func (c *Config) Validate() error {
	if _, err := interpolation.ParseMetric(c.Interpolation.Distance); err != nil {
		return err
	}
	if c.Interpolation.CacheEntries < 0 {
		return fmt.Errorf("cacheEntries must not be negative, got %d", c.Interpolation.CacheEntries)
	}
	if _, err := models.ParseOrientation(c.Segmentation.Orientation); err != nil {
		return err
	}
	if c.Segmentation.TimeStep < 0 {
		return fmt.Errorf("timeStep must not be negative, got %d", c.Segmentation.TimeStep)
	}
	if c.Segmentation.LabelValue == 0 {
		return fmt.Errorf("labelValue must be non-zero")
	}
	return nil
}

// ControllerOptions converts the interpolation section into controller options
func (c *Config) ControllerOptions() (segmentation.Options, error) {
	metric, err := interpolation.ParseMetric(c.Interpolation.Distance)
	if err != nil {
		return segmentation.Options{}, err
	}
	return segmentation.Options{Metric: metric, CacheEntries: c.Interpolation.CacheEntries}, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
