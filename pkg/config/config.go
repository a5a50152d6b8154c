// Package config provides configuration loading and management for gaussinit.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"gaussinit/internal/models"
	"gaussinit/pkg/estimator"
	"gaussinit/pkg/selection"
)

// Plot modes
const (
	PlotNone = "none"
	PlotAll  = "all"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Estimation parameters
	Estimation struct {
		// Selection is the data selection method used for the moment estimates
		Selection string `yaml:"selection"`

		// ClusteringSelection is the data selection method used before clustering
		ClusteringSelection string `yaml:"clusteringSelection"`

		// Components is the number of Gaussian components, 0 selects it automatically
		Components int `yaml:"components"`
	} `yaml:"estimation"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for silhouette scoring
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// PlotMode is either "none" or "all"
		PlotMode string `yaml:"plotMode"`

		// PlotDir is the directory diagnostic images are written to
		PlotDir string `yaml:"plotDir"`

		// Verbose switches to human readable console logging
		Verbose bool `yaml:"verbose"`

		// LogLevel is a zerolog level name
		LogLevel string `yaml:"logLevel"`
	} `yaml:"output"`

	// Server parameters
	Server struct {
		// Addr is the listen address of the HTTP service
		Addr string `yaml:"addr"`

		// MaxBodyBytes limits the size of estimate requests
		MaxBodyBytes int64 `yaml:"maxBodyBytes"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Estimation.Selection = string(selection.None)
	cfg.Estimation.ClusteringSelection = string(selection.None)
	cfg.Estimation.Components = estimator.Auto

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Output.PlotMode = PlotNone
	cfg.Output.PlotDir = "plots"
	cfg.Output.Verbose = true
	cfg.Output.LogLevel = zerolog.InfoLevel.String()

	cfg.Server.Addr = ":8080"
	cfg.Server.MaxBodyBytes = 64 << 20

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

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

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
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

// Validate checks every value that has a restricted range. All errors wrap
// models.ErrConfiguration.
func (c *Config) Validate() error {
	if _, err := selection.ParseMethod(c.Estimation.Selection); err != nil {
		return fmt.Errorf("estimation.selection: %w", err)
	}
	if _, err := selection.ParseMethod(c.Estimation.ClusteringSelection); err != nil {
		return fmt.Errorf("estimation.clusteringSelection: %w", err)
	}
	if c.Estimation.Components < estimator.Auto || c.Estimation.Components > estimator.MaxComponents {
		return fmt.Errorf("%w: estimation.components must be 0..%d, got %d",
			models.ErrConfiguration, estimator.MaxComponents, c.Estimation.Components)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("%w: processing.numCores must be positive, got %d",
			models.ErrConfiguration, c.Processing.NumCores)
	}
	if c.Output.PlotMode != PlotNone && c.Output.PlotMode != PlotAll {
		return fmt.Errorf("%w: output.plotMode must be %q or %q, got %q",
			models.ErrConfiguration, PlotNone, PlotAll, c.Output.PlotMode)
	}
	if _, err := zerolog.ParseLevel(c.Output.LogLevel); err != nil {
		return fmt.Errorf("%w: output.logLevel: %v", models.ErrConfiguration, err)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.maxBodyBytes must be positive", models.ErrConfiguration)
	}
	return nil
}

// EstimatorParams converts the estimation and processing sections. The
// observer is left as the no-op default.
func (c *Config) EstimatorParams() (estimator.Params, error) {
	params := estimator.DefaultParams()

	var err error
	params.Selection, err = selection.ParseMethod(c.Estimation.Selection)
	if err != nil {
		return params, fmt.Errorf("estimation.selection: %w", err)
	}
	params.ClusteringSelection, err = selection.ParseMethod(c.Estimation.ClusteringSelection)
	if err != nil {
		return params, fmt.Errorf("estimation.clusteringSelection: %w", err)
	}
	if c.Processing.NumCores > 0 {
		params.Workers = c.Processing.NumCores
	}

	return params, nil
}
