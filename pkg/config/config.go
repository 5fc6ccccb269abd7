// Package config provides configuration loading and management for waterpixels.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"waterpixels/internal/models"
	"waterpixels/pkg/intensity"
	"waterpixels/pkg/markers"
	"waterpixels/pkg/morphology"
	"waterpixels/pkg/regularization"
	"waterpixels/pkg/voronoi"
	"waterpixels/pkg/waterpixel"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Segmentation parameters
	Segmentation struct {
		// Sigma is the lattice spacing in pixels, roughly the superpixel diameter
		Sigma float64 `yaml:"sigma"`

		// K is the spatial regularization strength
		K float64 `yaml:"k"`

		// CellScale is the shrink ratio applied to each cell before the marker search
		CellScale float64 `yaml:"cellScale"`

		// Selection is the marker component policy: closest or largest
		Selection string `yaml:"selection"`

		// Metric is the regularization distance: euclidean or chebyshev
		Metric string `yaml:"metric"`

		// Gradient is the gradient operator: morphological or sobel
		Gradient string `yaml:"gradient"`

		// Partition is the nearest-center lookup: grid, bruteforce or kdtree
		Partition string `yaml:"partition"`

		// Epsilon is the tolerance of the marker minimum search
		Epsilon float64 `yaml:"epsilon"`
	} `yaml:"segmentation"`

	// Preprocessing parameters
	Preprocessing struct {
		// Blur is the sigma of the Gaussian applied before the intensity projection (0 disables it)
		Blur float64 `yaml:"blur"`

		// Intensity is the color to intensity conversion: cielab or colorful
		Intensity string `yaml:"intensity"`
	} `yaml:"preprocessing"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`

		// Verify enables the partition and segmentation consistency checks
		Verify bool `yaml:"verify"`

		// RelabelSeeds renumbers the markers through connected-component labeling
		RelabelSeeds bool `yaml:"relabelSeeds"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults determines whether to save intermediary processing results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary results are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Overlay draws the boundaries over the input image instead of a plain boundary map
		Overlay bool `yaml:"overlay"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults := waterpixel.DefaultParams()

	cfg.Segmentation.Sigma = defaults.Sigma
	cfg.Segmentation.K = defaults.K
	cfg.Segmentation.CellScale = defaults.CellScale
	cfg.Segmentation.Selection = defaults.Selection.String()
	cfg.Segmentation.Metric = defaults.Metric.String()
	cfg.Segmentation.Gradient = defaults.Gradient.String()
	cfg.Segmentation.Partition = defaults.Strategy.String()
	cfg.Segmentation.Epsilon = markers.Epsilon

	cfg.Preprocessing.Blur = 0
	cfg.Preprocessing.Intensity = intensity.ModeCIELab.String()

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Verify = false
	cfg.Processing.RelabelSeeds = false

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Overlay = false
	cfg.Output.Verbose = true

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

// IntensityMode returns the parsed preprocessing intensity mode
func (c *Config) IntensityMode() (intensity.Mode, error) {
	return intensity.ParseMode(c.Preprocessing.Intensity)
}

// Params converts the segmentation and processing sections into pipeline parameters.
// Names are parsed and numeric ranges checked; the logger and progress callback are left
// to the caller.
func (c *Config) Params() (waterpixel.Params, error) {
	params := waterpixel.DefaultParams()
	var err error

	if params.Selection, err = markers.ParseSelection(c.Segmentation.Selection); err != nil {
		return params, err
	}
	if params.Metric, err = regularization.ParseMetric(c.Segmentation.Metric); err != nil {
		return params, err
	}
	if params.Gradient, err = morphology.ParseGradient(c.Segmentation.Gradient); err != nil {
		return params, err
	}
	if params.Strategy, err = voronoi.ParseStrategy(c.Segmentation.Partition); err != nil {
		return params, err
	}

	params.Sigma = c.Segmentation.Sigma
	params.K = c.Segmentation.K
	params.CellScale = c.Segmentation.CellScale
	params.Epsilon = c.Segmentation.Epsilon
	params.NumCores = c.Processing.NumCores
	params.Verify = c.Processing.Verify
	params.RelabelSeeds = c.Processing.RelabelSeeds

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, err := c.IntensityMode(); err != nil {
		return err
	}
	if c.Preprocessing.Blur < 0 {
		return fmt.Errorf("%w: blur must be non-negative, got %v", models.ErrInvalidConfiguration, c.Preprocessing.Blur)
	}
	if c.Output.SaveIntermediaryResults && c.Output.IntermediaryDir == "" {
		return fmt.Errorf("%w: intermediaryDir is required to save intermediary results", models.ErrInvalidConfiguration)
	}
	return nil
}
