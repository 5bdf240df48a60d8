// Package config provides configuration loading and management for cstomo.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"cstomo/pkg/backprojection"
	"cstomo/pkg/projection"
	"cstomo/pkg/regression"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use; above one, the Lasso
		// and Ridge fits run concurrently
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Phantom and acquisition geometry
	Phantom struct {
		// Size is the side length l of the square image
		Size int `yaml:"size"`

		// Directions is the number of projection angles
		Directions int `yaml:"directions"`

		// Seed drives the random blob placement and the measurement noise
		Seed int64 `yaml:"seed"`

		// Points is the number of random seed points of the blobs
		Points int `yaml:"points"`
	} `yaml:"phantom"`

	// Noise parameters
	Noise struct {
		// Sigma is the standard deviation of the additive Gaussian noise
		Sigma float64 `yaml:"sigma"`
	} `yaml:"noise"`

	// Lasso solver parameters
	Lasso struct {
		Alpha   float64 `yaml:"alpha"`
		MaxIter int     `yaml:"maxIter"`
		Tol     float64 `yaml:"tol"`
	} `yaml:"lasso"`

	// Ridge solver parameters
	Ridge struct {
		Alpha float64 `yaml:"alpha"`

		// Solver is one of auto, cholesky, cg
		Solver string `yaml:"solver"`
	} `yaml:"ridge"`

	// Filtered back-projection baseline
	FBP struct {
		Enabled bool `yaml:"enabled"`

		// Filter is one of ramp, shepp-logan, none
		Filter string `yaml:"filter"`
	} `yaml:"fbp"`

	// Output parameters
	Output struct {
		// Figure is the path of the comparison PNG
		Figure string `yaml:"figure"`

		// SaveIntermediaryResults determines whether to save intermediary processing results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary results are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Phantom.Size = 128
	cfg.Phantom.Directions = 128 / 7
	cfg.Phantom.Seed = 0
	cfg.Phantom.Points = 36

	cfg.Noise.Sigma = projection.DefaultNoiseSigma

	cfg.Lasso.Alpha = 0.001
	cfg.Lasso.MaxIter = 1000
	cfg.Lasso.Tol = 1e-4

	cfg.Ridge.Alpha = 0.2
	cfg.Ridge.Solver = string(regression.SolverAuto)

	cfg.FBP.Enabled = false
	cfg.FBP.Filter = string(backprojection.Ramp)

	cfg.Output.Figure = "reconstruction.png"
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = true

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

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Processing.NumCores < 1 {
		result = multierror.Append(result, fmt.Errorf("processing.numCores must be at least 1, got %d", c.Processing.NumCores))
	}
	if c.Phantom.Size < 1 {
		result = multierror.Append(result, fmt.Errorf("phantom.size must be at least 1, got %d", c.Phantom.Size))
	}
	if c.Phantom.Directions < 1 {
		result = multierror.Append(result, fmt.Errorf("phantom.directions must be at least 1, got %d", c.Phantom.Directions))
	}
	if c.Phantom.Points < 1 {
		result = multierror.Append(result, fmt.Errorf("phantom.points must be at least 1, got %d", c.Phantom.Points))
	}
	if c.Noise.Sigma < 0 {
		result = multierror.Append(result, fmt.Errorf("noise.sigma must be non-negative, got %g", c.Noise.Sigma))
	}
	if c.Lasso.Alpha < 0 {
		result = multierror.Append(result, fmt.Errorf("lasso.alpha must be non-negative, got %g", c.Lasso.Alpha))
	}
	if c.Lasso.MaxIter < 1 {
		result = multierror.Append(result, fmt.Errorf("lasso.maxIter must be at least 1, got %d", c.Lasso.MaxIter))
	}
	if c.Lasso.Tol <= 0 {
		result = multierror.Append(result, fmt.Errorf("lasso.tol must be positive, got %g", c.Lasso.Tol))
	}
	if c.Ridge.Alpha < 0 {
		result = multierror.Append(result, fmt.Errorf("ridge.alpha must be non-negative, got %g", c.Ridge.Alpha))
	}
	switch regression.RidgeSolver(c.Ridge.Solver) {
	case regression.SolverAuto, regression.SolverCholesky, regression.SolverCG:
	default:
		result = multierror.Append(result, fmt.Errorf("ridge.solver %q: %w", c.Ridge.Solver, regression.ErrUnknownSolver))
	}
	switch backprojection.Filter(c.FBP.Filter) {
	case backprojection.Ramp, backprojection.SheppLogan, backprojection.None, "":
	default:
		result = multierror.Append(result, fmt.Errorf("fbp.filter %q: %w", c.FBP.Filter, backprojection.ErrUnknownFilter))
	}
	if c.Output.Figure == "" {
		result = multierror.Append(result, fmt.Errorf("output.figure must not be empty"))
	}
	if c.Output.SaveIntermediaryResults && c.Output.IntermediaryDir == "" {
		result = multierror.Append(result, fmt.Errorf("output.intermediaryDir must be set when saving intermediary results"))
	}

	return result.ErrorOrNil()
}
