// Package config provides configuration loading and management for
// lensfit. A configuration declares the model composition — grid
// geometry, ordered mass and light profile lists with their initial
// parameters — together with the instrument response, noise level and
// regularization settings. The composition is immutable once fitting
// begins.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GridConfig describes a pixel grid geometry.
type GridConfig struct {
	// NX, NY are the pixel counts along each axis.
	NX int `yaml:"nx"`
	NY int `yaml:"ny"`

	// PixelScale is the angular pixel size in arcseconds.
	PixelScale float64 `yaml:"pixelScale"`

	// CenterX, CenterY place the grid center on the sky, in arcseconds.
	CenterX float64 `yaml:"centerX"`
	CenterY float64 `yaml:"centerY"`

	// Rotation is the grid rotation angle in radians.
	Rotation float64 `yaml:"rotation"`
}

// ProfileConfig declares one profile instance: its registry tag, the
// initial values of its named parameters, and, for pixelated variants,
// the grid its pixel values live on.
type ProfileConfig struct {
	// Type is the profile registry tag, e.g. EPL or SERSIC_ELLIPSE.
	Type string `yaml:"type"`

	// Params maps parameter names to initial values. Missing names
	// default to zero.
	Params map[string]float64 `yaml:"params"`

	// Grid is required for pixelated profile types and ignored
	// otherwise.
	Grid *GridConfig `yaml:"grid,omitempty"`

	// Fixed lists parameter names held at their initial values during a
	// fit. For pixelated profiles the name "pixels" fixes the whole
	// block.
	Fixed []string `yaml:"fixed,omitempty"`
}

// Config is the full application configuration loaded from YAML.
type Config struct {
	// Grid is the image-plane grid of the observation.
	Grid GridConfig `yaml:"grid"`

	// Lens lists the deflector mass profiles in evaluation order.
	Lens []ProfileConfig `yaml:"lens"`

	// Source lists the source-plane light profiles.
	Source []ProfileConfig `yaml:"source"`

	// LensLight lists the deflector light profiles. May be empty.
	LensLight []ProfileConfig `yaml:"lensLight,omitempty"`

	// PSF describes the instrument response.
	PSF struct {
		// Type is "delta" or "gaussian".
		Type string `yaml:"type"`

		// Sigma is the Gaussian width in arcseconds.
		Sigma float64 `yaml:"sigma"`

		// Truncation bounds the Gaussian kernel in units of sigma.
		Truncation float64 `yaml:"truncation"`
	} `yaml:"psf"`

	// Likelihood holds the noise and flux-calibration settings.
	Likelihood struct {
		// Exposure scales surface brightness to observed counts.
		Exposure float64 `yaml:"exposure"`

		// NoiseRMS is the constant per-pixel background noise used for
		// mock observations.
		NoiseRMS float64 `yaml:"noiseRMS"`
	} `yaml:"likelihood"`

	// Regularization configures the starlet penalty applied to
	// pixelated components.
	Regularization struct {
		// Scales is the number of starlet detail scales.
		Scales int `yaml:"scales"`

		// K is the threshold level in units of the per-scale noise.
		K float64 `yaml:"k"`

		// Lambda is the penalty strength.
		Lambda float64 `yaml:"lambda"`
	} `yaml:"regularization"`

	// Fit holds the demo optimizer settings of the lensfit binary.
	Fit struct {
		// MaxIterations bounds the gradient-descent loop.
		MaxIterations int `yaml:"maxIterations"`

		// StepSize is the gradient-descent step.
		StepSize float64 `yaml:"stepSize"`
	} `yaml:"fit"`
}

// DefaultConfig returns a configuration with default values: an
// elliptical power-law deflector with external shear and an elliptical
// Sersic source on a 50x50 grid.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Grid = GridConfig{NX: 50, NY: 50, PixelScale: 0.05}

	cfg.Lens = []ProfileConfig{
		{Type: "EPL", Params: map[string]float64{
			"theta_E": 1.0, "gamma": 2.0, "e1": 0.05, "e2": -0.03,
		}},
		{Type: "SHEAR", Params: map[string]float64{
			"gamma1": 0.01, "gamma2": -0.02,
		}},
	}
	cfg.Source = []ProfileConfig{
		{Type: "SERSIC_ELLIPSE", Params: map[string]float64{
			"amp": 5.0, "R_sersic": 0.2, "n_sersic": 1.5,
			"e1": 0.1, "e2": 0.0, "center_x": 0.05, "center_y": 0.02,
		}},
	}

	cfg.PSF.Type = "gaussian"
	cfg.PSF.Sigma = 0.08
	cfg.PSF.Truncation = 4

	cfg.Likelihood.Exposure = 1000
	cfg.Likelihood.NoiseRMS = 0.05

	cfg.Regularization.Scales = 4
	cfg.Regularization.K = 3
	cfg.Regularization.Lambda = 1

	cfg.Fit.MaxIterations = 200
	cfg.Fit.StepSize = 1e-6

	return cfg
}

// LoadConfig loads configuration from a YAML file. If the file doesn't
// exist, it returns the default configuration.
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

// SaveConfig saves the configuration to a YAML file.
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

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
