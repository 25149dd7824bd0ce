package config

import (
	"fmt"

	"lensfit/pkg/convolution"
	"lensfit/pkg/grid"
	"lensfit/pkg/model"
	"lensfit/pkg/profile"
	"lensfit/pkg/simulator"
)

// BuildGrid constructs the grid declared by a GridConfig.
func (gc GridConfig) BuildGrid() (*grid.Grid, error) {
	return grid.NewCentered(gc.CenterX, gc.CenterY, gc.PixelScale, gc.Rotation, gc.NX, gc.NY)
}

// initialBlock orders the configured parameter values by the profile's
// declared parameter names. Missing names default to zero; pixelated
// blocks start from all-zero pixels.
func initialBlock(names []string, size int, params map[string]float64) []float64 {
	block := make([]float64, size)
	if size != len(names) {
		return block
	}
	for i, name := range names {
		block[i] = params[name]
	}
	return block
}

// buildMassProfiles constructs the configured mass profiles together
// with their concatenated initial parameter block.
func buildMassProfiles(cfgs []ProfileConfig) ([]profile.MassProfile, []float64, error) {
	var profiles []profile.MassProfile
	var init []float64
	for i, pc := range cfgs {
		var p profile.MassProfile
		if pc.Type == profile.TagPixelatedPotential {
			if pc.Grid == nil {
				return nil, nil, fmt.Errorf("config: lens profile %d (%s) requires a grid", i, pc.Type)
			}
			g, err := pc.Grid.BuildGrid()
			if err != nil {
				return nil, nil, fmt.Errorf("config: lens profile %d: %w", i, err)
			}
			p = profile.NewPixelatedPotential(g)
		} else {
			var err error
			p, err = profile.NewMassProfile(pc.Type)
			if err != nil {
				return nil, nil, fmt.Errorf("config: lens profile %d: %w", i, err)
			}
		}
		profiles = append(profiles, p)
		init = append(init, initialBlock(p.ParamNames(), p.NumParams(), pc.Params)...)
	}
	return profiles, init, nil
}

// buildLightProfiles constructs the configured light profiles together
// with their concatenated initial parameter block.
func buildLightProfiles(cfgs []ProfileConfig) ([]profile.LightProfile, []float64, error) {
	var profiles []profile.LightProfile
	var init []float64
	for i, pc := range cfgs {
		var p profile.LightProfile
		if pc.Type == profile.TagPixelated {
			if pc.Grid == nil {
				return nil, nil, fmt.Errorf("config: light profile %d (%s) requires a grid", i, pc.Type)
			}
			g, err := pc.Grid.BuildGrid()
			if err != nil {
				return nil, nil, fmt.Errorf("config: light profile %d: %w", i, err)
			}
			p = profile.NewPixelatedLight(g)
		} else {
			var err error
			p, err = profile.NewLightProfile(pc.Type)
			if err != nil {
				return nil, nil, fmt.Errorf("config: light profile %d: %w", i, err)
			}
		}
		profiles = append(profiles, p)
		init = append(init, initialBlock(p.ParamNames(), p.NumParams(), pc.Params)...)
	}
	return profiles, init, nil
}

// buildPSF constructs the configured instrument-response kernel.
func (c *Config) buildPSF() (*convolution.PixelKernel, error) {
	switch c.PSF.Type {
	case "", "delta":
		return convolution.NewDeltaKernel(), nil
	case "gaussian":
		if c.Grid.PixelScale <= 0 {
			return nil, fmt.Errorf("config: gaussian psf requires a positive pixel scale")
		}
		return convolution.NewGaussianKernel(c.PSF.Sigma/c.Grid.PixelScale, c.PSF.Truncation, convolution.Auto)
	default:
		return nil, fmt.Errorf("config: unknown psf type %q", c.PSF.Type)
	}
}

// BuildSimulator constructs the full forward model declared by the
// configuration and returns it together with the initial parameter
// vector (mass block, then source block, then lens-light block).
func (c *Config) BuildSimulator() (*simulator.Simulator, []float64, error) {
	g, err := c.Grid.BuildGrid()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	massProfiles, massInit, err := buildMassProfiles(c.Lens)
	if err != nil {
		return nil, nil, err
	}
	mass, err := model.NewMassModel(massProfiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	sourceProfiles, sourceInit, err := buildLightProfiles(c.Source)
	if err != nil {
		return nil, nil, err
	}
	source, err := model.NewLightModel(sourceProfiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	var lensLight *model.LightModel
	var lensLightInit []float64
	if len(c.LensLight) > 0 {
		lightProfiles, init, err := buildLightProfiles(c.LensLight)
		if err != nil {
			return nil, nil, err
		}
		lensLight, err = model.NewLightModel(lightProfiles...)
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		lensLightInit = init
	}

	psf, err := c.buildPSF()
	if err != nil {
		return nil, nil, err
	}

	sim, err := simulator.New(simulator.Params{
		Grid:      g,
		Mass:      mass,
		Source:    source,
		LensLight: lensLight,
		PSF:       psf,
		Exposure:  c.Likelihood.Exposure,
	})
	if err != nil {
		return nil, nil, err
	}

	params := append(append(massInit, sourceInit...), lensLightInit...)
	return sim, params, nil
}

// FixedMask maps the configured fixed-parameter declarations onto a
// boolean mask over the schema's parameter vector. The schema must come
// from the simulator built by this configuration, so its blocks line up
// with the lens, source and lens-light profile lists in order.
func (c *Config) FixedMask(s *model.Schema) []bool {
	mask := make([]bool, s.Total())
	cfgs := make([]ProfileConfig, 0, len(c.Lens)+len(c.Source)+len(c.LensLight))
	cfgs = append(cfgs, c.Lens...)
	cfgs = append(cfgs, c.Source...)
	cfgs = append(cfgs, c.LensLight...)
	blocks := s.Blocks()
	if len(cfgs) != len(blocks) {
		return mask
	}
	for i, b := range blocks {
		for _, name := range cfgs[i].Fixed {
			if len(b.ParamNames) == b.Size {
				for j, pn := range b.ParamNames {
					if pn == name {
						mask[b.Offset+j] = true
					}
				}
			} else if name == "pixels" {
				for j := 0; j < b.Size; j++ {
					mask[b.Offset+j] = true
				}
			}
		}
	}
	return mask
}
