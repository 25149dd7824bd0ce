// Package simulator renders model images: it ray-traces the image-plane
// pixel grid to the source plane, evaluates the source light there, adds
// any light emitted by the deflector itself, convolves with the
// instrument point-spread function and scales to observed counts. The
// whole rendering is a pure function of the parameter vector.
package simulator

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"lensfit/pkg/convolution"
	"lensfit/pkg/grid"
	"lensfit/pkg/lensing"
	"lensfit/pkg/model"
)

// Params configures an image simulator. Grid, Mass and Source are
// required; LensLight and PSF are optional (a missing PSF means a
// delta-function response).
type Params struct {
	// Grid is the image-plane pixel grid the model is rendered on.
	Grid *grid.Grid

	// Mass is the deflector mass model used for ray tracing.
	Mass *model.MassModel

	// Source is the source-plane light model, evaluated at ray-traced
	// coordinates.
	Source *model.LightModel

	// LensLight is the light of the deflector itself, evaluated in the
	// image plane. May be nil.
	LensLight *model.LightModel

	// PSF is the instrument response kernel. Nil means a delta
	// function.
	PSF *convolution.PixelKernel

	// Exposure scales surface brightness to observed counts. Zero means
	// unit exposure.
	Exposure float64
}

// Simulator renders model images for evolving parameter vectors. It is
// stateless across calls: the cached pixel coordinates are immutable, so
// concurrent callers with different parameter vectors never interfere.
type Simulator struct {
	grid      *grid.Grid
	solver    *lensing.Solver
	source    *model.LightModel
	lensLight *model.LightModel
	psf       *convolution.PixelKernel
	exposure  float64

	// image-plane pixel-center coordinates, fixed at construction
	x, y []float64

	massN, sourceN, lensLightN int
}

// New validates the configuration and builds a simulator.
func New(p Params) (*Simulator, error) {
	if p.Grid == nil {
		return nil, fmt.Errorf("simulator: grid is required")
	}
	if p.Mass == nil {
		return nil, fmt.Errorf("simulator: mass model is required")
	}
	if p.Source == nil {
		return nil, fmt.Errorf("simulator: source light model is required")
	}
	psf := p.PSF
	if psf == nil {
		psf = convolution.NewDeltaKernel()
	}
	exposure := p.Exposure
	if exposure == 0 {
		exposure = 1
	}
	if exposure < 0 {
		return nil, fmt.Errorf("simulator: exposure must be positive, got %g", exposure)
	}
	s := &Simulator{
		grid:      p.Grid,
		solver:    lensing.NewSolver(p.Mass),
		source:    p.Source,
		lensLight: p.LensLight,
		psf:       psf,
		exposure:  exposure,
		massN:     p.Mass.NumParams(),
		sourceN:   p.Source.NumParams(),
	}
	if p.LensLight != nil {
		s.lensLightN = p.LensLight.NumParams()
	}
	s.x, s.y = p.Grid.Coordinates()
	return s, nil
}

// Grid returns the image-plane grid.
func (s *Simulator) Grid() *grid.Grid { return s.grid }

// Solver returns the lens-equation solver.
func (s *Simulator) Solver() *lensing.Solver { return s.solver }

// PSFKernel returns the instrument-response kernel.
func (s *Simulator) PSFKernel() *convolution.PixelKernel { return s.psf }

// NumParams returns the full parameter-vector length: mass block, then
// source block, then lens-light block.
func (s *Simulator) NumParams() int { return s.massN + s.sourceN + s.lensLightN }

// SplitParams partitions the full vector into the mass, source and
// lens-light sub-vectors. A length mismatch is a configuration error.
func (s *Simulator) SplitParams(params []float64) (massP, sourceP, lensLightP []float64, err error) {
	if len(params) != s.NumParams() {
		return nil, nil, nil, fmt.Errorf("simulator: parameter vector length %d does not match model length %d", len(params), s.NumParams())
	}
	massP = params[:s.massN]
	sourceP = params[s.massN : s.massN+s.sourceN]
	lensLightP = params[s.massN+s.sourceN:]
	return massP, sourceP, lensLightP, nil
}

// Schema builds the parameter schema of the full vector, with blocks
// named lens.*, source.* and lens_light.*.
func (s *Simulator) Schema() *model.Schema {
	blocks := s.solver.Mass().DescribeBlocks("lens")
	blocks = append(blocks, s.source.DescribeBlocks("source")...)
	if s.lensLight != nil {
		blocks = append(blocks, s.lensLight.DescribeBlocks("lens_light")...)
	}
	return model.NewSchema(blocks...)
}

// ModelUnconvolved renders the model image before the instrument
// response: ray-traced source light plus deflector light, in counts per
// pixel.
func (s *Simulator) ModelUnconvolved(params []float64) ([]float64, error) {
	massP, sourceP, lensLightP, err := s.SplitParams(params)
	if err != nil {
		return nil, err
	}
	bx, by, err := s.solver.RayShoot(s.x, s.y, massP)
	if err != nil {
		return nil, err
	}
	sb, err := s.source.SurfaceBrightness(bx, by, sourceP)
	if err != nil {
		return nil, err
	}
	if s.lensLight != nil {
		lsb, err := s.lensLight.SurfaceBrightness(s.x, s.y, lensLightP)
		if err != nil {
			return nil, err
		}
		floats.Add(sb, lsb)
	}
	// surface brightness to counts per pixel
	floats.Scale(s.grid.PixelArea()*s.exposure, sb)
	return sb, nil
}

// Model renders the full model image including the instrument response.
// It is deterministic and free of side effects; non-finite parameter
// values propagate into the output.
func (s *Simulator) Model(params []float64) ([]float64, error) {
	sb, err := s.ModelUnconvolved(params)
	if err != nil {
		return nil, err
	}
	return s.psf.Convolve(sb, s.grid.NX(), s.grid.NY())
}
