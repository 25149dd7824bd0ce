package profile

import "math"

// Gaussian is a circular Gaussian light profile normalized so that amp
// is the total flux.
type Gaussian struct{}

var gaussianParamNames = []string{"amp", "sigma", "center_x", "center_y"}

func (*Gaussian) Tag() string          { return TagGaussian }
func (*Gaussian) ParamNames() []string { return gaussianParamNames }
func (*Gaussian) NumParams() int       { return len(gaussianParamNames) }

// SurfaceBrightness implements LightProfile.
func (*Gaussian) SurfaceBrightness(x, y, block []float64) []float64 {
	amp, sigma := block[0], block[1]
	cx, cy := block[2], block[3]
	if sigma < minRadius {
		sigma = minRadius
	}
	norm := amp / (2 * math.Pi * sigma * sigma)
	out := make([]float64, len(x))
	for i := range x {
		dx := x[i] - cx
		dy := y[i] - cy
		out[i] = norm * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
	}
	return out
}

// TotalFlux implements TotalFluxer.
func (*Gaussian) TotalFlux(block []float64) float64 { return block[0] }

// Uniform is a constant surface-brightness pedestal, mostly used to
// absorb sky-background residuals.
type Uniform struct{}

var uniformParamNames = []string{"amp"}

func (*Uniform) Tag() string          { return TagUniform }
func (*Uniform) ParamNames() []string { return uniformParamNames }
func (*Uniform) NumParams() int       { return len(uniformParamNames) }

// SurfaceBrightness implements LightProfile.
func (*Uniform) SurfaceBrightness(x, y, block []float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = block[0]
	}
	return out
}
