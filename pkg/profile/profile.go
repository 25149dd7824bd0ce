// Package profile implements the physical profiles composed into mass
// and light models. A profile is a pure function of (coordinates,
// parameter block): mass profiles return deflection, lensing potential
// and convergence fields, light profiles return surface brightness.
// Analytic variants are closed-form and finite for all physically valid
// parameters; pixelated variants interpolate a stored pixel array on
// their own grid.
package profile

import "fmt"

// Mass profile type tags accepted by the registry.
const (
	TagEPL                = "EPL"
	TagSIE                = "SIE"
	TagShear              = "SHEAR"
	TagMultipole          = "MULTIPOLE"
	TagPointMass          = "POINT_MASS"
	TagConvergenceSheet   = "CONVERGENCE_SHEET"
	TagPixelatedPotential = "PIXELATED_POTENTIAL"
)

// Light profile type tags accepted by the registry.
const (
	TagSersic        = "SERSIC"
	TagSersicEllipse = "SERSIC_ELLIPSE"
	TagGaussian      = "GAUSSIAN"
	TagUniform       = "UNIFORM"
	TagPixelated     = "PIXELATED"
)

// MassProfile computes deflection-contributing quantities at arbitrary
// sky coordinates. Implementations are pure: no state is mutated by any
// evaluation, so a profile may be shared by concurrent callers.
//
// All methods take flattened coordinate arrays of equal length and a
// parameter block of length NumParams(); they return freshly allocated
// arrays of the same length as the coordinates. Non-finite parameter
// values propagate into the outputs, they are never masked.
type MassProfile interface {
	// Tag returns the registry tag identifying the profile type.
	Tag() string

	// ParamNames lists the parameter block layout in order.
	ParamNames() []string

	// NumParams returns the size of the parameter block.
	NumParams() int

	// Deflection returns the deflection field (alpha_x, alpha_y) in
	// arcseconds at each coordinate.
	Deflection(x, y, block []float64) (ax, ay []float64)

	// Potential returns the lensing potential at each coordinate.
	Potential(x, y, block []float64) []float64

	// Convergence returns the dimensionless projected mass density at
	// each coordinate.
	Convergence(x, y, block []float64) []float64
}

// LightProfile computes surface brightness at arbitrary sky coordinates.
// The same purity and shape contracts as MassProfile apply.
type LightProfile interface {
	Tag() string
	ParamNames() []string
	NumParams() int

	// SurfaceBrightness returns the brightness per square arcsecond at
	// each coordinate.
	SurfaceBrightness(x, y, block []float64) []float64
}

// TotalFluxer is implemented by light profiles whose spatially
// integrated flux has a closed form.
type TotalFluxer interface {
	// TotalFlux returns the analytic integral of the surface brightness
	// over the full plane for the given parameter block.
	TotalFlux(block []float64) float64
}

// NewMassProfile constructs an analytic mass profile from its registry
// tag. Pixelated variants carry their own grid and are constructed with
// NewPixelatedPotential instead. An unknown tag is a configuration
// error.
func NewMassProfile(tag string) (MassProfile, error) {
	switch tag {
	case TagEPL:
		return &EPL{}, nil
	case TagSIE:
		return &SIE{}, nil
	case TagShear:
		return &Shear{}, nil
	case TagMultipole:
		return &Multipole{}, nil
	case TagPointMass:
		return &PointMass{}, nil
	case TagConvergenceSheet:
		return &ConvergenceSheet{}, nil
	case TagPixelatedPotential:
		return nil, fmt.Errorf("profile: %s requires a grid, use NewPixelatedPotential", tag)
	default:
		return nil, fmt.Errorf("profile: unknown mass profile tag %q", tag)
	}
}

// NewLightProfile constructs an analytic light profile from its registry
// tag. Pixelated variants are constructed with NewPixelatedLight.
func NewLightProfile(tag string) (LightProfile, error) {
	switch tag {
	case TagSersic:
		return &Sersic{}, nil
	case TagSersicEllipse:
		return &SersicEllipse{}, nil
	case TagGaussian:
		return &Gaussian{}, nil
	case TagUniform:
		return &Uniform{}, nil
	case TagPixelated:
		return nil, fmt.Errorf("profile: %s requires a grid, use NewPixelatedLight", tag)
	default:
		return nil, fmt.Errorf("profile: unknown light profile tag %q", tag)
	}
}
