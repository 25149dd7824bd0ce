package models

import (
	"fmt"
	"math"
)

// Observation is the fixed data triplet a fit runs against: the observed
// image, its per-pixel noise standard deviations and the pixelated
// point-spread-function kernel. It is immutable for the duration of a
// fit and safe to share by reference across concurrent evaluations.
type Observation struct {
	// Image is the observed image as a 1D array in row-major order.
	Image []float64

	// NoiseMap holds the per-pixel noise standard deviation, same shape
	// as Image. Every entry must be positive and finite.
	NoiseMap []float64

	// NX, NY are the image dimensions in pixels.
	NX, NY int

	// PSF is the point-spread-function kernel as a 1D array in
	// row-major order, with odd dimensions.
	PSF []float64

	// PSFNX, PSFNY are the kernel dimensions in pixels.
	PSFNX, PSFNY int
}

// NewObservation validates shapes and the noise map. Violations are
// configuration errors and fail immediately.
func NewObservation(image, noise []float64, nx, ny int, psf []float64, psfNX, psfNY int) (*Observation, error) {
	if nx <= 0 || ny <= 0 || len(image) != nx*ny {
		return nil, fmt.Errorf("observation: image length %d does not match %dx%d", len(image), nx, ny)
	}
	if len(noise) != nx*ny {
		return nil, fmt.Errorf("observation: noise map length %d does not match %dx%d", len(noise), nx, ny)
	}
	for i, s := range noise {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("observation: noise map entry %d is %g, must be positive and finite", i, s)
		}
	}
	if psfNX <= 0 || psfNY <= 0 || len(psf) != psfNX*psfNY {
		return nil, fmt.Errorf("observation: psf length %d does not match %dx%d", len(psf), psfNX, psfNY)
	}
	if psfNX%2 == 0 || psfNY%2 == 0 {
		return nil, fmt.Errorf("observation: psf dimensions must be odd, got %dx%d", psfNX, psfNY)
	}
	return &Observation{
		Image:    image,
		NoiseMap: noise,
		NX:       nx,
		NY:       ny,
		PSF:      psf,
		PSFNX:    psfNX,
		PSFNY:    psfNY,
	}, nil
}
