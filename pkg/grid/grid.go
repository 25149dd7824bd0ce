// Package grid defines the pixelated coordinate system shared by every
// component of the forward model. A Grid maps between pixel-index space
// and physical (sky) coordinates in arcseconds, and the mapping is
// bijective so that all components sharing a Grid agree on where each
// pixel sits on the sky.
package grid

import (
	"fmt"
	"math"
)

// Grid is an immutable pixelated coordinate system. It is constructed
// once per model configuration and shared by reference (read-only) by
// the profiles and the image simulator that use it.
type Grid struct {
	// originX, originY is the sky coordinate of the center of pixel (0, 0)
	// in arcseconds.
	originX, originY float64

	// pixelScale is the angular size of one pixel in arcseconds.
	pixelScale float64

	// rotation is the angle in radians between the pixel axes and the
	// sky axes, measured counterclockwise.
	rotation float64

	// nx, ny are the pixel counts along the x and y axes.
	nx, ny int

	cosR, sinR float64
}

// New creates a Grid and validates its geometry. Pixel scale and pixel
// counts must be strictly positive; violations are configuration errors
// and fail immediately.
func New(originX, originY, pixelScale, rotation float64, nx, ny int) (*Grid, error) {
	if pixelScale <= 0 {
		return nil, fmt.Errorf("grid: pixel scale must be positive, got %g", pixelScale)
	}
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("grid: pixel counts must be positive, got %dx%d", nx, ny)
	}
	return &Grid{
		originX:    originX,
		originY:    originY,
		pixelScale: pixelScale,
		rotation:   rotation,
		nx:         nx,
		ny:         ny,
		cosR:       math.Cos(rotation),
		sinR:       math.Sin(rotation),
	}, nil
}

// NewCentered creates a Grid whose physical center sits at (centerX,
// centerY). This is the usual way observations are configured: the
// optical axis at the middle of the cutout.
func NewCentered(centerX, centerY, pixelScale, rotation float64, nx, ny int) (*Grid, error) {
	g, err := New(0, 0, pixelScale, rotation, nx, ny)
	if err != nil {
		return nil, err
	}
	// Shift the origin so that the grid center lands on the requested
	// sky position.
	cx, cy := g.PixelToSky(float64(nx-1)/2, float64(ny-1)/2)
	g.originX = centerX - cx
	g.originY = centerY - cy
	return g, nil
}

// NX returns the number of pixels along the x axis.
func (g *Grid) NX() int { return g.nx }

// NY returns the number of pixels along the y axis.
func (g *Grid) NY() int { return g.ny }

// NumPixels returns the total pixel count nx*ny.
func (g *Grid) NumPixels() int { return g.nx * g.ny }

// PixelScale returns the angular pixel size in arcseconds.
func (g *Grid) PixelScale() float64 { return g.pixelScale }

// Rotation returns the grid rotation angle in radians.
func (g *Grid) Rotation() float64 { return g.rotation }

// PixelArea returns the solid angle covered by one pixel in
// square arcseconds.
func (g *Grid) PixelArea() float64 { return g.pixelScale * g.pixelScale }

// PixelToSky maps fractional pixel indices to sky coordinates.
func (g *Grid) PixelToSky(ix, iy float64) (x, y float64) {
	dx := ix * g.pixelScale
	dy := iy * g.pixelScale
	x = g.originX + g.cosR*dx - g.sinR*dy
	y = g.originY + g.sinR*dx + g.cosR*dy
	return x, y
}

// SkyToPixel maps sky coordinates to fractional pixel indices. It is the
// exact inverse of PixelToSky.
func (g *Grid) SkyToPixel(x, y float64) (ix, iy float64) {
	dx := x - g.originX
	dy := y - g.originY
	ix = (g.cosR*dx + g.sinR*dy) / g.pixelScale
	iy = (-g.sinR*dx + g.cosR*dy) / g.pixelScale
	return ix, iy
}

// Center returns the sky coordinate of the grid center.
func (g *Grid) Center() (x, y float64) {
	return g.PixelToSky(float64(g.nx-1)/2, float64(g.ny-1)/2)
}

// Coordinates returns the sky coordinates of every pixel center as two
// flattened arrays in row-major order (iy outer, ix inner), each of
// length nx*ny. The returned slices are freshly allocated on every call
// so callers may mutate them freely.
func (g *Grid) Coordinates() (x, y []float64) {
	n := g.nx * g.ny
	x = make([]float64, n)
	y = make([]float64, n)
	for iy := 0; iy < g.ny; iy++ {
		for ix := 0; ix < g.nx; ix++ {
			idx := iy*g.nx + ix
			x[idx], y[idx] = g.PixelToSky(float64(ix), float64(iy))
		}
	}
	return x, y
}

// Extent returns the sky-coordinate bounding box of the pixel centers as
// (xmin, xmax, ymin, ymax). For rotated grids the box bounds the rotated
// corners.
func (g *Grid) Extent() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, c := range [][2]float64{
		{0, 0},
		{float64(g.nx - 1), 0},
		{0, float64(g.ny - 1)},
		{float64(g.nx - 1), float64(g.ny - 1)},
	} {
		x, y := g.PixelToSky(c[0], c[1])
		xmin = math.Min(xmin, x)
		xmax = math.Max(xmax, x)
		ymin = math.Min(ymin, y)
		ymax = math.Max(ymax, y)
	}
	return xmin, xmax, ymin, ymax
}
