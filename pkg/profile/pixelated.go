package profile

import (
	"math"

	"lensfit/pkg/grid"
)

// bilinear interpolates a row-major (ny, nx) field at fractional pixel
// coordinates. Coordinates on the grid edge are valid; coordinates
// outside the extent return the defined boundary value zero, never a
// failure or a non-finite number.
func bilinear(values []float64, nx, ny int, ix, iy float64) float64 {
	if math.IsNaN(ix) || math.IsNaN(iy) {
		return math.NaN()
	}
	if ix < 0 || iy < 0 || ix > float64(nx-1) || iy > float64(ny-1) {
		return 0
	}
	x0 := int(ix)
	y0 := int(iy)
	// exact upper edge: step the base cell inward so the weights stay
	// in [0, 1]
	if x0 == nx-1 {
		x0 = nx - 2
	}
	if y0 == ny-1 {
		y0 = ny - 2
	}
	if nx == 1 {
		x0 = 0
	}
	if ny == 1 {
		y0 = 0
	}
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > nx-1 {
		x1 = nx - 1
	}
	if y1 > ny-1 {
		y1 = ny - 1
	}
	u := ix - float64(x0)
	v := iy - float64(y0)
	p00 := values[y0*nx+x0]
	p10 := values[y0*nx+x1]
	p01 := values[y1*nx+x0]
	p11 := values[y1*nx+x1]
	return (1-u)*(1-v)*p00 + u*(1-v)*p10 + (1-u)*v*p01 + u*v*p11
}

// bilinearGradient returns the gradient of the bilinear interpolant in
// pixel units. Inside a cell the interpolant is bilinear, so its
// gradient is exact and piecewise smooth. Outside the extent the
// gradient is zero, matching the zero boundary value.
func bilinearGradient(values []float64, nx, ny int, ix, iy float64) (gx, gy float64) {
	if ix < 0 || iy < 0 || ix > float64(nx-1) || iy > float64(ny-1) {
		return 0, 0
	}
	x0 := int(ix)
	y0 := int(iy)
	if x0 >= nx-1 {
		x0 = nx - 2
	}
	if y0 >= ny-1 {
		y0 = ny - 2
	}
	if x0 < 0 || y0 < 0 {
		return 0, 0
	}
	x1 := x0 + 1
	y1 := y0 + 1
	u := ix - float64(x0)
	v := iy - float64(y0)
	p00 := values[y0*nx+x0]
	p10 := values[y0*nx+x1]
	p01 := values[y1*nx+x0]
	p11 := values[y1*nx+x1]
	gx = (1-v)*(p10-p00) + v*(p11-p01)
	gy = (1-u)*(p01-p00) + u*(p11-p10)
	return gx, gy
}

// PixelatedLight is a free-form surface-brightness component backed by a
// grid. Its parameter block is the flattened pixel array itself
// (row-major, length nx*ny), so every pixel value is a free parameter
// the optimizer can move.
type PixelatedLight struct {
	grid *grid.Grid
}

// NewPixelatedLight creates a pixelated light profile on g. The grid is
// shared by reference and never mutated.
func NewPixelatedLight(g *grid.Grid) *PixelatedLight {
	return &PixelatedLight{grid: g}
}

func (*PixelatedLight) Tag() string { return TagPixelated }

// ParamNames returns the single logical name of the pixel block; the
// block itself holds nx*ny values.
func (*PixelatedLight) ParamNames() []string { return []string{"pixels"} }

func (p *PixelatedLight) NumParams() int { return p.grid.NumPixels() }

// Grid returns the grid the pixel values live on.
func (p *PixelatedLight) Grid() *grid.Grid { return p.grid }

// SurfaceBrightness implements LightProfile by bilinear interpolation of
// the pixel block at the requested sky coordinates.
func (p *PixelatedLight) SurfaceBrightness(x, y, block []float64) []float64 {
	nx, ny := p.grid.NX(), p.grid.NY()
	out := make([]float64, len(x))
	for i := range x {
		ix, iy := p.grid.SkyToPixel(x[i], y[i])
		out[i] = bilinear(block, nx, ny, ix, iy)
	}
	return out
}

// PixelatedPotential is a free-form lensing-potential correction backed
// by a grid. The deflection is the exact gradient of the bilinear
// interpolant, converted from pixel to sky units, so ray tracing through
// it stays consistent with the interpolated potential.
type PixelatedPotential struct {
	grid *grid.Grid
}

// NewPixelatedPotential creates a pixelated potential profile on g.
func NewPixelatedPotential(g *grid.Grid) *PixelatedPotential {
	return &PixelatedPotential{grid: g}
}

func (*PixelatedPotential) Tag() string          { return TagPixelatedPotential }
func (*PixelatedPotential) ParamNames() []string { return []string{"pixels"} }

func (p *PixelatedPotential) NumParams() int { return p.grid.NumPixels() }

// Grid returns the grid the potential values live on.
func (p *PixelatedPotential) Grid() *grid.Grid { return p.grid }

// Potential implements MassProfile.
func (p *PixelatedPotential) Potential(x, y, block []float64) []float64 {
	nx, ny := p.grid.NX(), p.grid.NY()
	out := make([]float64, len(x))
	for i := range x {
		ix, iy := p.grid.SkyToPixel(x[i], y[i])
		out[i] = bilinear(block, nx, ny, ix, iy)
	}
	return out
}

// Deflection implements MassProfile. The pixel-frame gradient is rotated
// into the sky frame and scaled by the pixel size.
func (p *PixelatedPotential) Deflection(x, y, block []float64) (ax, ay []float64) {
	nx, ny := p.grid.NX(), p.grid.NY()
	scale := p.grid.PixelScale()
	rot := p.grid.Rotation()
	c, s := math.Cos(rot), math.Sin(rot)
	ax = make([]float64, len(x))
	ay = make([]float64, len(x))
	for i := range x {
		ix, iy := p.grid.SkyToPixel(x[i], y[i])
		gx, gy := bilinearGradient(block, nx, ny, ix, iy)
		gx /= scale
		gy /= scale
		ax[i] = c*gx - s*gy
		ay[i] = s*gx + c*gy
	}
	return ax, ay
}

// Convergence implements MassProfile: half the discrete Laplacian of the
// stored potential, interpolated at the requested coordinates. Grid
// borders, where the Laplacian stencil is undefined, hold zero.
func (p *PixelatedPotential) Convergence(x, y, block []float64) []float64 {
	nx, ny := p.grid.NX(), p.grid.NY()
	scale2 := p.grid.PixelScale() * p.grid.PixelScale()
	lap := make([]float64, nx*ny)
	for iy := 1; iy < ny-1; iy++ {
		for ix := 1; ix < nx-1; ix++ {
			idx := iy*nx + ix
			lap[idx] = (block[idx-1] + block[idx+1] + block[idx-nx] + block[idx+nx] - 4*block[idx]) / scale2
		}
	}
	out := make([]float64, len(x))
	for i := range x {
		ix, iy := p.grid.SkyToPixel(x[i], y[i])
		out[i] = 0.5 * bilinear(lap, nx, ny, ix, iy)
	}
	return out
}
