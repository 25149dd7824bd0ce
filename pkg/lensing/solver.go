// Package lensing implements the lens equation: the mapping from
// image-plane to source-plane coordinates through the total deflection
// field of a mass model, plus the derived convergence, shear and
// magnification maps and the inverse (multi-image) solver.
package lensing

import (
	"math"
	"sort"

	"lensfit/pkg/model"
)

// Solver ray-traces through a mass model. It is stateless: every method
// is a pure function of its inputs, so a Solver may be shared by
// concurrent callers with different parameter vectors.
type Solver struct {
	mass *model.MassModel
}

// NewSolver creates a solver for the given mass model.
func NewSolver(mass *model.MassModel) *Solver {
	return &Solver{mass: mass}
}

// Mass returns the underlying mass model.
func (s *Solver) Mass() *model.MassModel { return s.mass }

// RayShoot maps image-plane coordinates to source-plane coordinates by
// the lens equation beta = theta - alpha(theta). With zero deflection
// the source coordinates equal the image coordinates exactly.
func (s *Solver) RayShoot(x, y, params []float64) (bx, by []float64, err error) {
	ax, ay, err := s.mass.Deflection(x, y, params)
	if err != nil {
		return nil, nil, err
	}
	bx = make([]float64, len(x))
	by = make([]float64, len(x))
	for i := range x {
		bx[i] = x[i] - ax[i]
		by[i] = y[i] - ay[i]
	}
	return bx, by, nil
}

// hessianStep is the central-difference step, in arcseconds, used for
// the deflection Jacobian.
const hessianStep = 1e-5

// Hessian returns the second derivatives (f_xx, f_xy, f_yx, f_yy) of
// the lensing potential at a single coordinate, from central differences
// of the deflection field.
func (s *Solver) Hessian(x, y float64, params []float64) (fxx, fxy, fyx, fyy float64, err error) {
	xs := []float64{x + hessianStep, x - hessianStep, x, x}
	ys := []float64{y, y, y + hessianStep, y - hessianStep}
	ax, ay, err := s.mass.Deflection(xs, ys, params)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	fxx = (ax[0] - ax[1]) / (2 * hessianStep)
	fyx = (ay[0] - ay[1]) / (2 * hessianStep)
	fxy = (ax[2] - ax[3]) / (2 * hessianStep)
	fyy = (ay[2] - ay[3]) / (2 * hessianStep)
	return fxx, fxy, fyx, fyy, nil
}

// Convergence returns the convergence at each coordinate from the
// numerical Hessian, kappa = (f_xx + f_yy) / 2. It agrees with the
// analytic model convergence up to finite-difference error, which makes
// it the right map for pixelated potential components with no closed
// form.
func (s *Solver) Convergence(x, y []float64, params []float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range x {
		fxx, _, _, fyy, err := s.Hessian(x[i], y[i], params)
		if err != nil {
			return nil, err
		}
		out[i] = 0.5 * (fxx + fyy)
	}
	return out, nil
}

// Shear returns the two shear components at each coordinate,
// gamma1 = (f_xx - f_yy) / 2 and gamma2 = f_xy.
func (s *Solver) Shear(x, y []float64, params []float64) (g1, g2 []float64, err error) {
	g1 = make([]float64, len(x))
	g2 = make([]float64, len(x))
	for i := range x {
		fxx, fxy, fyx, fyy, err := s.Hessian(x[i], y[i], params)
		if err != nil {
			return nil, nil, err
		}
		g1[i] = 0.5 * (fxx - fyy)
		g2[i] = 0.5 * (fxy + fyx)
	}
	return g1, g2, nil
}

// Magnification returns the signed lensing magnification at each
// coordinate, 1 / det(A) with A the Jacobian of the lens equation.
func (s *Solver) Magnification(x, y []float64, params []float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range x {
		fxx, fxy, fyx, fyy, err := s.Hessian(x[i], y[i], params)
		if err != nil {
			return nil, err
		}
		det := (1-fxx)*(1-fyy) - fxy*fyx
		out[i] = 1 / det
	}
	return out, nil
}

// SolveOptions tunes the inverse (image-position) solver.
type SolveOptions struct {
	// SearchRadius bounds the image-plane search window around the
	// source position, in arcseconds.
	SearchRadius float64

	// GridPoints is the number of candidate points per axis of the
	// coarse search grid.
	GridPoints int

	// Tolerance is the source-plane convergence criterion in
	// arcseconds.
	Tolerance float64

	// MaxIterations bounds the Newton refinement per candidate.
	MaxIterations int
}

// DefaultSolveOptions returns the options used when none are supplied.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		SearchRadius:  5,
		GridPoints:    60,
		Tolerance:     1e-8,
		MaxIterations: 50,
	}
}

// ImagePosition is one image-plane solution of the lens equation for a
// fixed source position.
type ImagePosition struct {
	X, Y float64

	// Magnification is the signed magnification at the image.
	Magnification float64
}

// SolveImagePositions finds the image-plane positions that map to the
// given source position: the multiply-imaged solutions of the lens
// equation. Candidates from a coarse grid are refined with a damped
// Newton iteration on delta(theta) = beta(theta) - betaSrc using the
// lensing Jacobian. Candidates that fail to converge within
// MaxIterations are dropped, so a degenerate configuration yields a
// smaller (possibly empty) solution set rather than an error.
func (s *Solver) SolveImagePositions(betaX, betaY float64, params []float64, opts SolveOptions) ([]ImagePosition, error) {
	if opts.GridPoints <= 0 {
		opts = DefaultSolveOptions()
	}
	n := opts.GridPoints
	xs := make([]float64, 0, n*n)
	ys := make([]float64, 0, n*n)
	for iy := 0; iy < n; iy++ {
		for ix := 0; ix < n; ix++ {
			xs = append(xs, betaX-opts.SearchRadius+2*opts.SearchRadius*float64(ix)/float64(n-1))
			ys = append(ys, betaY-opts.SearchRadius+2*opts.SearchRadius*float64(iy)/float64(n-1))
		}
	}
	bx, by, err := s.RayShoot(xs, ys, params)
	if err != nil {
		return nil, err
	}

	// keep grid points that are local minima of the source-plane
	// displacement
	dist2 := make([]float64, len(xs))
	for i := range xs {
		dx := bx[i] - betaX
		dy := by[i] - betaY
		dist2[i] = dx*dx + dy*dy
	}
	var candidates []int
	for iy := 1; iy < n-1; iy++ {
		for ix := 1; ix < n-1; ix++ {
			idx := iy*n + ix
			d := dist2[idx]
			if math.IsNaN(d) {
				continue
			}
			if d <= dist2[idx-1] && d <= dist2[idx+1] && d <= dist2[idx-n] && d <= dist2[idx+n] {
				candidates = append(candidates, idx)
			}
		}
	}

	cell := 2 * opts.SearchRadius / float64(n-1)
	var solutions []ImagePosition
	for _, idx := range candidates {
		px, py, ok := s.refine(xs[idx], ys[idx], betaX, betaY, params, opts)
		if !ok {
			continue
		}
		dup := false
		for _, sol := range solutions {
			if math.Hypot(sol.X-px, sol.Y-py) < cell/2 {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		mags, err := s.Magnification([]float64{px}, []float64{py}, params)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, ImagePosition{X: px, Y: py, Magnification: mags[0]})
	}
	sort.Slice(solutions, func(i, j int) bool {
		return math.Abs(solutions[i].Magnification) > math.Abs(solutions[j].Magnification)
	})
	return solutions, nil
}

// refine runs the damped Newton iteration from one candidate.
func (s *Solver) refine(x, y, betaX, betaY float64, params []float64, opts SolveOptions) (float64, float64, bool) {
	for it := 0; it < opts.MaxIterations; it++ {
		bx, by, err := s.RayShoot([]float64{x}, []float64{y}, params)
		if err != nil {
			return 0, 0, false
		}
		dx := bx[0] - betaX
		dy := by[0] - betaY
		if math.Hypot(dx, dy) < opts.Tolerance {
			return x, y, true
		}
		fxx, fxy, fyx, fyy, err := s.Hessian(x, y, params)
		if err != nil {
			return 0, 0, false
		}
		// Jacobian of the lens equation
		a11 := 1 - fxx
		a12 := -fxy
		a21 := -fyx
		a22 := 1 - fyy
		det := a11*a22 - a12*a21
		if math.Abs(det) < 1e-14 || math.IsNaN(det) {
			return 0, 0, false
		}
		stepX := (a22*dx - a12*dy) / det
		stepY := (-a21*dx + a11*dy) / det
		// damp long steps near critical curves
		norm := math.Hypot(stepX, stepY)
		if norm > opts.SearchRadius/2 {
			scale := opts.SearchRadius / 2 / norm
			stepX *= scale
			stepY *= scale
		}
		x -= stepX
		y -= stepY
	}
	return 0, 0, false
}
