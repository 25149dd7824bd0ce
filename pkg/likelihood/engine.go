// Package likelihood scores simulated images against observed data. The
// engine exposes a scalar objective (chi-squared data term plus wavelet
// regularization and prior penalties) together with its gradient and the
// Fisher-matrix uncertainty estimate, all as pure functions of the
// parameter vector so that any gradient-based optimizer or sampler can
// consume them.
package likelihood

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"lensfit/internal/models"
	"lensfit/pkg/gradient"
	"lensfit/pkg/model"
	"lensfit/pkg/simulator"
	"lensfit/pkg/starlet"
)

// PixelRegularization attaches a starlet L1 penalty to one pixelated
// block of the parameter vector.
type PixelRegularization struct {
	// Offset locates the pixel block inside the full parameter vector.
	Offset int

	// NX, NY are the pixel grid dimensions of the block.
	NX, NY int

	// Transform is the starlet transform the penalty is computed with.
	Transform *starlet.Transform

	// Lambda is the regularization strength.
	Lambda float64

	// Sigma is the noise level the per-scale thresholds are derived
	// from.
	Sigma float64
}

// Engine evaluates the fit objective. It holds only read-only
// configuration, so it is re-entrant: concurrent callers with different
// parameter vectors never interfere, and the engine never mutates the
// caller's parameter vector.
type Engine struct {
	obs    *models.Observation
	sim    *simulator.Simulator
	schema *model.Schema
	diff   gradient.Differentiator
	regs   []PixelRegularization
}

// New builds an engine for one observation and simulator pair. The
// observation shape must match the simulator grid; a mismatch is a
// configuration error. A nil differentiator selects central finite
// differences.
func New(obs *models.Observation, sim *simulator.Simulator, diff gradient.Differentiator) (*Engine, error) {
	if obs == nil || sim == nil {
		return nil, fmt.Errorf("likelihood: observation and simulator are required")
	}
	if obs.NX != sim.Grid().NX() || obs.NY != sim.Grid().NY() {
		return nil, fmt.Errorf("likelihood: observation shape %dx%d does not match grid %dx%d",
			obs.NX, obs.NY, sim.Grid().NX(), sim.Grid().NY())
	}
	if diff == nil {
		diff = gradient.CentralDifference{}
	}
	return &Engine{
		obs:    obs,
		sim:    sim,
		schema: sim.Schema(),
		diff:   diff,
	}, nil
}

// Schema returns the parameter schema of the full vector.
func (e *Engine) Schema() *model.Schema { return e.schema }

// Simulator returns the forward model the engine scores.
func (e *Engine) Simulator() *simulator.Simulator { return e.sim }

// AddRegularization attaches a starlet penalty to a pixelated parameter
// block. The block must lie inside the parameter vector.
func (e *Engine) AddRegularization(reg PixelRegularization) error {
	if reg.Transform == nil {
		return fmt.Errorf("likelihood: regularization requires a starlet transform")
	}
	if reg.NX <= 0 || reg.NY <= 0 {
		return fmt.Errorf("likelihood: regularization grid %dx%d is invalid", reg.NX, reg.NY)
	}
	if reg.Offset < 0 || reg.Offset+reg.NX*reg.NY > e.schema.Total() {
		return fmt.Errorf("likelihood: regularization block [%d, %d) outside parameter vector of length %d",
			reg.Offset, reg.Offset+reg.NX*reg.NY, e.schema.Total())
	}
	if reg.Sigma <= 0 {
		return fmt.Errorf("likelihood: regularization sigma must be positive, got %g", reg.Sigma)
	}
	e.regs = append(e.regs, reg)
	return nil
}

// Chi2 returns the data-fit term: the sum over pixels of
// ((observed - simulated) / noise)^2. Non-finite model values propagate
// into the result so the caller's optimizer can detect divergence.
func (e *Engine) Chi2(params []float64) (float64, error) {
	modelImage, err := e.sim.Model(params)
	if err != nil {
		return 0, err
	}
	chi2 := 0.0
	for i, m := range modelImage {
		r := (e.obs.Image[i] - m) / e.obs.NoiseMap[i]
		chi2 += r * r
	}
	return chi2, nil
}

// LogLikelihood returns -Chi2/2, the Gaussian log-likelihood up to its
// constant normalization.
func (e *Engine) LogLikelihood(params []float64) (float64, error) {
	chi2, err := e.Chi2(params)
	if err != nil {
		return 0, err
	}
	return -0.5 * chi2, nil
}

// regularizationPenalty sums the starlet penalties over all registered
// pixelated blocks.
func (e *Engine) regularizationPenalty(params []float64) (float64, error) {
	total := 0.0
	for _, reg := range e.regs {
		pixels := params[reg.Offset : reg.Offset+reg.NX*reg.NY]
		p, err := reg.Transform.L1Penalty(pixels, reg.NX, reg.NY, reg.Sigma)
		if err != nil {
			return 0, err
		}
		total += reg.Lambda * p
	}
	return total, nil
}

// Objective returns the scalar the optimizer minimizes: chi-squared plus
// regularization and prior penalties. Values are only valid for the
// parameter vector that produced them and are never cached across calls.
func (e *Engine) Objective(params []float64) (float64, error) {
	if err := e.schema.Validate(params); err != nil {
		return 0, err
	}
	chi2, err := e.Chi2(params)
	if err != nil {
		return 0, err
	}
	reg, err := e.regularizationPenalty(params)
	if err != nil {
		return 0, err
	}
	return chi2 + reg + e.schema.PriorPenalty(params), nil
}

// objectiveFunc adapts Objective to the differentiation boundary. The
// parameter length is validated by the public entry points, so the only
// failures left inside the closure are numerical and surface as NaN.
func (e *Engine) objectiveFunc() func([]float64) float64 {
	return func(p []float64) float64 {
		v, err := e.Objective(p)
		if err != nil {
			return math.NaN()
		}
		return v
	}
}

// Gradient returns the partial derivatives of the objective with respect
// to every free parameter, via the differentiation boundary.
func (e *Engine) Gradient(params []float64) ([]float64, error) {
	if err := e.schema.Validate(params); err != nil {
		return nil, err
	}
	return e.diff.Gradient(e.objectiveFunc(), params), nil
}

// ValueAndGradient evaluates the objective and its gradient for one
// parameter vector.
func (e *Engine) ValueAndGradient(params []float64) (float64, []float64, error) {
	value, err := e.Objective(params)
	if err != nil {
		return 0, nil, err
	}
	return value, e.diff.Gradient(e.objectiveFunc(), params), nil
}

// fisherStep is the finite-difference step of the Fisher Hessian; larger
// than the gradient step because second differences lose more digits.
const fisherStep = 1e-4

// Fisher returns the Fisher information matrix, half the Hessian of
// chi-squared at the given parameters. Near the best fit it
// approximates the inverse parameter covariance.
func (e *Engine) Fisher(params []float64) (*mat.SymDense, error) {
	if err := e.schema.Validate(params); err != nil {
		return nil, err
	}
	chi2 := func(p []float64) float64 {
		v, err := e.Chi2(p)
		if err != nil {
			return math.NaN()
		}
		return v
	}
	h := gradient.Hessian(chi2, params, fisherStep)
	n := len(params)
	f := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			f.SetSym(i, j, 0.5*h.At(i, j))
		}
	}
	return f, nil
}

// Covariance inverts the Fisher matrix to estimate the parameter
// covariance. A singular Fisher matrix (a degenerate model) is reported
// as an error.
func (e *Engine) Covariance(params []float64) (*mat.Dense, error) {
	f, err := e.Fisher(params)
	if err != nil {
		return nil, err
	}
	var cov mat.Dense
	if err := cov.Inverse(f); err != nil {
		return nil, fmt.Errorf("likelihood: fisher matrix is singular: %w", err)
	}
	return &cov, nil
}
