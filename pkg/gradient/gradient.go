// Package gradient is the differentiation boundary of the forward
// model. The likelihood engine expresses itself as a pure function of
// the parameter vector; this package turns such functions into gradients
// and Hessians. The default implementation uses central finite
// differences, but any differentiation strategy satisfying the
// Differentiator contract can be substituted without touching the core.
package gradient

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Differentiator computes the gradient of a pure scalar function. The
// function must be deterministic and must not mutate its argument;
// implementations may evaluate it concurrently.
type Differentiator interface {
	Gradient(f func([]float64) float64, x []float64) []float64
}

// CentralDifference differentiates with second-order central finite
// differences.
type CentralDifference struct {
	// Step is the absolute perturbation step. Zero selects the formula
	// default.
	Step float64

	// Concurrent allows evaluating the function from multiple
	// goroutines, which is safe because the forward model is pure.
	Concurrent bool
}

// Gradient implements Differentiator.
func (c CentralDifference) Gradient(f func([]float64) float64, x []float64) []float64 {
	settings := &fd.Settings{
		Formula:    fd.Central,
		Step:       c.Step,
		Concurrent: c.Concurrent,
	}
	return fd.Gradient(nil, f, x, settings)
}

// Hessian estimates the matrix of second derivatives of f at x with
// finite differences. The result backs the Fisher-matrix uncertainty
// analysis.
func Hessian(f func([]float64) float64, x []float64, step float64) *mat.SymDense {
	dst := mat.NewSymDense(len(x), nil)
	fd.Hessian(dst, f, x, &fd.Settings{Step: step})
	return dst
}
