package profile

import "math"

// SIE is the singular isothermal ellipsoid, the gamma = 2 member of the
// power-law family, in the closed form of Kormann et al. (1994). It
// shares the EPL normalization: kappa = b / (2 sqrt(q^2 x^2 + y^2)) with
// b = theta_E * sqrt(q) in the major-axis frame.
type SIE struct{}

var sieParamNames = []string{"theta_E", "e1", "e2", "center_x", "center_y"}

func (*SIE) Tag() string          { return TagSIE }
func (*SIE) ParamNames() []string { return sieParamNames }
func (*SIE) NumParams() int       { return len(sieParamNames) }

// nearCircular switches to the singular isothermal sphere formulas when
// 1-q^2 underflows the Kormann expressions.
const nearCircular = 1e-6

func (p *SIE) deflectionAt(x, y, thetaE, phi, q, cx, cy float64) (ax, ay float64) {
	xr, yr := rotateInto(x, y, cx, cy, phi)
	b := thetaE * math.Sqrt(q)
	r := math.Hypot(q*xr, yr)
	if r < minRadius {
		r = minRadius
	}
	qp := math.Sqrt(1 - q*q)
	var axr, ayr float64
	if qp < nearCircular {
		// isothermal sphere limit
		rr := math.Hypot(xr, yr)
		if rr < minRadius {
			rr = minRadius
		}
		axr = b * xr / rr
		ayr = b * yr / rr
	} else {
		axr = b / qp * math.Atan(qp*xr/r)
		ayr = b / qp * math.Atanh(qp*yr/r)
	}
	return rotateBack(axr, ayr, phi)
}

// Deflection implements MassProfile.
func (p *SIE) Deflection(x, y, block []float64) (ax, ay []float64) {
	thetaE := block[0]
	phi, q := ellipticityToPhiQ(block[1], block[2])
	cx, cy := block[3], block[4]
	ax = make([]float64, len(x))
	ay = make([]float64, len(x))
	for i := range x {
		ax[i], ay[i] = p.deflectionAt(x[i], y[i], thetaE, phi, q, cx, cy)
	}
	return ax, ay
}

// Potential implements MassProfile. Isothermal potentials are
// homogeneous of degree one: psi = x alpha_x + y alpha_y.
func (p *SIE) Potential(x, y, block []float64) []float64 {
	thetaE := block[0]
	phi, q := ellipticityToPhiQ(block[1], block[2])
	cx, cy := block[3], block[4]
	out := make([]float64, len(x))
	for i := range x {
		ax, ay := p.deflectionAt(x[i], y[i], thetaE, phi, q, cx, cy)
		out[i] = (x[i]-cx)*ax + (y[i]-cy)*ay
	}
	return out
}

// Convergence implements MassProfile.
func (p *SIE) Convergence(x, y, block []float64) []float64 {
	thetaE := block[0]
	phi, q := ellipticityToPhiQ(block[1], block[2])
	cx, cy := block[3], block[4]
	b := thetaE * math.Sqrt(q)
	out := make([]float64, len(x))
	for i := range x {
		xr, yr := rotateInto(x[i], y[i], cx, cy, phi)
		r := math.Hypot(q*xr, yr)
		if r < minRadius {
			r = minRadius
		}
		out[i] = b / (2 * r)
	}
	return out
}
