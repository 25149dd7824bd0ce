package profile

import "math"

// eplSeriesMax bounds the angular series of the elliptical power-law
// deflection. The series contracts by (1-q)/(1+q) per term, so 200
// terms reach machine precision even at the ellipticity cap.
const eplSeriesMax = 200

// eplSeriesTol terminates the series early once the remaining terms are
// below double precision.
const eplSeriesTol = 1e-16

// EPL is the elliptical power-law mass profile. Its convergence is
//
//	kappa(R) = (3 - gamma)/2 * (b / R)^(gamma-1)
//
// with elliptical radius R = sqrt(q^2 x^2 + y^2) in the major-axis frame
// and b = theta_E * sqrt(q), so theta_E is the circularized Einstein
// radius. The deflection follows the angular series of Tessore & Metcalf
// (2015), which converges for every axis ratio in (0, 1].
type EPL struct{}

var eplParamNames = []string{"theta_E", "gamma", "e1", "e2", "center_x", "center_y"}

func (*EPL) Tag() string          { return TagEPL }
func (*EPL) ParamNames() []string { return eplParamNames }
func (*EPL) NumParams() int       { return len(eplParamNames) }

// eplShape extracts and bounds the shape parameters of a block. The
// logarithmic slope is kept strictly inside (1, 3) so the power-law
// exponents stay finite.
func eplShape(block []float64) (thetaE, gamma, phi, q, cx, cy float64) {
	thetaE = block[0]
	gamma = block[1]
	if gamma < 1.01 {
		gamma = 1.01
	} else if gamma > 2.99 {
		gamma = 2.99
	}
	phi, q = ellipticityToPhiQ(block[2], block[3])
	cx, cy = block[4], block[5]
	return
}

// eplOmega evaluates the complex angular part of the deflection as the
// hypergeometric series of Tessore & Metcalf (2015), eq. 29:
//
//	Omega = sum_n omega_n,  omega_0 = exp(i phi),
//	omega_n = -f (2n - (2-t))/(2n + (2-t)) exp(2 i phi) omega_{n-1}
//
// with f = (1-q)/(1+q) and t = gamma - 1.
func eplOmega(ang, t, q float64) (re, im float64) {
	f := (1 - q) / (1 + q)
	or, oi := math.Cos(ang), math.Sin(ang)
	re, im = or, oi
	c2, s2 := math.Cos(2*ang), math.Sin(2*ang)
	for n := 1; n <= eplSeriesMax; n++ {
		fac := -f * (2*float64(n) - (2 - t)) / (2*float64(n) + (2 - t))
		or, oi = fac*(or*c2-oi*s2), fac*(or*s2+oi*c2)
		re += or
		im += oi
		if or*or+oi*oi < eplSeriesTol*eplSeriesTol {
			break
		}
	}
	return re, im
}

// deflectionAt computes the deflection of one coordinate in the sky
// frame.
func (p *EPL) deflectionAt(x, y, thetaE, gamma, phi, q, cx, cy float64) (ax, ay float64) {
	xr, yr := rotateInto(x, y, cx, cy, phi)
	b := thetaE * math.Sqrt(q)
	t := gamma - 1
	r := math.Hypot(q*xr, yr)
	if r < minRadius {
		r = minRadius
	}
	ang := math.Atan2(yr, q*xr)
	wr, wi := eplOmega(ang, t, q)
	amp := 2 * b / (1 + q) * math.Pow(b/r, t-1)
	return rotateBack(amp*wr, amp*wi, phi)
}

// Deflection implements MassProfile.
func (p *EPL) Deflection(x, y, block []float64) (ax, ay []float64) {
	thetaE, gamma, phi, q, cx, cy := eplShape(block)
	ax = make([]float64, len(x))
	ay = make([]float64, len(x))
	for i := range x {
		ax[i], ay[i] = p.deflectionAt(x[i], y[i], thetaE, gamma, phi, q, cx, cy)
	}
	return ax, ay
}

// Potential implements MassProfile. The potential is homogeneous of
// degree 3-gamma, so it follows from the deflection by Euler's theorem:
// psi = (x alpha_x + y alpha_y) / (3 - gamma).
func (p *EPL) Potential(x, y, block []float64) []float64 {
	thetaE, gamma, phi, q, cx, cy := eplShape(block)
	out := make([]float64, len(x))
	for i := range x {
		ax, ay := p.deflectionAt(x[i], y[i], thetaE, gamma, phi, q, cx, cy)
		out[i] = ((x[i]-cx)*ax + (y[i]-cy)*ay) / (3 - gamma)
	}
	return out
}

// Convergence implements MassProfile.
func (p *EPL) Convergence(x, y, block []float64) []float64 {
	thetaE, gamma, phi, q, cx, cy := eplShape(block)
	b := thetaE * math.Sqrt(q)
	t := gamma - 1
	out := make([]float64, len(x))
	for i := range x {
		xr, yr := rotateInto(x[i], y[i], cx, cy, phi)
		r := math.Hypot(q*xr, yr)
		if r < minRadius {
			r = minRadius
		}
		out[i] = (3 - gamma) / 2 * math.Pow(b/r, t)
	}
	return out
}
