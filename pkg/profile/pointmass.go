package profile

import "math"

// PointMass is the point-lens profile with Einstein radius theta_E. The
// central singularity is regularized by the package-wide core floor.
type PointMass struct{}

var pointMassParamNames = []string{"theta_E", "center_x", "center_y"}

func (*PointMass) Tag() string          { return TagPointMass }
func (*PointMass) ParamNames() []string { return pointMassParamNames }
func (*PointMass) NumParams() int       { return len(pointMassParamNames) }

// Deflection implements MassProfile: alpha = theta_E^2 * r_vec / r^2.
func (*PointMass) Deflection(x, y, block []float64) (ax, ay []float64) {
	thetaE2 := block[0] * block[0]
	cx, cy := block[1], block[2]
	ax = make([]float64, len(x))
	ay = make([]float64, len(x))
	for i := range x {
		dx := x[i] - cx
		dy := y[i] - cy
		r2 := dx*dx + dy*dy
		if r2 < minRadius*minRadius {
			r2 = minRadius * minRadius
		}
		ax[i] = thetaE2 * dx / r2
		ay[i] = thetaE2 * dy / r2
	}
	return ax, ay
}

// Potential implements MassProfile: psi = theta_E^2 ln r.
func (*PointMass) Potential(x, y, block []float64) []float64 {
	thetaE2 := block[0] * block[0]
	cx, cy := block[1], block[2]
	out := make([]float64, len(x))
	for i := range x {
		r, _ := cartToPolar(x[i], y[i], cx, cy)
		if r < minRadius {
			r = minRadius
		}
		out[i] = thetaE2 * math.Log(r)
	}
	return out
}

// Convergence implements MassProfile. Away from the (regularized)
// center a point mass carries no surface density.
func (*PointMass) Convergence(x, y, block []float64) []float64 {
	return make([]float64, len(x))
}
