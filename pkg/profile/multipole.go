package profile

import "math"

// Multipole is a single angular multipole perturbation of order m >= 2,
// following the definitions of Xu et al. (2013), appendix B3. It is
// typically added to an elliptical profile to capture boxy or disky
// isophote distortions.
type Multipole struct{}

var multipoleParamNames = []string{"m", "a_m", "phi_m", "center_x", "center_y"}

func (*Multipole) Tag() string          { return TagMultipole }
func (*Multipole) ParamNames() []string { return multipoleParamNames }
func (*Multipole) NumParams() int       { return len(multipoleParamNames) }

// multipoleOrder reads the order out of the block, clamped to m >= 2
// where the potential normalization 1/(1-m^2) is regular.
func multipoleOrder(block []float64) float64 {
	m := math.Round(block[0])
	if m < 2 {
		m = 2
	}
	return m
}

// Potential implements MassProfile: psi = r a_m / (1 - m^2) cos(m (phi - phi_m)).
func (*Multipole) Potential(x, y, block []float64) []float64 {
	m := multipoleOrder(block)
	am, phiM := block[1], block[2]
	cx, cy := block[3], block[4]
	out := make([]float64, len(x))
	for i := range x {
		r, phi := cartToPolar(x[i], y[i], cx, cy)
		out[i] = r * am / (1 - m*m) * math.Cos(m*(phi-phiM))
	}
	return out
}

// Deflection implements MassProfile.
func (*Multipole) Deflection(x, y, block []float64) (ax, ay []float64) {
	m := multipoleOrder(block)
	am, phiM := block[1], block[2]
	cx, cy := block[3], block[4]
	ax = make([]float64, len(x))
	ay = make([]float64, len(x))
	norm := am / (1 - m*m)
	for i := range x {
		_, phi := cartToPolar(x[i], y[i], cx, cy)
		cosT := math.Cos(m * (phi - phiM))
		sinT := math.Sin(m * (phi - phiM))
		ax[i] = math.Cos(phi)*norm*cosT + math.Sin(phi)*m*norm*sinT
		ay[i] = math.Sin(phi)*norm*cosT - math.Cos(phi)*m*norm*sinT
	}
	return ax, ay
}

// Convergence implements MassProfile. Half the Laplacian of the
// potential: kappa = a_m cos(m (phi - phi_m)) / (2 r).
func (*Multipole) Convergence(x, y, block []float64) []float64 {
	m := multipoleOrder(block)
	am, phiM := block[1], block[2]
	cx, cy := block[3], block[4]
	out := make([]float64, len(x))
	for i := range x {
		r, phi := cartToPolar(x[i], y[i], cx, cy)
		if r < minRadius {
			r = minRadius
		}
		out[i] = am * math.Cos(m*(phi-phiM)) / (2 * r)
	}
	return out
}
