package profile

// ConvergenceSheet is a uniform mass sheet of constant convergence
// kappa_s, the degeneracy direction of every lens reconstruction. It is
// useful both as a nuisance component and for testing because its
// deflection is exactly linear.
type ConvergenceSheet struct{}

var sheetParamNames = []string{"kappa_s", "center_x", "center_y"}

func (*ConvergenceSheet) Tag() string          { return TagConvergenceSheet }
func (*ConvergenceSheet) ParamNames() []string { return sheetParamNames }
func (*ConvergenceSheet) NumParams() int       { return len(sheetParamNames) }

// Deflection implements MassProfile: alpha = kappa_s * r_vec.
func (*ConvergenceSheet) Deflection(x, y, block []float64) (ax, ay []float64) {
	ks := block[0]
	cx, cy := block[1], block[2]
	ax = make([]float64, len(x))
	ay = make([]float64, len(x))
	for i := range x {
		ax[i] = ks * (x[i] - cx)
		ay[i] = ks * (y[i] - cy)
	}
	return ax, ay
}

// Potential implements MassProfile: psi = kappa_s r^2 / 2.
func (*ConvergenceSheet) Potential(x, y, block []float64) []float64 {
	ks := block[0]
	cx, cy := block[1], block[2]
	out := make([]float64, len(x))
	for i := range x {
		dx := x[i] - cx
		dy := y[i] - cy
		out[i] = 0.5 * ks * (dx*dx + dy*dy)
	}
	return out
}

// Convergence implements MassProfile.
func (*ConvergenceSheet) Convergence(x, y, block []float64) []float64 {
	ks := block[0]
	out := make([]float64, len(x))
	for i := range out {
		out[i] = ks
	}
	return out
}
