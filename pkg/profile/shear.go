package profile

// Shear is a uniform external shear field parameterized by its two
// Cartesian components (gamma1, gamma2). It contributes no convergence.
type Shear struct{}

var shearParamNames = []string{"gamma1", "gamma2", "ra_0", "dec_0"}

func (*Shear) Tag() string          { return TagShear }
func (*Shear) ParamNames() []string { return shearParamNames }
func (*Shear) NumParams() int       { return len(shearParamNames) }

// Deflection implements MassProfile.
func (*Shear) Deflection(x, y, block []float64) (ax, ay []float64) {
	g1, g2 := block[0], block[1]
	cx, cy := block[2], block[3]
	ax = make([]float64, len(x))
	ay = make([]float64, len(x))
	for i := range x {
		dx := x[i] - cx
		dy := y[i] - cy
		ax[i] = g1*dx + g2*dy
		ay[i] = g2*dx - g1*dy
	}
	return ax, ay
}

// Potential implements MassProfile.
func (*Shear) Potential(x, y, block []float64) []float64 {
	g1, g2 := block[0], block[1]
	cx, cy := block[2], block[3]
	out := make([]float64, len(x))
	for i := range x {
		dx := x[i] - cx
		dy := y[i] - cy
		out[i] = 0.5*g1*(dx*dx-dy*dy) + g2*dx*dy
	}
	return out
}

// Convergence implements MassProfile. A pure shear carries no mass.
func (*Shear) Convergence(x, y, block []float64) []float64 {
	return make([]float64, len(x))
}
