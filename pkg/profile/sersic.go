package profile

import "math"

// sersicBN approximates the Sersic b_n coefficient so that R_sersic is
// the half-light radius (Capaccioli 1989). Accurate to better than a
// percent for 0.5 < n < 10.
func sersicBN(n float64) float64 {
	return 1.9992*n - 0.3271
}

// sersicBrightness evaluates the Sersic law at reduced radius R for
// amplitude amp (brightness at R_sersic), scale radius rs and index n.
func sersicBrightness(r, amp, rs, n float64) float64 {
	if rs < minRadius {
		rs = minRadius
	}
	bn := sersicBN(n)
	return amp * math.Exp(-bn*(math.Pow(r/rs, 1/n)-1))
}

// sersicTotalFlux integrates the Sersic law over the plane:
//
//	F = 2 pi n amp R_s^2 e^{b_n} b_n^{-2n} Gamma(2n)
//
// The same expression holds for the elliptical variant because the
// elliptical radius convention q x^2 + y^2 / q preserves the area
// element.
func sersicTotalFlux(amp, rs, n float64) float64 {
	bn := sersicBN(n)
	return 2 * math.Pi * n * amp * rs * rs * math.Exp(bn) * math.Pow(bn, -2*n) * math.Gamma(2*n)
}

// Sersic is the circular Sersic surface-brightness profile.
type Sersic struct{}

var sersicParamNames = []string{"amp", "R_sersic", "n_sersic", "center_x", "center_y"}

func (*Sersic) Tag() string          { return TagSersic }
func (*Sersic) ParamNames() []string { return sersicParamNames }
func (*Sersic) NumParams() int       { return len(sersicParamNames) }

// SurfaceBrightness implements LightProfile.
func (*Sersic) SurfaceBrightness(x, y, block []float64) []float64 {
	amp, rs, n := block[0], block[1], block[2]
	cx, cy := block[3], block[4]
	out := make([]float64, len(x))
	for i := range x {
		r, _ := cartToPolar(x[i], y[i], cx, cy)
		out[i] = sersicBrightness(r, amp, rs, n)
	}
	return out
}

// TotalFlux implements TotalFluxer.
func (*Sersic) TotalFlux(block []float64) float64 {
	return sersicTotalFlux(block[0], block[1], block[2])
}

// SersicEllipse is the elliptical Sersic profile. The elliptical radius
// is R^2 = q x^2 + y^2 / q in the major-axis frame, which keeps the
// total flux independent of the axis ratio.
type SersicEllipse struct{}

var sersicEllipseParamNames = []string{"amp", "R_sersic", "n_sersic", "e1", "e2", "center_x", "center_y"}

func (*SersicEllipse) Tag() string          { return TagSersicEllipse }
func (*SersicEllipse) ParamNames() []string { return sersicEllipseParamNames }
func (*SersicEllipse) NumParams() int       { return len(sersicEllipseParamNames) }

// SurfaceBrightness implements LightProfile.
func (*SersicEllipse) SurfaceBrightness(x, y, block []float64) []float64 {
	amp, rs, n := block[0], block[1], block[2]
	phi, q := ellipticityToPhiQ(block[3], block[4])
	cx, cy := block[5], block[6]
	out := make([]float64, len(x))
	for i := range x {
		xr, yr := rotateInto(x[i], y[i], cx, cy, phi)
		r := math.Sqrt(q*xr*xr + yr*yr/q)
		out[i] = sersicBrightness(r, amp, rs, n)
	}
	return out
}

// TotalFlux implements TotalFluxer.
func (*SersicEllipse) TotalFlux(block []float64) float64 {
	return sersicTotalFlux(block[0], block[1], block[2])
}
