package profile

import (
	"math"
	"testing"

	"lensfit/pkg/grid"
)

// TestRegistry verifies tag lookup for every registered profile and the
// configuration error for unknown tags.
func TestRegistry(t *testing.T) {
	massTags := []string{TagEPL, TagSIE, TagShear, TagMultipole, TagPointMass, TagConvergenceSheet}
	for _, tag := range massTags {
		p, err := NewMassProfile(tag)
		if err != nil {
			t.Errorf("NewMassProfile(%s) failed: %v", tag, err)
			continue
		}
		if p.Tag() != tag {
			t.Errorf("Expected tag %s, got %s", tag, p.Tag())
		}
		if p.NumParams() != len(p.ParamNames()) {
			t.Errorf("%s: NumParams %d does not match ParamNames length %d",
				tag, p.NumParams(), len(p.ParamNames()))
		}
	}
	lightTags := []string{TagSersic, TagSersicEllipse, TagGaussian, TagUniform}
	for _, tag := range lightTags {
		p, err := NewLightProfile(tag)
		if err != nil {
			t.Errorf("NewLightProfile(%s) failed: %v", tag, err)
			continue
		}
		if p.Tag() != tag {
			t.Errorf("Expected tag %s, got %s", tag, p.Tag())
		}
	}
	if _, err := NewMassProfile("NO_SUCH_PROFILE"); err == nil {
		t.Errorf("Expected error for unknown mass tag, got nil")
	}
	if _, err := NewLightProfile("NO_SUCH_PROFILE"); err == nil {
		t.Errorf("Expected error for unknown light tag, got nil")
	}
	if _, err := NewMassProfile(TagPixelatedPotential); err == nil {
		t.Errorf("Expected error constructing pixelated potential without a grid, got nil")
	}
}

// TestEllipticityRoundTrip verifies the (e1, e2) <-> (phi, q)
// conversion.
func TestEllipticityRoundTrip(t *testing.T) {
	cases := []struct{ phi, q float64 }{
		{0, 0.8},
		{0.7, 0.5},
		{-1.2, 0.95},
	}
	for _, tc := range cases {
		e1, e2 := phiQToEllipticity(tc.phi, tc.q)
		phi, q := ellipticityToPhiQ(e1, e2)
		if math.Abs(phi-tc.phi) > 1e-10 || math.Abs(q-tc.q) > 1e-10 {
			t.Errorf("Expected (phi=%g, q=%g), got (phi=%g, q=%g)", tc.phi, tc.q, phi, q)
		}
	}
}

// TestSIEMatchesEPLIsothermal cross-checks the closed-form SIE
// deflection against the power-law angular series at gamma = 2.
func TestSIEMatchesEPLIsothermal(t *testing.T) {
	sie := &SIE{}
	epl := &EPL{}
	sieBlock := []float64{1.2, 0.1, -0.05, 0.02, -0.01}
	eplBlock := []float64{1.2, 2.0, 0.1, -0.05, 0.02, -0.01}

	x := []float64{0.5, -0.8, 1.1, 0.03, -2.5}
	y := []float64{0.4, 0.9, -1.3, -0.07, 1.8}

	sx, sy := sie.Deflection(x, y, sieBlock)
	ex, ey := epl.Deflection(x, y, eplBlock)
	for i := range x {
		if math.Abs(sx[i]-ex[i]) > 1e-8 || math.Abs(sy[i]-ey[i]) > 1e-8 {
			t.Errorf("coordinate %d: SIE deflection (%g, %g) does not match EPL gamma=2 (%g, %g)",
				i, sx[i], sy[i], ex[i], ey[i])
		}
	}

	sp := sie.Potential(x, y, sieBlock)
	ep := epl.Potential(x, y, eplBlock)
	for i := range x {
		if math.Abs(sp[i]-ep[i]) > 1e-8 {
			t.Errorf("coordinate %d: SIE potential %g does not match EPL gamma=2 %g", i, sp[i], ep[i])
		}
	}
}

// TestEPLCircularLimit verifies the series reduces to the circular
// power law when the ellipticity vanishes.
func TestEPLCircularLimit(t *testing.T) {
	epl := &EPL{}
	thetaE := 1.5
	gamma := 2.3
	block := []float64{thetaE, gamma, 0, 0, 0, 0}
	r := 0.9
	ax, ay := epl.Deflection([]float64{r}, []float64{0}, block)
	// circular power law: alpha(r) = theta_E * (theta_E / r)^(gamma-2)
	want := thetaE * math.Pow(thetaE/r, gamma-2)
	if math.Abs(ax[0]-want) > 1e-10 {
		t.Errorf("Expected circular deflection %g, got %g", want, ax[0])
	}
	if math.Abs(ay[0]) > 1e-12 {
		t.Errorf("Expected zero tangential deflection on axis, got %g", ay[0])
	}
}

// TestDeflectionIsPotentialGradient checks every analytic mass profile
// against a finite-difference gradient of its own potential.
func TestDeflectionIsPotentialGradient(t *testing.T) {
	const h = 1e-6
	cases := []struct {
		name  string
		p     MassProfile
		block []float64
	}{
		{"EPL", &EPL{}, []float64{1.3, 2.1, 0.08, -0.04, 0.05, -0.02}},
		{"SIE", &SIE{}, []float64{1.1, -0.06, 0.09, 0, 0}},
		{"SHEAR", &Shear{}, []float64{0.04, -0.02, 0, 0}},
		{"MULTIPOLE", &Multipole{}, []float64{4, 0.03, 0.6, 0, 0}},
		{"POINT_MASS", &PointMass{}, []float64{0.9, 0.1, -0.1}},
		{"CONVERGENCE_SHEET", &ConvergenceSheet{}, []float64{0.1, 0, 0}},
	}
	x := []float64{0.7, -1.2, 0.4}
	y := []float64{0.5, 0.3, -0.9}
	for _, tc := range cases {
		ax, ay := tc.p.Deflection(x, y, tc.block)
		for i := range x {
			pp := tc.p.Potential([]float64{x[i] + h, x[i] - h, x[i], x[i]},
				[]float64{y[i], y[i], y[i] + h, y[i] - h}, tc.block)
			gx := (pp[0] - pp[1]) / (2 * h)
			gy := (pp[2] - pp[3]) / (2 * h)
			if math.Abs(gx-ax[i]) > 1e-5 || math.Abs(gy-ay[i]) > 1e-5 {
				t.Errorf("%s coordinate %d: potential gradient (%g, %g) does not match deflection (%g, %g)",
					tc.name, i, gx, gy, ax[i], ay[i])
			}
		}
	}
}

// TestProfilesAreFinite ensures the defined extension at singular
// points: no profile returns a non-finite value at its own center.
func TestProfilesAreFinite(t *testing.T) {
	x := []float64{0, 1e-12}
	y := []float64{0, 0}
	mass := []struct {
		name  string
		p     MassProfile
		block []float64
	}{
		{"EPL", &EPL{}, []float64{1.0, 2.0, 0.1, 0.1, 0, 0}},
		{"SIE", &SIE{}, []float64{1.0, 0.1, 0.1, 0, 0}},
		{"MULTIPOLE", &Multipole{}, []float64{3, 0.05, 0.1, 0, 0}},
		{"POINT_MASS", &PointMass{}, []float64{1.0, 0, 0}},
	}
	for _, tc := range mass {
		ax, ay := tc.p.Deflection(x, y, tc.block)
		pot := tc.p.Potential(x, y, tc.block)
		kap := tc.p.Convergence(x, y, tc.block)
		for i := range x {
			for _, v := range []float64{ax[i], ay[i], pot[i], kap[i]} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("%s: non-finite value %g at center", tc.name, v)
				}
			}
		}
	}
	sersic := &Sersic{}
	sb := sersic.SurfaceBrightness(x, y, []float64{2, 0.3, 4, 0, 0})
	for _, v := range sb {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("SERSIC: non-finite brightness %g at center", v)
		}
	}
}

// TestSersicTotalFlux compares the closed-form total flux against a
// numerical integration of the profile.
func TestSersicTotalFlux(t *testing.T) {
	s := &Sersic{}
	block := []float64{3.0, 0.25, 1.0, 0, 0}
	want := s.TotalFlux(block)

	// integrate on a fine grid out to many scale radii
	const n = 1200
	const half = 3.0
	step := 2 * half / n
	x := make([]float64, 0, n*n)
	y := make([]float64, 0, n*n)
	for iy := 0; iy < n; iy++ {
		for ix := 0; ix < n; ix++ {
			x = append(x, -half+(float64(ix)+0.5)*step)
			y = append(y, -half+(float64(iy)+0.5)*step)
		}
	}
	sb := s.SurfaceBrightness(x, y, block)
	got := 0.0
	for _, v := range sb {
		got += v * step * step
	}
	if math.Abs(got-want)/want > 1e-2 {
		t.Errorf("Expected total flux %g, numerical integration gives %g", want, got)
	}
}

// TestPixelatedBoundary verifies the defined boundary value of
// pixelated profiles: evaluation exactly at the grid edge and just
// outside it returns finite values, with zero outside the extent.
func TestPixelatedBoundary(t *testing.T) {
	g, err := grid.New(0, 0, 0.1, 0, 4, 4)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	p := NewPixelatedLight(g)
	pixels := make([]float64, 16)
	for i := range pixels {
		pixels[i] = 1
	}
	// on the edge, just outside, and far outside
	x := []float64{0.3, 0.3001, 5.0, -0.0001}
	y := []float64{0.3, 0.3, 5.0, 0}
	sb := p.SurfaceBrightness(x, y, pixels)
	if sb[0] != 1 {
		t.Errorf("Expected edge value 1, got %g", sb[0])
	}
	for i := 1; i < len(sb); i++ {
		if sb[i] != 0 {
			t.Errorf("Expected boundary value 0 outside extent, got %g at %d", sb[i], i)
		}
		if math.IsNaN(sb[i]) || math.IsInf(sb[i], 0) {
			t.Errorf("Expected finite boundary value, got %g at %d", sb[i], i)
		}
	}
}

// TestPixelatedInterpolation verifies bilinear interpolation against a
// linear field, which bilinear interpolation reproduces exactly.
func TestPixelatedInterpolation(t *testing.T) {
	g, err := grid.New(0, 0, 1, 0, 5, 5)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	p := NewPixelatedLight(g)
	pixels := make([]float64, 25)
	for iy := 0; iy < 5; iy++ {
		for ix := 0; ix < 5; ix++ {
			pixels[iy*5+ix] = 2*float64(ix) + 3*float64(iy)
		}
	}
	x := []float64{0.5, 1.75, 3.2}
	y := []float64{0.5, 2.25, 0.8}
	sb := p.SurfaceBrightness(x, y, pixels)
	for i := range x {
		want := 2*x[i] + 3*y[i]
		if math.Abs(sb[i]-want) > 1e-12 {
			t.Errorf("Expected interpolated value %g at (%g, %g), got %g", want, x[i], y[i], sb[i])
		}
	}
}

// TestPixelatedPotentialGradient checks the analytic deflection of the
// pixelated potential against finite differences of its interpolated
// potential inside a cell.
func TestPixelatedPotentialGradient(t *testing.T) {
	g, err := grid.New(0, 0, 0.2, 0, 6, 6)
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	p := NewPixelatedPotential(g)
	pixels := make([]float64, 36)
	for iy := 0; iy < 6; iy++ {
		for ix := 0; ix < 6; ix++ {
			fx, fy := float64(ix), float64(iy)
			pixels[iy*6+ix] = 0.1*fx*fy + 0.05*fx - 0.02*fy
		}
	}
	const h = 1e-7
	x := []float64{0.31, 0.77}
	y := []float64{0.52, 0.15}
	ax, ay := p.Deflection(x, y, pixels)
	for i := range x {
		pot := p.Potential([]float64{x[i] + h, x[i] - h, x[i], x[i]},
			[]float64{y[i], y[i], y[i] + h, y[i] - h}, pixels)
		gx := (pot[0] - pot[1]) / (2 * h)
		gy := (pot[2] - pot[3]) / (2 * h)
		if math.Abs(gx-ax[i]) > 1e-5 || math.Abs(gy-ay[i]) > 1e-5 {
			t.Errorf("coordinate %d: finite-difference gradient (%g, %g) does not match deflection (%g, %g)",
				i, gx, gy, ax[i], ay[i])
		}
	}
}
