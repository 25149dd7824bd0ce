package likelihood

import (
	"math"
	"testing"

	"lensfit/internal/models"
	"lensfit/pkg/gradient"
	"lensfit/pkg/grid"
	"lensfit/pkg/model"
	"lensfit/pkg/profile"
	"lensfit/pkg/simulator"
	"lensfit/pkg/starlet"
)

// analyticSetup builds a small SIE + Sersic model with an observation
// rendered exactly at the returned truth vector.
func analyticSetup(t *testing.T) (*Engine, []float64) {
	t.Helper()
	g, err := grid.NewCentered(0, 0, 0.1, 0, 20, 20)
	if err != nil {
		t.Fatalf("grid.NewCentered failed: %v", err)
	}
	sie, err := profile.NewMassProfile(profile.TagSIE)
	if err != nil {
		t.Fatalf("NewMassProfile failed: %v", err)
	}
	mass, err := model.NewMassModel(sie)
	if err != nil {
		t.Fatalf("NewMassModel failed: %v", err)
	}
	sersic, err := profile.NewLightProfile(profile.TagSersic)
	if err != nil {
		t.Fatalf("NewLightProfile failed: %v", err)
	}
	source, err := model.NewLightModel(sersic)
	if err != nil {
		t.Fatalf("NewLightModel failed: %v", err)
	}
	sim, err := simulator.New(simulator.Params{Grid: g, Mass: mass, Source: source})
	if err != nil {
		t.Fatalf("simulator.New failed: %v", err)
	}

	truth := []float64{0.8, 0.05, -0.02, 0, 0, 3, 0.2, 1.0, 0.1, -0.05}
	image, err := sim.Model(truth)
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	noise := make([]float64, len(image))
	for i := range noise {
		noise[i] = 0.05
	}
	obs, err := models.NewObservation(image, noise, 20, 20, []float64{1}, 1, 1)
	if err != nil {
		t.Fatalf("NewObservation failed: %v", err)
	}
	engine, err := New(obs, sim, nil)
	if err != nil {
		t.Fatalf("likelihood.New failed: %v", err)
	}
	return engine, truth
}

func TestNewValidation(t *testing.T) {
	engine, _ := analyticSetup(t)
	if _, err := New(nil, engine.Simulator(), nil); err == nil {
		t.Errorf("Expected error for nil observation, got nil")
	}
	if _, err := New(&models.Observation{}, nil, nil); err == nil {
		t.Errorf("Expected error for nil simulator, got nil")
	}
	// shape mismatch
	bad, err := models.NewObservation(make([]float64, 25), onesNoise(25), 5, 5, []float64{1}, 1, 1)
	if err != nil {
		t.Fatalf("NewObservation failed: %v", err)
	}
	if _, err := New(bad, engine.Simulator(), nil); err == nil {
		t.Errorf("Expected error for shape mismatch, got nil")
	}
}

func onesNoise(n int) []float64 {
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = 1
	}
	return noise
}

// TestChi2AtTruth verifies the data term vanishes when the observation
// equals the model exactly.
func TestChi2AtTruth(t *testing.T) {
	engine, truth := analyticSetup(t)
	chi2, err := engine.Chi2(truth)
	if err != nil {
		t.Fatalf("Chi2 failed: %v", err)
	}
	if chi2 > 1e-20 {
		t.Errorf("Expected zero chi2 at truth, got %g", chi2)
	}
	ll, err := engine.LogLikelihood(truth)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}
	if ll != -0.5*chi2 {
		t.Errorf("Expected log-likelihood %g, got %g", -0.5*chi2, ll)
	}
	obj, err := engine.Objective(truth)
	if err != nil {
		t.Fatalf("Objective failed: %v", err)
	}
	if obj != chi2 {
		t.Errorf("Expected objective %g without penalties, got %g", chi2, obj)
	}
}

// TestChi2GrowsAwayFromTruth verifies the data term is positive off the
// truth.
func TestChi2GrowsAwayFromTruth(t *testing.T) {
	engine, truth := analyticSetup(t)
	off := append([]float64(nil), truth...)
	off[0] += 0.05
	chi2, err := engine.Chi2(off)
	if err != nil {
		t.Fatalf("Chi2 failed: %v", err)
	}
	if chi2 <= 0 {
		t.Errorf("Expected positive chi2 off truth, got %g", chi2)
	}
}

// TestObjectiveLengthMismatch verifies validation at every public entry
// point.
func TestObjectiveLengthMismatch(t *testing.T) {
	engine, truth := analyticSetup(t)
	short := truth[:4]
	if _, err := engine.Objective(short); err == nil {
		t.Errorf("Expected error from Objective, got nil")
	}
	if _, err := engine.Gradient(short); err == nil {
		t.Errorf("Expected error from Gradient, got nil")
	}
	if _, err := engine.Fisher(short); err == nil {
		t.Errorf("Expected error from Fisher, got nil")
	}
}

// TestGradientMatchesManualDifference cross-checks the differentiation
// boundary against an explicit central difference of the objective.
func TestGradientMatchesManualDifference(t *testing.T) {
	engine, truth := analyticSetup(t)
	params := append([]float64(nil), truth...)
	params[0] += 0.03
	params[5] -= 0.2

	grad, err := engine.Gradient(params)
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	const h = 1e-6
	for i := range params {
		plus := append([]float64(nil), params...)
		minus := append([]float64(nil), params...)
		plus[i] += h
		minus[i] -= h
		op, err := engine.Objective(plus)
		if err != nil {
			t.Fatalf("Objective failed: %v", err)
		}
		om, err := engine.Objective(minus)
		if err != nil {
			t.Fatalf("Objective failed: %v", err)
		}
		want := (op - om) / (2 * h)
		tol := 1e-3 * math.Max(1, math.Abs(want))
		if math.Abs(grad[i]-want) > tol {
			t.Errorf("gradient[%d]: expected %g, got %g", i, want, grad[i])
		}
	}
}

// TestValueAndGradient verifies consistency with the separate entry
// points.
func TestValueAndGradient(t *testing.T) {
	engine, truth := analyticSetup(t)
	params := append([]float64(nil), truth...)
	params[1] += 0.02
	value, grad, err := engine.ValueAndGradient(params)
	if err != nil {
		t.Fatalf("ValueAndGradient failed: %v", err)
	}
	obj, err := engine.Objective(params)
	if err != nil {
		t.Fatalf("Objective failed: %v", err)
	}
	if value != obj {
		t.Errorf("Expected value %g, got %g", obj, value)
	}
	grad2, err := engine.Gradient(params)
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	for i := range grad {
		if grad[i] != grad2[i] {
			t.Errorf("gradient[%d]: expected %g, got %g", i, grad2[i], grad[i])
		}
	}
}

// TestNaNPropagation verifies non-finite parameters surface as a
// non-finite objective rather than an error or a silent wrong value.
func TestNaNPropagation(t *testing.T) {
	engine, truth := analyticSetup(t)
	params := append([]float64(nil), truth...)
	params[5] = math.NaN()
	obj, err := engine.Objective(params)
	if err != nil {
		t.Fatalf("Objective failed: %v", err)
	}
	if !math.IsNaN(obj) {
		t.Errorf("Expected NaN objective, got %g", obj)
	}
}

// pixelatedSetup builds a model whose source is a pixelated grid, the
// configuration wavelet regularization applies to.
func pixelatedSetup(t *testing.T) (*Engine, []float64, int) {
	t.Helper()
	g, err := grid.NewCentered(0, 0, 0.1, 0, 16, 16)
	if err != nil {
		t.Fatalf("grid.NewCentered failed: %v", err)
	}
	sie, err := profile.NewMassProfile(profile.TagSIE)
	if err != nil {
		t.Fatalf("NewMassProfile failed: %v", err)
	}
	mass, err := model.NewMassModel(sie)
	if err != nil {
		t.Fatalf("NewMassModel failed: %v", err)
	}
	srcGrid, err := grid.NewCentered(0, 0, 0.1, 0, 8, 8)
	if err != nil {
		t.Fatalf("grid.NewCentered failed: %v", err)
	}
	source, err := model.NewLightModel(profile.NewPixelatedLight(srcGrid))
	if err != nil {
		t.Fatalf("NewLightModel failed: %v", err)
	}
	sim, err := simulator.New(simulator.Params{Grid: g, Mass: mass, Source: source})
	if err != nil {
		t.Fatalf("simulator.New failed: %v", err)
	}
	truth := make([]float64, sim.NumParams())
	truth[0] = 0.5 // theta_E
	// a centered bump in the pixelated source
	truth[5+3*8+3] = 2
	truth[5+3*8+4] = 3
	truth[5+4*8+3] = 3
	truth[5+4*8+4] = 2
	image, err := sim.Model(truth)
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	noise := make([]float64, len(image))
	for i := range noise {
		noise[i] = 0.1
	}
	obs, err := models.NewObservation(image, noise, 16, 16, []float64{1}, 1, 1)
	if err != nil {
		t.Fatalf("NewObservation failed: %v", err)
	}
	engine, err := New(obs, sim, gradient.CentralDifference{})
	if err != nil {
		t.Fatalf("likelihood.New failed: %v", err)
	}
	return engine, truth, 5
}

// TestAddRegularizationValidation exercises the configuration checks.
func TestAddRegularizationValidation(t *testing.T) {
	engine, _, offset := pixelatedSetup(t)
	tr, err := starlet.NewTransform(2)
	if err != nil {
		t.Fatalf("NewTransform failed: %v", err)
	}
	cases := []PixelRegularization{
		{Offset: offset, NX: 8, NY: 8, Transform: nil, Lambda: 1, Sigma: 0.1},
		{Offset: offset, NX: 0, NY: 8, Transform: tr, Lambda: 1, Sigma: 0.1},
		{Offset: offset, NX: 8, NY: 8, Transform: tr, Lambda: 1, Sigma: 0},
		{Offset: 60, NX: 8, NY: 8, Transform: tr, Lambda: 1, Sigma: 0.1},
		{Offset: -1, NX: 8, NY: 8, Transform: tr, Lambda: 1, Sigma: 0.1},
	}
	for i, reg := range cases {
		if err := engine.AddRegularization(reg); err == nil {
			t.Errorf("case %d: expected configuration error, got nil", i)
		}
	}
	valid := PixelRegularization{Offset: offset, NX: 8, NY: 8, Transform: tr, Lambda: 1, Sigma: 0.1}
	if err := engine.AddRegularization(valid); err != nil {
		t.Errorf("Expected valid regularization to be accepted, got %v", err)
	}
}

// TestRegularizationPenalizesStructure verifies the wavelet penalty adds
// to the objective in proportion to lambda.
func TestRegularizationPenalizesStructure(t *testing.T) {
	engine, truth, offset := pixelatedSetup(t)
	base, err := engine.Objective(truth)
	if err != nil {
		t.Fatalf("Objective failed: %v", err)
	}
	tr, err := starlet.NewTransform(2)
	if err != nil {
		t.Fatalf("NewTransform failed: %v", err)
	}
	penalty, err := tr.L1Penalty(truth[offset:offset+64], 8, 8, 0.1)
	if err != nil {
		t.Fatalf("L1Penalty failed: %v", err)
	}
	if penalty <= 0 {
		t.Fatalf("Expected positive penalty for a structured source, got %g", penalty)
	}

	lambda := 0.5
	reg := PixelRegularization{Offset: offset, NX: 8, NY: 8, Transform: tr, Lambda: lambda, Sigma: 0.1}
	if err := engine.AddRegularization(reg); err != nil {
		t.Fatalf("AddRegularization failed: %v", err)
	}
	withReg, err := engine.Objective(truth)
	if err != nil {
		t.Fatalf("Objective failed: %v", err)
	}
	want := base + lambda*penalty
	if math.Abs(withReg-want) > 1e-10*math.Max(1, want) {
		t.Errorf("Expected objective %g with regularization, got %g", want, withReg)
	}
}

// TestPriorPenaltyEntersObjective verifies schema priors reach the
// objective.
func TestPriorPenaltyEntersObjective(t *testing.T) {
	engine, truth := analyticSetup(t)
	base, err := engine.Objective(truth)
	if err != nil {
		t.Fatalf("Objective failed: %v", err)
	}
	if err := engine.Schema().SetPrior(0, model.Prior{Type: model.PriorGaussian, Mean: truth[0] + 0.1, Width: 0.1}); err != nil {
		t.Fatalf("SetPrior failed: %v", err)
	}
	withPrior, err := engine.Objective(truth)
	if err != nil {
		t.Fatalf("Objective failed: %v", err)
	}
	if math.Abs(withPrior-base-1) > 1e-10 {
		t.Errorf("Expected prior to add 1.0 to the objective, got %g from %g", withPrior, base)
	}
}

// TestFisherProperties verifies the Fisher matrix is symmetric with a
// positive diagonal at the truth, where chi2 has its minimum.
func TestFisherProperties(t *testing.T) {
	engine, truth := analyticSetup(t)
	f, err := engine.Fisher(truth)
	if err != nil {
		t.Fatalf("Fisher failed: %v", err)
	}
	n := len(truth)
	for i := 0; i < n; i++ {
		if f.At(i, i) <= 0 {
			t.Errorf("Expected positive Fisher diagonal at %d, got %g", i, f.At(i, i))
		}
		for j := 0; j < n; j++ {
			if f.At(i, j) != f.At(j, i) {
				t.Errorf("Expected symmetric Fisher matrix at (%d, %d)", i, j)
			}
		}
	}
}
