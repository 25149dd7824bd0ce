package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/stat"

	"lensfit/internal/models"
	"lensfit/pkg/config"
	"lensfit/pkg/gradient"
	"lensfit/pkg/likelihood"
	"lensfit/pkg/model"
	"lensfit/pkg/starlet"
)

func main() {
	configPath := flag.String("config", "lensfit.yaml", "Path to the YAML model configuration")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to the config path and exit")
	iterations := flag.Int("iterations", 0, "Override the configured number of fit iterations")
	seed := flag.Int64("seed", 42, "Random seed for the mock noise realization")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *iterations > 0 {
		cfg.Fit.MaxIterations = *iterations
	}

	fmt.Println("================================")
	fmt.Println("LENSFIT: DIFFERENTIABLE STRONG-LENS FORWARD MODELING")
	fmt.Println("================================")

	// Step 1: build the forward model declared by the configuration.
	fmt.Println("Step 1: Building forward model from configuration...")
	sim, truth, err := cfg.BuildSimulator()
	if err != nil {
		log.Fatalf("Failed to build simulator: %v", err)
	}
	schema := sim.Schema()
	fmt.Printf("   Grid: %dx%d pixels at %.3f arcsec/pixel\n",
		sim.Grid().NX(), sim.Grid().NY(), sim.Grid().PixelScale())
	fmt.Printf("   Free parameters: %d in %d blocks\n", schema.Total(), len(schema.Blocks()))

	// Step 2: simulate a mock observation at the configured parameters.
	fmt.Println("Step 2: Simulating mock observation...")
	mock, err := sim.Model(truth)
	if err != nil {
		log.Fatalf("Failed to simulate mock image: %v", err)
	}
	noiseRMS := cfg.Likelihood.NoiseRMS
	if noiseRMS <= 0 {
		noiseRMS = 1e-3
	}
	rng := rand.New(rand.NewSource(*seed))
	observed := make([]float64, len(mock))
	noiseMap := make([]float64, len(mock))
	for i, m := range mock {
		observed[i] = m + noiseRMS*rng.NormFloat64()
		noiseMap[i] = noiseRMS
	}
	kernel := sim.PSFKernel()
	knx, kny := kernel.Size()
	obs, err := models.NewObservation(observed, noiseMap, sim.Grid().NX(), sim.Grid().NY(), kernel.Kernel(), knx, kny)
	if err != nil {
		log.Fatalf("Failed to build observation: %v", err)
	}

	// Step 3: assemble the likelihood engine.
	fmt.Println("Step 3: Assembling likelihood engine...")
	engine, err := likelihood.New(obs, sim, gradient.CentralDifference{})
	if err != nil {
		log.Fatalf("Failed to build likelihood engine: %v", err)
	}
	if cfg.Regularization.Lambda > 0 {
		transform, err := starlet.NewTransform(cfg.Regularization.Scales)
		if err != nil {
			log.Fatalf("Invalid regularization settings: %v", err)
		}
		for _, b := range schema.Blocks() {
			if b.Tag != "PIXELATED" && b.Tag != "PIXELATED_POTENTIAL" {
				continue
			}
			side := int(math.Round(math.Sqrt(float64(b.Size))))
			reg := likelihood.PixelRegularization{
				Offset:    b.Offset,
				NX:        side,
				NY:        side,
				Transform: transform,
				Lambda:    cfg.Regularization.Lambda,
				Sigma:     noiseRMS,
			}
			if err := engine.AddRegularization(reg); err != nil {
				log.Fatalf("Failed to attach regularization to %s: %v", b.Name, err)
			}
			fmt.Printf("   Starlet penalty on %s (%d pixels, k=%.1f)\n", b.Name, b.Size, cfg.Regularization.K)
		}
	}

	// Step 4: perturb the truth and fit with plain gradient descent.
	// Any external optimizer could stand here; the engine only exposes
	// Objective/Gradient.
	fmt.Println("Step 4: Running gradient-descent fit from perturbed start...")
	fixed := cfg.FixedMask(schema)
	params := make([]float64, len(truth))
	for i, v := range truth {
		if fixed[i] {
			params[i] = v
			continue
		}
		scale := math.Abs(v)
		if scale < 0.05 {
			scale = 0.05
		}
		params[i] = v + 0.02*scale*rng.NormFloat64()
	}

	start := time.Now()
	value, grad, err := engine.ValueAndGradient(params)
	if err != nil {
		log.Fatalf("Initial evaluation failed: %v", err)
	}
	fmt.Printf("   Initial objective: %.4f\n", value)
	step := cfg.Fit.StepSize
	for it := 1; it <= cfg.Fit.MaxIterations; it++ {
		for i := range params {
			if fixed[i] {
				continue
			}
			params[i] -= step * grad[i]
		}
		next, nextGrad, err := engine.ValueAndGradient(params)
		if err != nil {
			log.Fatalf("Evaluation failed at iteration %d: %v", it, err)
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			log.Fatalf("Objective diverged at iteration %d", it)
		}
		if next > value {
			// crude backtracking
			step /= 2
		}
		value, grad = next, nextGrad
		if it%10 == 0 || it == cfg.Fit.MaxIterations {
			fmt.Printf("   Iteration %4d: objective=%.4f step=%.2e\n", it, value, step)
		}
	}
	elapsed := time.Since(start)

	// Step 5: report fit quality and Fisher uncertainties.
	fmt.Println("Step 5: Fit summary")
	chi2, err := engine.Chi2(params)
	if err != nil {
		log.Fatalf("Failed to evaluate chi2: %v", err)
	}
	dof := float64(len(observed) - len(params))
	fmt.Printf("   Reduced chi2: %.4f (%d pixels, %d parameters)\n", chi2/dof, len(observed), len(params))

	final, err := sim.Model(params)
	if err != nil {
		log.Fatalf("Failed to render final model: %v", err)
	}
	residuals := make([]float64, len(final))
	for i := range final {
		residuals[i] = (observed[i] - final[i]) / noiseMap[i]
	}
	fmt.Printf("   Normalized residuals: mean=%.4f std=%.4f\n",
		stat.Mean(residuals, nil), stat.StdDev(residuals, nil))
	fmt.Printf("   Fit wall time: %.2f seconds\n", elapsed.Seconds())

	if len(params) <= 25 {
		fmt.Println("   Fisher uncertainty estimates:")
		cov, err := engine.Covariance(params)
		if err != nil {
			fmt.Printf("   (covariance unavailable: %v)\n", err)
		} else {
			printParamTable(schema, truth, params, cov.RawMatrix().Data, len(params))
		}
	}
}

// printParamTable prints truth, best fit and the Fisher 1-sigma estimate
// for every parameter.
func printParamTable(schema *model.Schema, truth, fit, cov []float64, n int) {
	for i := 0; i < n; i++ {
		sigma := math.Sqrt(math.Abs(cov[i*n+i]))
		fmt.Printf("   %-28s truth=%9.4f fit=%9.4f +/- %.4f\n",
			schema.ParamName(i), truth[i], fit[i], sigma)
	}
}
