// Package main polishes a particle preset with CMA-ES: it searches the bend
// and figure-eight modulation amplitude that minimise the closure gap,
// starting from the preset's grid resonance.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/trixle/config"
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval      int     `csv:"eval"`
	Fitness   float64 `csv:"fitness"`
	WorstGap  float64 `csv:"worst_gap"`
	Bend      float64 `csv:"bend"`
	Amplitude float64 `csv:"amplitude"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// parseSteps parses a comma-separated list of step counts.
func parseSteps(s string) ([]int, error) {
	var steps []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid step count %q: %w", field, err)
		}
		steps = append(steps, n)
	}
	return steps, nil
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	particle := flag.String("particle", "", "Preset to polish")
	stepsFlag := flag.String("steps", "", "Comma-separated step counts to close together (empty = preset steps)")
	bendMin := flag.Float64("bend-min", 0, "Lower bend bound (0 = preset scan or estimate window)")
	bendMax := flag.Float64("bend-max", 0, "Upper bend bound (0 = preset scan or estimate window)")
	maxAmplitude := flag.Float64("max-amplitude", 0.1, "Upper bound for the figure-eight amplitude")
	lobes := flag.Int("lobes", 2, "Figure-eight lobes per lattice")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *particle == "" {
		log.Fatal("--particle is required")
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	preset, ok := cfg.Particle(*particle)
	if !ok {
		log.Fatalf("unknown particle %q (have %s)", *particle, strings.Join(cfg.ParticleNames(), ", "))
	}

	steps, err := parseSteps(*stepsFlag)
	if err != nil {
		log.Fatal(err)
	}
	if len(steps) == 0 {
		steps = []int{preset.Steps}
	}

	lo, hi := defaultBounds(cfg, preset)
	if *bendMin != 0 {
		lo = *bendMin
	}
	if *bendMax != 0 {
		hi = *bendMax
	}

	params, err := NewParamVector(preset, lo, hi, *maxAmplitude)
	if err != nil {
		log.Fatal(err)
	}
	evaluator := NewFitnessEvaluator(params, preset, steps, *lobes, cfg.LatticeOptions())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())
	evaluate := evaluator.evaluateContext(ctx)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluate(params.Denormalize(x))
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential; each evaluation already runs its step counts in parallel
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + 3*dim
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.2,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalCount := 0
	startTime := time.Now()

	// Wrap the function to log evaluations
	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		clamped := params.Clamp(params.Denormalize(x))
		rec := []EvalRecord{{
			Eval:      evalCount,
			Fitness:   fitness,
			WorstGap:  evaluator.LastWorst(),
			Bend:      clamped[paramBend],
			Amplitude: clamped[paramAmplitude],
		}}
		if evalCount == 1 {
			err = gocsv.Marshal(rec, logFile)
		} else {
			err = gocsv.MarshalWithoutHeaders(rec, logFile)
		}
		if err != nil {
			log.Printf("failed to log evaluation %d: %v", evalCount, err)
		}

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
		best, _ := evaluator.Best()
		fmt.Printf("Eval %d/%d: gap=%.6f bend=%.6f amp=%.4f (best=%.6f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, fitness, clamped[paramBend], clamped[paramAmplitude], best,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Polishing %s over steps %v: bend in [%g, %g], amplitude in [0, %g]\n",
		preset.Name, steps, lo, hi, *maxAmplitude)
	fmt.Printf("CMA-ES population=%d, max_evals=%d\n", popSize, *maxEvals)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	bestFitness, bestValues := evaluator.Best()
	if bestValues == nil && result != nil {
		bestValues = params.Clamp(params.Denormalize(result.X))
	}
	if bestValues == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best mean gap: %.6f\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestValues[i])
	}

	// Save best config
	params.ApplyToParticle(&preset, bestValues, *lobes)
	cfg.Particles[cfg.Derived.ParticleIndex[preset.Name]] = preset

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := cfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}

// defaultBounds returns the preset's scan interval, or the coarse refine
// window around the sweep estimate when it has none.
func defaultBounds(cfg *config.Config, p config.ParticleConfig) (float64, float64) {
	if p.Scan != nil {
		return min(p.Scan.Low, p.Scan.High), max(p.Scan.Low, p.Scan.High)
	}
	est := cfg.Estimate()(p.Steps)
	w := cfg.Search.Refine.Coarse
	return est * w.Low, est * w.High
}
