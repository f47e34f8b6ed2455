package main

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/lattice"
)

// failedFitness scores parameters whose lattice cannot be measured.
const failedFitness = 1e9

// FitnessEvaluator scores parameter vectors by the closure gap of a preset
// lattice at one or more step counts.
type FitnessEvaluator struct {
	params   *ParamVector
	particle config.ParticleConfig
	steps    []int
	lobes    int
	base     []lattice.Option

	mu          sync.Mutex
	bestFitness float64
	bestValues  []float64
	lastWorst   float64 // largest gap from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Every step count in steps
// is measured per evaluation; the fitness is their mean gap.
func NewFitnessEvaluator(params *ParamVector, p config.ParticleConfig, steps []int, lobes int, base []lattice.Option) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		particle:    p,
		steps:       steps,
		lobes:       lobes,
		base:        base,
		bestFitness: math.Inf(1),
	}
}

// Best returns the lowest fitness seen and the clamped values that
// produced it.
func (fe *FitnessEvaluator) Best() (float64, []float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness, fe.bestValues
}

// LastWorst returns the largest gap from the most recent evaluation.
func (fe *FitnessEvaluator) LastWorst() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastWorst
}

// Evaluate returns the mean closure gap for raw parameter values x.
// Lower is better.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	p := fe.particle
	fe.params.ApplyToParticle(&p, x, fe.lobes)
	opts := p.LatticeOptions(fe.base...)

	// All step counts share the parameters, so measure them in parallel
	gaps := make([]float64, len(fe.steps))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, steps := range fe.steps {
		g.Go(func() error {
			gap, err := measureGap(steps, *p.Bend, opts)
			gaps[i] = gap
			return err
		})
	}

	var fitness, worst float64
	if err := g.Wait(); err != nil {
		// Any unmeasurable step count fails the whole parameter vector
		fitness, worst = failedFitness, failedFitness
	} else {
		var sum float64
		for _, gap := range gaps {
			sum += gap
			worst = max(worst, gap)
		}
		fitness = sum / float64(len(gaps))
	}

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestValues = fe.params.Clamp(x)
	}
	fe.lastWorst = worst
	fe.mu.Unlock()

	return fitness
}

func measureGap(steps int, bend float64, opts []lattice.Option) (float64, error) {
	l, err := lattice.Generate(steps, bend, opts...)
	if err != nil {
		return 0, fmt.Errorf("steps %d: %w", steps, err)
	}
	gap, err := lattice.Gap(l)
	if err != nil {
		return 0, fmt.Errorf("steps %d: %w", steps, err)
	}
	if math.IsNaN(gap) {
		return 0, fmt.Errorf("steps %d: gap is NaN", steps)
	}
	return gap, nil
}

// evaluateContext wraps Evaluate so a cancelled run scores every remaining
// point as failed and the optimizer winds down.
func (fe *FitnessEvaluator) evaluateContext(ctx context.Context) func([]float64) float64 {
	return func(x []float64) float64 {
		if ctx.Err() != nil {
			return failedFitness
		}
		return fe.Evaluate(x)
	}
}
