package resonance

import "github.com/pthm-cable/trixle/lattice"

// StableThreshold is the closure gap below which a sweep entry counts as a
// stable resonance.
const StableThreshold = 0.5

// Options configures searches and sweeps. Each operation reads only the
// fields it needs.
type Options struct {
	Workers     int                   // goroutines per operation; <= 1 runs sequentially
	KeepSamples bool                  // record every evaluation in Result.Samples
	Policy      RefinePolicy          // coarse-to-fine windows used by Sweep
	Threshold   float64               // stability threshold used by Sweep
	Lattice     []lattice.Option      // generation options for built-in objectives
	Progress    func(Entry, int, int) // Sweep callback: entry, completed, total
}

// Option represents a functional option for this package's operations.
type Option func(*Options)

// WithWorkers spreads evaluations across n goroutines.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithSamples keeps every evaluated (bend, gap) pair in the result.
func WithSamples() Option {
	return func(o *Options) {
		o.KeepSamples = true
	}
}

// WithPolicy overrides DefaultRefinePolicy for Sweep.
func WithPolicy(p RefinePolicy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithThreshold overrides StableThreshold for Sweep.
func WithThreshold(threshold float64) Option {
	return func(o *Options) {
		o.Threshold = threshold
	}
}

// WithLatticeOptions passes generation options (modulation, epsilon) to the
// lattices built by GapObjective-based operations.
func WithLatticeOptions(opts ...lattice.Option) Option {
	return func(o *Options) {
		o.Lattice = append(o.Lattice, opts...)
	}
}

// WithProgress registers a callback invoked by Sweep after each step count
// completes. Calls are serialised but arrive in completion order.
func WithProgress(fn func(e Entry, done, total int)) Option {
	return func(o *Options) {
		o.Progress = fn
	}
}

func buildOptions(opts []Option) Options {
	o := Options{
		Workers:   1,
		Policy:    DefaultRefinePolicy(),
		Threshold: StableThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
