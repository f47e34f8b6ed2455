package lattice

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultEpsilon is the shortest hinge edge accepted before generation
// fails with ErrDegenerateGeometry.
const DefaultEpsilon = 1e-12

// Modulation scales the bend angle of a single step. It receives the
// zero-based step index and the total step count of the walk.
type Modulation func(step, steps int) float64

// Constant is the identity modulation: every step bends by the full factor.
func Constant(step, steps int) float64 { return 1 }

// FigureEight returns a modulation of 1 + amplitude*sin(2π*lobes*step/steps).
// Two lobes with an amplitude of 0.05 pinch a proton-sized ring into a
// figure-eight.
func FigureEight(amplitude float64, lobes int) Modulation {
	return func(step, steps int) float64 {
		if steps == 0 {
			return 1
		}
		return 1 + amplitude*math.Sin(2*math.Pi*float64(lobes)*float64(step)/float64(steps))
	}
}

// Noise returns a modulation of 1 + amplitude*n(frequency*step), where n is
// seeded simplex noise in [-1, 1]. The same seed always yields the same
// lattice, so perturbed resonances stay reproducible.
func Noise(amplitude, frequency float64, seed int64) Modulation {
	n := opensimplex.New(seed)
	return func(step, steps int) float64 {
		return 1 + amplitude*n.Eval2(frequency*float64(step), 0)
	}
}

// Options configures lattice generation.
type Options struct {
	Modulation Modulation // per-step bend multiplier; nil means Constant
	Offset     r3.Vec     // translation applied to the seed tetrahedron
	Epsilon    float64    // minimum hinge edge length
}

// Option represents a functional option for Generate and NewWalker.
type Option func(*Options)

// WithModulation sets a per-step bend multiplier.
func WithModulation(m Modulation) Option {
	return func(o *Options) {
		o.Modulation = m
	}
}

// WithOffset translates the seed tetrahedron, used when packing several
// strands side by side.
func WithOffset(offset r3.Vec) Option {
	return func(o *Options) {
		o.Offset = offset
	}
}

// WithEpsilon overrides DefaultEpsilon. Non-positive values are ignored.
func WithEpsilon(eps float64) Option {
	return func(o *Options) {
		if eps > 0 {
			o.Epsilon = eps
		}
	}
}

// DefaultOptions returns the options used when no Option is supplied.
func DefaultOptions() Options {
	return Options{
		Modulation: Constant,
		Epsilon:    DefaultEpsilon,
	}
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Modulation == nil {
		o.Modulation = Constant
	}
	return o
}
