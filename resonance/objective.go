package resonance

import (
	"github.com/pthm-cable/trixle/lattice"
)

// Objective maps a bend factor to the value a search minimises.
type Objective func(bend float64) (float64, error)

// GapObjective returns the closure gap of a steps-long lattice as a
// function of bend factor.
func GapObjective(steps int, opts ...lattice.Option) Objective {
	return func(bend float64) (float64, error) {
		l, err := lattice.Generate(steps, bend, opts...)
		if err != nil {
			return 0, err
		}
		return lattice.Gap(l)
	}
}
