package lattice

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Lattice is an immutable chain of 4+Steps points. Points 0..3 are the
// (possibly offset) seed tetrahedron.
type Lattice struct {
	points []r3.Vec
	steps  int
	bend   float64
}

// Generate builds the full lattice for steps growth steps at the given bend
// factor. steps == 0 returns the seed tetrahedron.
func Generate(steps int, bend float64, opts ...Option) (*Lattice, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeSteps, steps)
	}
	if steps > MaxSteps {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManySteps, steps, MaxSteps)
	}

	w := NewWalker(steps, bend, opts...)
	points := make([]r3.Vec, 0, w.Len())
	for w.Next() {
		points = append(points, w.Point())
	}
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("generate %d steps at bend %g: %w", steps, bend, err)
	}

	return &Lattice{points: points, steps: steps, bend: bend}, nil
}

// Len returns the number of points.
func (l *Lattice) Len() int { return len(l.points) }

// Steps returns the number of growth steps after the seed.
func (l *Lattice) Steps() int { return l.steps }

// Bend returns the unmodulated bend factor the lattice was built with.
func (l *Lattice) Bend() float64 { return l.bend }

// At returns point i. It panics if i is out of range.
func (l *Lattice) At(i int) r3.Vec { return l.points[i] }

// Points returns a copy of the point sequence.
func (l *Lattice) Points() []r3.Vec {
	out := make([]r3.Vec, len(l.points))
	copy(out, l.points)
	return out
}

// Cells returns the tetrahedra of the chain as point indices: the seed
// [0 1 2 3] followed by [i-3 i-2 i-1 i] for every grown point i.
func (l *Lattice) Cells() [][4]int {
	cells := make([][4]int, 0, l.steps+1)
	cells = append(cells, [4]int{0, 1, 2, 3})
	for i := 4; i < len(l.points); i++ {
		cells = append(cells, [4]int{i - 3, i - 2, i - 1, i})
	}
	return cells
}

// Spine returns the face centre each step reflected through, one per step.
// Tube renderers sweep along this path rather than the jagged vertex chain.
func (l *Lattice) Spine() []r3.Vec {
	spine := make([]r3.Vec, 0, l.steps)
	for i := 0; i < l.steps; i++ {
		spine = append(spine, mean(l.points[i+1:i+4]))
	}
	return spine
}

// Centroid returns the mean of all points.
func (l *Lattice) Centroid() r3.Vec { return mean(l.points) }

func mean(points []r3.Vec) r3.Vec {
	var sum r3.Vec
	for _, p := range points {
		sum = r3.Add(sum, p)
	}
	if len(points) == 0 {
		return sum
	}
	return r3.Scale(1/float64(len(points)), sum)
}
