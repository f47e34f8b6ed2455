package lattice

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Walker streams the points of a lattice one at a time, in the manner of
// bufio.Scanner:
//
//	w := lattice.NewWalker(1836, 0.0152)
//	for w.Next() {
//		draw(w.Index(), w.Point())
//	}
//	if err := w.Err(); err != nil { ... }
//
// Only the four most recent points are retained, so a walk costs constant
// memory. The points produced for indices 0..k are identical to those of
// Generate for any step count that reaches k.
type Walker struct {
	steps int
	bend  float64
	opts  Options

	window [4]r3.Vec
	index  int
	point  r3.Vec
	err    error
}

// NewWalker returns a Walker that yields 4+steps points. A negative or
// oversized step count is reported through Err and yields no points.
func NewWalker(steps int, bend float64, opts ...Option) *Walker {
	w := &Walker{
		steps: steps,
		bend:  bend,
		opts:  buildOptions(opts),
	}
	w.Reset()
	return w
}

// Reset rewinds the walk to the seed tetrahedron.
func (w *Walker) Reset() {
	w.window = Seed(w.opts.Offset)
	w.index = -1
	w.point = r3.Vec{}
	w.err = nil
	if w.steps < 0 {
		w.err = fmt.Errorf("%w: got %d", ErrNegativeSteps, w.steps)
	}
	if w.steps > MaxSteps {
		w.err = fmt.Errorf("%w: got %d, max %d", ErrTooManySteps, w.steps, MaxSteps)
	}
}

// Len is the total number of points the walk produces.
func (w *Walker) Len() int {
	if w.steps < 0 || w.steps > MaxSteps {
		return 0
	}
	return 4 + w.steps
}

// Next advances to the next point. It returns false at the end of the walk
// or after an error.
func (w *Walker) Next() bool {
	if w.err != nil || w.index+1 >= w.Len() {
		return false
	}
	next := w.index + 1
	if next < 4 {
		w.index = next
		w.point = w.window[next]
		return true
	}

	step := next - 4
	theta := w.bend * w.opts.Modulation(step, w.steps)
	p, err := Step(w.window, theta, w.opts.Epsilon)
	if err != nil {
		w.err = fmt.Errorf("step %d: %w", step, err)
		return false
	}
	w.window = [4]r3.Vec{w.window[1], w.window[2], w.window[3], p}
	w.index = next
	w.point = p
	return true
}

// Point returns the point produced by the last successful Next.
func (w *Walker) Point() r3.Vec { return w.point }

// Index returns the lattice index of Point, or -1 before the first Next.
func (w *Walker) Index() int { return w.index }

// Err returns the first error encountered by the walk.
func (w *Walker) Err() error { return w.err }
