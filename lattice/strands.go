package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// HexPacking returns seed offsets for a centre strand surrounded by six
// neighbours at the given radius in the XY plane.
func HexPacking(radius float64) []r3.Vec {
	c := radius * math.Cos(math.Pi/3)
	s := radius * math.Sin(math.Pi/3)
	return []r3.Vec{
		{},
		{X: radius},
		{X: -radius},
		{X: c, Y: s},
		{X: c, Y: -s},
		{X: -c, Y: s},
		{X: -c, Y: -s},
	}
}

// GenerateStrands builds one lattice per offset. Options apply to every
// strand; a WithOffset among them is overridden by the strand's own offset.
func GenerateStrands(steps int, bend float64, offsets []r3.Vec, opts ...Option) ([]*Lattice, error) {
	strands := make([]*Lattice, 0, len(offsets))
	for i, offset := range offsets {
		strandOpts := append(append([]Option(nil), opts...), WithOffset(offset))
		l, err := Generate(steps, bend, strandOpts...)
		if err != nil {
			return nil, fmt.Errorf("strand %d: %w", i, err)
		}
		strands = append(strands, l)
	}
	return strands, nil
}
