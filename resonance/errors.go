package resonance

import "errors"

var (
	// ErrEmptySearchSpace indicates a search over zero candidates.
	ErrEmptySearchSpace = errors.New("resonance: no candidates to search")
	// ErrInvalidSamples indicates a negative sample count.
	ErrInvalidSamples = errors.New("resonance: sample count must be non-negative")
	// ErrInvalidRange indicates a non-finite interval bound or an unusable
	// step range.
	ErrInvalidRange = errors.New("resonance: invalid range")
	// ErrChiralityRange indicates an interval whose values do not all carry
	// the expected sign.
	ErrChiralityRange = errors.New("resonance: interval has the wrong sign")
	// ErrInvalidObjective indicates an objective returned NaN.
	ErrInvalidObjective = errors.New("resonance: objective returned NaN")
)
