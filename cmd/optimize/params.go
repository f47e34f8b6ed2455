package main

import (
	"fmt"

	"github.com/pthm-cable/trixle/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// Parameter order; ApplyToConfig and ExtractFromConfig depend on it.
const (
	paramBend = iota
	paramAmplitude
)

// NewParamVector creates the parameters for polishing preset p: its bend
// within [bendMin, bendMax] and a figure-eight amplitude up to maxAmplitude.
func NewParamVector(p config.ParticleConfig, bendMin, bendMax, maxAmplitude float64) (*ParamVector, error) {
	if !(bendMin < bendMax) {
		return nil, fmt.Errorf("bend bounds [%g, %g] are empty", bendMin, bendMax)
	}
	if maxAmplitude <= 0 {
		return nil, fmt.Errorf("max amplitude must be positive, got %g", maxAmplitude)
	}

	bend := (bendMin + bendMax) / 2
	if p.Bend != nil && *p.Bend >= bendMin && *p.Bend <= bendMax {
		bend = *p.Bend
	}
	amp := 0.0
	if p.Modulation.Kind == config.ModulationFigureEight {
		amp = min(p.Modulation.Amplitude, maxAmplitude)
	}

	path := "particles." + p.Name
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "bend", Path: path + ".bend", Min: bendMin, Max: bendMax, Default: bend},
			{Name: "amplitude", Path: path + ".modulation.amplitude", Min: 0, Max: maxAmplitude, Default: amp},
		},
	}, nil
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = max(spec.Min, min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToParticle writes clamped values into p. A zero amplitude leaves p
// unmodulated.
func (pv *ParamVector) ApplyToParticle(p *config.ParticleConfig, values []float64, lobes int) {
	clamped := pv.Clamp(values)

	bend := clamped[paramBend]
	p.Bend = &bend
	if amp := clamped[paramAmplitude]; amp > 0 {
		p.Modulation = config.ModulationConfig{Kind: config.ModulationFigureEight, Amplitude: amp, Lobes: lobes}
	} else {
		p.Modulation = config.ModulationConfig{}
	}
}

// ExtractFromParticle returns p's current parameter values.
func (pv *ParamVector) ExtractFromParticle(p config.ParticleConfig) []float64 {
	v := pv.DefaultVector()
	if p.Bend != nil {
		v[paramBend] = *p.Bend
	}
	if p.Modulation.Kind == config.ModulationFigureEight {
		v[paramAmplitude] = p.Modulation.Amplitude
	} else {
		v[paramAmplitude] = 0
	}
	return v
}
