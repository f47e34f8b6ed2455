package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/trixle/resonance"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1e-12, cfg.Geometry.Epsilon)
	assert.Equal(t, resonance.DefaultRefinePolicy(), cfg.Search.Refine)
	assert.Equal(t, resonance.StepRange{Min: 80, Max: 250}, cfg.Sweep.Range)
	assert.Equal(t, 21.0, cfg.Sweep.EstimateNumerator)
	assert.Equal(t, resonance.StableThreshold, cfg.Sweep.StableThreshold)
	assert.Equal(t, []int{104, 204}, cfg.Sweep.Targets)
	assert.Equal(t, 1836, cfg.Chirality.Steps)
	assert.Equal(t, resonance.StepRange{Min: 130, Max: 144}, cfg.Torsion.Range)
	assert.Equal(t, 0.1555, cfg.Torsion.Bend)
	assert.Equal(t, resonance.StepRange{Min: 4, Max: 12}, cfg.Neutrino.Range)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Derived.Workers)

	assert.Equal(t, []string{"neutrino", "higgs", "electron", "proton", "helium", "dna"}, cfg.ParticleNames())
	assert.InDelta(t, 21.0/104, cfg.Estimate()(104), 1e-15)
	assert.Len(t, cfg.LatticeOptions(), 1)
}

func TestParticlePresets(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name     string
		steps    int
		bend     *float64
		scan     *resonance.Interval
		modKind  string
		modLobes int
	}{
		{name: "neutrino", steps: 6, bend: ptr(0.0)},
		{name: "higgs", steps: 122, scan: &resonance.Interval{Low: 0.14, High: 0.20, Samples: 100}},
		{name: "electron", steps: 136, bend: ptr(0.2052), scan: &resonance.Interval{Low: 0.05, High: 0.50, Samples: 500}},
		{name: "proton", steps: 1836, bend: ptr(0.0152), scan: &resonance.Interval{Low: 0.001, High: 0.02, Samples: 100}},
		{name: "helium", steps: 3600, bend: ptr(0.015), modKind: ModulationFigureEight, modLobes: 2},
		{name: "dna", steps: 500, bend: ptr(0.01525)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := cfg.Particle(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.steps, p.Steps)
			assert.Equal(t, tt.bend, p.Bend)
			assert.Equal(t, tt.scan, p.Scan)
			assert.Equal(t, tt.modKind, p.Modulation.Kind)
			assert.Equal(t, tt.modLobes, p.Modulation.Lobes)
		})
	}

	_, ok := cfg.Particle("tachyon")
	assert.False(t, ok)
}

func TestModulation(t *testing.T) {
	constant := ModulationConfig{}.Modulation()
	assert.Equal(t, 1.0, constant(10, 40))

	eight := ModulationConfig{Kind: ModulationFigureEight, Amplitude: 0.05, Lobes: 2}.Modulation()
	assert.InDelta(t, 1.05, eight(5, 40), 1e-12) // sin(2π·2·5/40) = 1
	assert.InDelta(t, 1.0, eight(0, 40), 1e-12)

	noise := ModulationConfig{Kind: ModulationNoise, Amplitude: 0.02, Frequency: 0.1, Seed: 3}.Modulation()
	assert.InDelta(t, 1.0, noise(17, 40), 0.02)

	helium := ParticleConfig{Modulation: ModulationConfig{Kind: ModulationFigureEight, Amplitude: 0.05, Lobes: 2}}
	assert.Len(t, helium.LatticeOptions(), 1)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Len(t, helium.LatticeOptions(cfg.LatticeOptions()...), 2)
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trixle.yaml")
	data := []byte(`
search:
  workers: 3
sweep:
  range: { min: 100, max: 110 }
  top: 5
particles:
  - name: muon
    steps: 207
    scan: { low: 0.05, high: 0.15, samples: 50 }
profile:
  particle: muon
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Derived.Workers)
	assert.Equal(t, resonance.StepRange{Min: 100, Max: 110}, cfg.Sweep.Range)
	assert.Equal(t, 5, cfg.Sweep.Top)
	// Untouched keys keep their defaults.
	assert.Equal(t, 21.0, cfg.Sweep.EstimateNumerator)
	assert.Equal(t, 40, cfg.Search.Refine.Coarse.Samples)

	assert.Equal(t, []string{"muon"}, cfg.ParticleNames())
	muon, ok := cfg.Particle("muon")
	require.True(t, ok)
	assert.Nil(t, muon.Bend)
	assert.Equal(t, 50, muon.Scan.Samples)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sweep: [unclosed"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalidRange := filepath.Join(t.TempDir(), "range.yaml")
	require.NoError(t, os.WriteFile(invalidRange, []byte("sweep:\n  range: { min: 2, max: 10 }\n"), 0644))
	_, err = Load(invalidRange)
	assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero epsilon", func(c *Config) { c.Geometry.Epsilon = 0 }},
		{"negative workers", func(c *Config) { c.Search.Workers = -1 }},
		{"empty coarse window", func(c *Config) { c.Search.Refine.Coarse.Samples = 0 }},
		{"inverted fine window", func(c *Config) { c.Search.Refine.Fine = resonance.Window{Low: 1.05, High: 0.95, Samples: 20} }},
		{"empty sweep", func(c *Config) { c.Sweep.Range = resonance.StepRange{Min: 200, Max: 100} }},
		{"zero estimate", func(c *Config) { c.Sweep.EstimateNumerator = 0 }},
		{"zero threshold", func(c *Config) { c.Sweep.StableThreshold = 0 }},
		{"short chirality lattice", func(c *Config) { c.Chirality.Steps = 3 }},
		{"chirality crosses zero", func(c *Config) { c.Chirality.Positive.Low = -0.01 }},
		{"thresholds swapped", func(c *Config) { c.Chirality.SymmetryThreshold = 2 }},
		{"neutrino below closure", func(c *Config) { c.Neutrino.Range.Min = 1 }},
		{"zero profile window", func(c *Config) { c.Profile.Window = 0 }},
		{"unknown profile particle", func(c *Config) { c.Profile.Particle = "tachyon" }},
		{"zero packing radius", func(c *Config) { c.Packing.Radius = 0 }},
		{"packing strands too short to close", func(c *Config) { c.Packing.Steps = 2 }},
		{"duplicate particle", func(c *Config) { c.Particles = append(c.Particles, c.Particles[0]) }},
		{"unnamed particle", func(c *Config) { c.Particles[0].Name = "" }},
		{"particle without bend", func(c *Config) { c.Particles[1].Scan = nil }},
		{"unknown modulation", func(c *Config) { c.Particles[4].Modulation.Kind = "spiral" }},
		{"noise without frequency", func(c *Config) { c.Particles[4].Modulation = ModulationConfig{Kind: ModulationNoise, Amplitude: 0.01} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func ptr(v float64) *float64 { return &v }
