// Package config provides configuration loading for the trixle tools.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/trixle/lattice"
	"github.com/pthm-cable/trixle/resonance"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Modulation kinds accepted in particle presets.
const (
	ModulationConstant    = "constant"
	ModulationFigureEight = "figure_eight"
	ModulationNoise       = "noise"
)

// Config holds all run parameters.
type Config struct {
	Geometry  GeometryConfig   `yaml:"geometry"`
	Search    SearchConfig     `yaml:"search"`
	Sweep     SweepConfig      `yaml:"sweep"`
	Chirality ChiralityConfig  `yaml:"chirality"`
	Torsion   ScanConfig       `yaml:"torsion"`
	Neutrino  ScanConfig       `yaml:"neutrino"`
	Profile   ProfileConfig    `yaml:"profile"`
	Packing   PackingConfig    `yaml:"packing"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
	Particles []ParticleConfig `yaml:"particles"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GeometryConfig holds lattice generation parameters.
type GeometryConfig struct {
	Epsilon float64 `yaml:"epsilon"` // Degenerate-length cutoff for hinges and normals
}

// SearchConfig holds resonance search parameters.
type SearchConfig struct {
	Workers int                    `yaml:"workers"` // 0 = runtime.GOMAXPROCS
	Refine  resonance.RefinePolicy `yaml:"refine"`
}

// SweepConfig holds step-count sweep parameters.
type SweepConfig struct {
	Range             resonance.StepRange `yaml:"range"`
	EstimateNumerator float64             `yaml:"estimate_numerator"`
	StableThreshold   float64             `yaml:"stable_threshold"`
	Top               int                 `yaml:"top"`     // Entries shown in reports
	Targets           []int               `yaml:"targets"` // Step counts checked for stability
}

// ChiralityConfig holds left/right comparison parameters.
// The negative interval is the mirror of Positive.
type ChiralityConfig struct {
	Steps              int                `yaml:"steps"`
	Positive           resonance.Interval `yaml:"positive"`
	AsymmetryThreshold float64            `yaml:"asymmetry_threshold"`
	SymmetryThreshold  float64            `yaml:"symmetry_threshold"`
}

// ScanConfig holds a fixed-bend scan over step counts.
type ScanConfig struct {
	Range resonance.StepRange `yaml:"range"`
	Bend  float64             `yaml:"bend"`
}

// ProfileConfig holds radial profile analysis parameters.
type ProfileConfig struct {
	Particle string `yaml:"particle"` // Preset whose lattice is profiled
	Window   int    `yaml:"window"`   // Moving-average width
}

// PackingConfig holds hexagonal strand packing parameters.
type PackingConfig struct {
	Radius float64 `yaml:"radius"`
	Steps  int     `yaml:"steps"`
	Bend   float64 `yaml:"bend"`
}

// TelemetryConfig holds progress and perf reporting parameters.
type TelemetryConfig struct {
	PerfWindow    int `yaml:"perf_window"`
	ProgressEvery int `yaml:"progress_every"`
}

// ParticleConfig is a named lattice preset.
type ParticleConfig struct {
	Name       string              `yaml:"name"`
	Steps      int                 `yaml:"steps"`
	Bend       *float64            `yaml:"bend,omitempty"` // nil = tune over Scan first
	Scan       *resonance.Interval `yaml:"scan,omitempty"`
	Modulation ModulationConfig    `yaml:"modulation,omitempty"`
}

// ModulationConfig selects a per-step bend modulation.
type ModulationConfig struct {
	Kind      string  `yaml:"kind,omitempty" json:"kind,omitempty"` // constant (default), figure_eight or noise
	Amplitude float64 `yaml:"amplitude,omitempty" json:"amplitude,omitempty"`
	Lobes     int     `yaml:"lobes,omitempty" json:"lobes,omitempty"`         // figure_eight only
	Frequency float64 `yaml:"frequency,omitempty" json:"frequency,omitempty"` // noise only, per step
	Seed      int64   `yaml:"seed,omitempty" json:"seed,omitempty"`           // noise only
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Workers       int            // Search.Workers resolved against GOMAXPROCS
	ParticleIndex map[string]int // Particle name -> index into Particles
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. A particles list in the
// file replaces the default presets.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks every section for values the tools cannot run with.
func (c *Config) Validate() error {
	if !(c.Geometry.Epsilon > 0) {
		return invalid("geometry.epsilon must be positive, got %g", c.Geometry.Epsilon)
	}
	if c.Search.Workers < 0 {
		return invalid("search.workers must be >= 0, got %d", c.Search.Workers)
	}
	if err := validateWindow("search.refine.coarse", c.Search.Refine.Coarse); err != nil {
		return err
	}
	if err := validateWindow("search.refine.fine", c.Search.Refine.Fine); err != nil {
		return err
	}

	if err := validateRange("sweep.range", c.Sweep.Range); err != nil {
		return err
	}
	if !(c.Sweep.EstimateNumerator > 0) {
		return invalid("sweep.estimate_numerator must be positive, got %g", c.Sweep.EstimateNumerator)
	}
	if !(c.Sweep.StableThreshold > 0) {
		return invalid("sweep.stable_threshold must be positive, got %g", c.Sweep.StableThreshold)
	}
	if c.Sweep.Top < 0 {
		return invalid("sweep.top must be >= 0, got %d", c.Sweep.Top)
	}

	if c.Chirality.Steps < resonance.MinSteps {
		return invalid("chirality.steps must be >= %d, got %d", resonance.MinSteps, c.Chirality.Steps)
	}
	if err := validateInterval("chirality.positive", c.Chirality.Positive); err != nil {
		return err
	}
	if !(c.Chirality.Positive.Low > 0 && c.Chirality.Positive.High > 0) {
		return invalid("chirality.positive must lie above zero, got [%g, %g]", c.Chirality.Positive.Low, c.Chirality.Positive.High)
	}
	if c.Chirality.SymmetryThreshold < 0 || c.Chirality.AsymmetryThreshold < c.Chirality.SymmetryThreshold {
		return invalid("chirality thresholds need 0 <= symmetry <= asymmetry, got %g and %g",
			c.Chirality.SymmetryThreshold, c.Chirality.AsymmetryThreshold)
	}

	if err := validateRange("torsion.range", c.Torsion.Range); err != nil {
		return err
	}
	if err := validateRange("neutrino.range", c.Neutrino.Range); err != nil {
		return err
	}

	if c.Profile.Window < 1 {
		return invalid("profile.window must be >= 1, got %d", c.Profile.Window)
	}
	if !(c.Packing.Radius > 0) {
		return invalid("packing.radius must be positive, got %g", c.Packing.Radius)
	}
	if c.Packing.Steps < resonance.MinSteps {
		return invalid("packing.steps must be >= %d, got %d", resonance.MinSteps, c.Packing.Steps)
	}
	if c.Telemetry.PerfWindow < 1 {
		return invalid("telemetry.perf_window must be >= 1, got %d", c.Telemetry.PerfWindow)
	}
	if c.Telemetry.ProgressEvery < 1 {
		return invalid("telemetry.progress_every must be >= 1, got %d", c.Telemetry.ProgressEvery)
	}

	seen := make(map[string]bool, len(c.Particles))
	for i, p := range c.Particles {
		if p.Name == "" {
			return invalid("particles[%d] has no name", i)
		}
		if seen[p.Name] {
			return invalid("particle %q defined twice", p.Name)
		}
		seen[p.Name] = true
		if p.Steps < 0 {
			return invalid("particle %q: steps must be >= 0, got %d", p.Name, p.Steps)
		}
		if p.Bend == nil && p.Scan == nil {
			return invalid("particle %q needs a bend or a scan interval", p.Name)
		}
		if p.Scan != nil {
			if err := validateInterval("particle "+p.Name+" scan", *p.Scan); err != nil {
				return err
			}
		}
		switch p.Modulation.Kind {
		case "", ModulationConstant, ModulationFigureEight:
		case ModulationNoise:
			if !(p.Modulation.Frequency > 0) {
				return invalid("particle %q: noise frequency must be > 0, got %g", p.Name, p.Modulation.Frequency)
			}
		default:
			return invalid("particle %q: unknown modulation %q", p.Name, p.Modulation.Kind)
		}
	}

	if _, ok := seen[c.Profile.Particle]; !ok {
		return invalid("profile.particle %q is not a defined particle", c.Profile.Particle)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Workers = c.Search.Workers
	if c.Derived.Workers == 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}

	c.Derived.ParticleIndex = make(map[string]int, len(c.Particles))
	for i, p := range c.Particles {
		c.Derived.ParticleIndex[p.Name] = i
	}
}

// Particle returns the preset with the given name.
func (c *Config) Particle(name string) (ParticleConfig, bool) {
	i, ok := c.Derived.ParticleIndex[name]
	if !ok {
		return ParticleConfig{}, false
	}
	return c.Particles[i], true
}

// ParticleNames returns preset names in file order.
func (c *Config) ParticleNames() []string {
	names := make([]string, len(c.Particles))
	for i, p := range c.Particles {
		names[i] = p.Name
	}
	return names
}

// LatticeOptions returns the generation options shared by every run.
func (c *Config) LatticeOptions() []lattice.Option {
	return []lattice.Option{lattice.WithEpsilon(c.Geometry.Epsilon)}
}

// Estimate returns the sweep's bend estimator.
func (c *Config) Estimate() resonance.EstimateFunc {
	return resonance.InverseEstimate(c.Sweep.EstimateNumerator)
}

// Modulation returns the lattice modulation m describes.
func (m ModulationConfig) Modulation() lattice.Modulation {
	switch m.Kind {
	case ModulationFigureEight:
		return lattice.FigureEight(m.Amplitude, m.Lobes)
	case ModulationNoise:
		return lattice.Noise(m.Amplitude, m.Frequency, m.Seed)
	}
	return lattice.Constant
}

// LatticeOptions returns the generation options for p on top of base.
func (p ParticleConfig) LatticeOptions(base ...lattice.Option) []lattice.Option {
	opts := append([]lattice.Option(nil), base...)
	return append(opts, lattice.WithModulation(p.Modulation.Modulation()))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

func validateRange(name string, r resonance.StepRange) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	return nil
}

func validateWindow(name string, w resonance.Window) error {
	if w.Samples < 1 {
		return invalid("%s.samples must be >= 1, got %d", name, w.Samples)
	}
	if !(w.Low > 0) || w.High < w.Low {
		return invalid("%s needs 0 < low <= high, got [%g, %g]", name, w.Low, w.High)
	}
	return nil
}

func validateInterval(name string, in resonance.Interval) error {
	if in.Samples < 1 {
		return invalid("%s.samples must be >= 1, got %d", name, in.Samples)
	}
	return nil
}
