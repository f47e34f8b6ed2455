package telemetry

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/lattice"
	"github.com/pthm-cable/trixle/resonance"
)

// Output file names.
const (
	FilePoints    = "points.csv"
	FileCells     = "cells.csv"
	FileSamples   = "samples.csv"
	FileSweep     = "sweep.csv"
	FileSteps     = "steps.csv"
	FileProfile   = "profile.csv"
	FileFindings  = "findings.csv"
	FilePerf      = "perf.csv"
	FileConfig    = "config.yaml"
	FileManifest  = "manifest.yaml"
	FileGapStats  = "gap_stats.csv"
	FileChirality = "chirality.csv"
)

// PointRecord is one lattice vertex.
type PointRecord struct {
	Strand int     `csv:"strand"`
	Index  int     `csv:"index"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	Z      float64 `csv:"z"`
}

// CellRecord is one tetrahedron as vertex indices.
type CellRecord struct {
	Strand int `csv:"strand"`
	Cell   int `csv:"cell"`
	A      int `csv:"a"`
	B      int `csv:"b"`
	C      int `csv:"c"`
	D      int `csv:"d"`
}

// ProfileRecord is one point of a radial profile.
type ProfileRecord struct {
	Index    int     `csv:"index"`
	Radius   float64 `csv:"radius"`
	Smoothed float64 `csv:"smoothed"` // NaN where the window does not fit
}

// ChiralityRecord is one hand of a chirality comparison.
type ChiralityRecord struct {
	Hand        string  `csv:"hand"`
	Steps       int     `csv:"steps"`
	Bend        float64 `csv:"bend"`
	Gap         float64 `csv:"gap"`
	Evaluations int     `csv:"evaluations"`
}

// Manifest describes a run and the files it produced.
type Manifest struct {
	RunID    string    `yaml:"run_id"`
	Command  string    `yaml:"command"`
	Args     []string  `yaml:"args,omitempty"`
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished"`
	Files    []string  `yaml:"files"`
}

type csvFile struct {
	f             *os.File
	headerWritten bool
}

// OutputManager handles structured run output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir     string
	runID   uuid.UUID
	command string
	args    []string
	started time.Time
	files   map[string]*csvFile
	extra   []string
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir, command string, args []string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &OutputManager{
		dir:     dir,
		runID:   uuid.New(),
		command: command,
		args:    args,
		started: time.Now().UTC(),
		files:   make(map[string]*csvFile),
	}, nil
}

// RunID returns the identifier written to the manifest.
func (om *OutputManager) RunID() uuid.UUID {
	if om == nil {
		return uuid.Nil
	}
	return om.runID
}

// write appends records to name, creating it with a header on first use.
func (om *OutputManager) write(name string, records any) error {
	cf, ok := om.files[name]
	if !ok {
		f, err := os.Create(filepath.Join(om.dir, name))
		if err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
		cf = &csvFile{f: f}
		om.files[name] = cf
	}

	if !cf.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, cf.f); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		cf.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, cf.f); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	if err := cfg.WriteYAML(filepath.Join(om.dir, FileConfig)); err != nil {
		return err
	}
	om.extra = append(om.extra, FileConfig)
	return nil
}

// WriteLattice writes the vertices and cells of l as strand number strand.
func (om *OutputManager) WriteLattice(strand int, l *lattice.Lattice) error {
	if om == nil {
		return nil
	}

	points := make([]PointRecord, l.Len())
	for i := range points {
		p := l.At(i)
		points[i] = PointRecord{Strand: strand, Index: i, X: p.X, Y: p.Y, Z: p.Z}
	}
	if err := om.write(FilePoints, points); err != nil {
		return err
	}

	cells := l.Cells()
	if len(cells) == 0 {
		return nil
	}
	records := make([]CellRecord, len(cells))
	for i, c := range cells {
		records[i] = CellRecord{Strand: strand, Cell: i, A: c[0], B: c[1], C: c[2], D: c[3]}
	}
	return om.write(FileCells, records)
}

// WriteSamples writes every evaluation of a search.
func (om *OutputManager) WriteSamples(samples []resonance.Sample) error {
	if om == nil || len(samples) == 0 {
		return nil
	}
	return om.write(FileSamples, samples)
}

// WriteSweep writes a ranked sweep.
func (om *OutputManager) WriteSweep(entries []resonance.Entry) error {
	if om == nil || len(entries) == 0 {
		return nil
	}
	return om.write(FileSweep, entries)
}

// WriteSteps writes a fixed-bend step scan.
func (om *OutputManager) WriteSteps(samples []resonance.StepSample) error {
	if om == nil || len(samples) == 0 {
		return nil
	}
	return om.write(FileSteps, samples)
}

// WriteProfile writes a radial profile and its moving average. The average
// is centred on the profile index it summarises.
func (om *OutputManager) WriteProfile(radii, smoothed []float64, window int) error {
	if om == nil || len(radii) == 0 {
		return nil
	}
	records := make([]ProfileRecord, len(radii))
	offset := (window - 1) / 2
	for i, r := range radii {
		records[i] = ProfileRecord{Index: i, Radius: r, Smoothed: nanIfMissing(smoothed, i-offset)}
	}
	return om.write(FileProfile, records)
}

// WriteChirality writes both hands of a comparison.
func (om *OutputManager) WriteChirality(cmp resonance.Comparison) error {
	if om == nil {
		return nil
	}
	return om.write(FileChirality, []ChiralityRecord{
		{Hand: "positive", Steps: cmp.Steps, Bend: cmp.Positive.Bend, Gap: cmp.Positive.Gap, Evaluations: cmp.Positive.Evaluations},
		{Hand: "negative", Steps: cmp.Steps, Bend: cmp.Negative.Bend, Gap: cmp.Negative.Gap, Evaluations: cmp.Negative.Evaluations},
	})
}

// WriteFindings appends findings to findings.csv.
func (om *OutputManager) WriteFindings(findings []Finding) error {
	if om == nil || len(findings) == 0 {
		return nil
	}
	return om.write(FileFindings, findings)
}

// WriteGapStats appends a gap summary to gap_stats.csv.
func (om *OutputManager) WriteGapStats(s GapStats) error {
	if om == nil {
		return nil
	}
	return om.write(FileGapStats, []GapStats{s})
}

// WritePerf appends a progress record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats) error {
	if om == nil {
		return nil
	}
	return om.write(FilePerf, []PerfStatsCSV{stats.ToCSV()})
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close writes the manifest and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	names := make([]string, 0, len(om.files)+len(om.extra)+1)
	for name, cf := range om.files {
		if err := cf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		names = append(names, name)
	}
	names = append(names, om.extra...)
	names = append(names, FileManifest)
	sort.Strings(names)

	m := Manifest{
		RunID:    om.runID.String(),
		Command:  om.command,
		Args:     om.args,
		Started:  om.started,
		Finished: time.Now().UTC(),
		Files:    names,
	}
	if err := writeManifest(om.dir, m); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func writeManifest(dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileManifest), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", FileManifest, err)
	}
	return nil
}

// ReadManifest loads a manifest written by Close.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, FileManifest))
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

func nanIfMissing(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return math.NaN()
	}
	return values[i]
}
