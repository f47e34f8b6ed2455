package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/lattice"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds a generated lattice and everything needed to regenerate it.
type Snapshot struct {
	Version int `json:"version"`

	Particle   string                  `json:"particle,omitempty"`
	Steps      int                     `json:"steps"`
	Bend       float64                 `json:"bend"`
	Modulation config.ModulationConfig `json:"modulation"`
	Offset     [3]float64              `json:"offset"`
	Epsilon    float64                 `json:"epsilon"`

	Points [][3]float64 `json:"points"`
}

// NewSnapshot captures l. offset and eps must be the values it was generated
// with.
func NewSnapshot(particle string, l *lattice.Lattice, mod config.ModulationConfig, offset r3.Vec, eps float64) *Snapshot {
	points := make([][3]float64, l.Len())
	for i := range points {
		p := l.At(i)
		points[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return &Snapshot{
		Version:    SnapshotVersion,
		Particle:   particle,
		Steps:      l.Steps(),
		Bend:       l.Bend(),
		Modulation: mod,
		Offset:     [3]float64{offset.X, offset.Y, offset.Z},
		Epsilon:    eps,
		Points:     points,
	}
}

// Replay regenerates the snapshot's lattice and returns the largest distance
// between a stored and a regenerated point. Generation is deterministic, so
// anything but zero means the stored points came from different code.
func (s *Snapshot) Replay() (float64, error) {
	if s.Version != SnapshotVersion {
		return 0, fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	l, err := lattice.Generate(s.Steps, s.Bend,
		lattice.WithModulation(s.Modulation.Modulation()),
		lattice.WithOffset(r3.Vec{X: s.Offset[0], Y: s.Offset[1], Z: s.Offset[2]}),
		lattice.WithEpsilon(s.Epsilon),
	)
	if err != nil {
		return 0, fmt.Errorf("regenerate: %w", err)
	}
	if l.Len() != len(s.Points) {
		return 0, fmt.Errorf("regenerated %d points, snapshot has %d", l.Len(), len(s.Points))
	}

	var worst float64
	for i, p := range s.Points {
		d := r3.Norm(r3.Sub(l.At(i), r3.Vec{X: p[0], Y: p[1], Z: p[2]}))
		if d > worst {
			worst = d
		}
	}
	return worst, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Steps)
	if snapshot.Particle != "" {
		sanitized := strings.ReplaceAll(snapshot.Particle, " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Steps, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
