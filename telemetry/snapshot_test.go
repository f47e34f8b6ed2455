package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/lattice"
)

func TestSnapshotSaveLoadReplay(t *testing.T) {
	tmpDir := t.TempDir()

	mod := config.ModulationConfig{Kind: config.ModulationFigureEight, Amplitude: 0.05, Lobes: 2}
	offset := r3.Vec{X: 2.5, Y: -1}
	l, err := lattice.Generate(200, 0.015,
		lattice.WithModulation(mod.Modulation()),
		lattice.WithOffset(offset),
	)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	snapshot := NewSnapshot("helium", l, mod, offset, lattice.DefaultEpsilon)
	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Version != SnapshotVersion {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, SnapshotVersion)
	}
	if loaded.Steps != 200 || loaded.Bend != 0.015 {
		t.Errorf("parameters mismatch: got %d @ %v", loaded.Steps, loaded.Bend)
	}
	if loaded.Modulation != mod {
		t.Errorf("Modulation mismatch: got %+v, want %+v", loaded.Modulation, mod)
	}
	if len(loaded.Points) != l.Len() {
		t.Fatalf("Points count mismatch: got %d, want %d", len(loaded.Points), l.Len())
	}

	deviation, err := loaded.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if deviation != 0 {
		t.Errorf("replayed lattice deviates by %v", deviation)
	}
}

func TestSnapshotReplayDetectsTampering(t *testing.T) {
	l, err := lattice.Generate(20, 0.2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	snapshot := NewSnapshot("", l, config.ModulationConfig{}, r3.Vec{}, lattice.DefaultEpsilon)
	snapshot.Points[10][2] += 0.5

	deviation, err := snapshot.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if deviation < 0.49 {
		t.Errorf("deviation = %v, want ~0.5", deviation)
	}

	snapshot.Points = snapshot.Points[:5]
	if _, err := snapshot.Replay(); err == nil {
		t.Error("expected length mismatch error")
	}

	snapshot.Version = SnapshotVersion + 1
	if _, err := snapshot.Replay(); err == nil {
		t.Error("expected version error")
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion, Particle: "dna strand", Steps: 500}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	expected := filepath.Join(tmpDir, "snapshot_500_dna_strand.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	path, err = SaveSnapshot(&Snapshot{Version: SnapshotVersion, Steps: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(bad); err == nil {
		t.Error("expected error for malformed file")
	}
}
