// Package lab runs trixle experiments: it ties configuration, the lattice
// and resonance core, telemetry output and the optional run archive
// together behind one method per command.
package lab

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/trixle/archive"
	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/lattice"
	"github.com/pthm-cable/trixle/resonance"
	"github.com/pthm-cable/trixle/telemetry"
)

// Options configures a Lab.
type Options struct {
	Command     string   // recorded in the manifest and archive
	Args        []string // command-line arguments, for the manifest
	OutputDir   string   // CSV/YAML output; empty disables
	ArchivePath string   // SQLite archive; empty disables
	Workers     int      // overrides the configured worker count when > 0
	LogProgress bool     // log sweep progress and findings as they happen
}

// Lab holds the shared state of one command invocation.
type Lab struct {
	cfg     *config.Config
	opts    Options
	workers int

	out   *telemetry.OutputManager
	store *archive.Store
	runID string
}

// New prepares output and archive for a command run with cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Lab, error) {
	l := &Lab{cfg: cfg, opts: opts, workers: cfg.Derived.Workers}
	if opts.Workers > 0 {
		l.workers = opts.Workers
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir, opts.Command, opts.Args)
	if err != nil {
		return nil, err
	}
	l.out = out
	if err := out.WriteConfig(cfg); err != nil {
		out.Close()
		return nil, err
	}

	if opts.ArchivePath != "" {
		store, err := archive.Open(opts.ArchivePath)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		l.store = store

		// Share the manifest's run ID when output is enabled
		l.runID = uuid.NewString()
		if out != nil {
			l.runID = out.RunID().String()
		}

		cfgYAML, err := yaml.Marshal(cfg)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("marshaling config: %w", err)
		}
		run := archive.Run{
			ID:          l.runID,
			Command:     opts.Command,
			StartedUnix: time.Now().UnixNano(),
			Config:      string(cfgYAML),
		}
		if err := store.SaveRun(ctx, run); err != nil {
			l.Close()
			return nil, err
		}
	}

	return l, nil
}

// Close flushes output and closes the archive.
func (l *Lab) Close() error {
	var firstErr error
	if err := l.out.Close(); err != nil {
		firstErr = err
	}
	if l.store != nil {
		if err := l.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Config returns the configuration the lab runs with.
func (l *Lab) Config() *config.Config { return l.cfg }

// Workers returns the resolved worker count.
func (l *Lab) Workers() int { return l.workers }

// OutputDir returns the output directory, or "" when disabled.
func (l *Lab) OutputDir() string { return l.out.Dir() }

// RunID returns the archive run ID, or "" when archiving is disabled.
func (l *Lab) RunID() string { return l.runID }

func (l *Lab) searchOptions(extra ...resonance.Option) []resonance.Option {
	opts := []resonance.Option{
		resonance.WithWorkers(l.workers),
		resonance.WithPolicy(l.cfg.Search.Refine),
		resonance.WithThreshold(l.cfg.Sweep.StableThreshold),
		resonance.WithLatticeOptions(l.cfg.LatticeOptions()...),
	}
	return append(opts, extra...)
}

// logged reports a non-fatal output failure. Results already computed are
// still returned to the caller.
func logged(what string, err error) {
	if err != nil {
		slog.Error("failed to write "+what, "error", err)
	}
}

func (l *Lab) recordFindings(ctx context.Context, findings []telemetry.Finding) {
	if l.opts.LogProgress {
		for _, f := range findings {
			f.LogFinding()
		}
	}
	logged("findings", l.out.WriteFindings(findings))
	if l.store != nil {
		logged("archived findings", l.store.SaveFindings(ctx, l.runID, findings))
	}
}

// generate builds a lattice with the configured geometry options.
func (l *Lab) generate(steps int, bend float64, opts ...lattice.Option) (*lattice.Lattice, error) {
	all := append(l.cfg.LatticeOptions(), opts...)
	return lattice.Generate(steps, bend, all...)
}
