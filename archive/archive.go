// Package archive stores runs and their results in a SQLite database so
// resonances found by separate invocations can be compared.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/trixle/resonance"
	"github.com/pthm-cable/trixle/telemetry"
)

// Store wraps a SQLite connection for run archiving.
type Store struct {
	conn *sqlx.DB
}

// Run is one archived invocation.
type Run struct {
	ID          string `db:"id"`
	Command     string `db:"command"`
	StartedUnix int64  `db:"started_unix"`
	Config      string `db:"config_yaml"`
}

// Started returns the run start time in UTC.
func (r Run) Started() time.Time {
	return time.Unix(0, r.StartedUnix).UTC()
}

// SweepRow is an archived sweep entry.
type SweepRow struct {
	RunID  string  `db:"run_id"`
	Rank   int     `db:"rank"`
	Steps  int     `db:"steps"`
	Bend   float64 `db:"bend"`
	Gap    float64 `db:"gap"`
	Stable bool    `db:"stable"`
}

// FindingRow is an archived finding. Gap is invalid when the finding had no
// measured gap.
type FindingRow struct {
	RunID       string          `db:"run_id"`
	Type        string          `db:"type"`
	Steps       int             `db:"steps"`
	Bend        float64         `db:"bend"`
	Gap         sql.NullFloat64 `db:"gap"`
	Verdict     string          `db:"verdict"`
	Description string          `db:"description"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		started_unix INTEGER NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sweep_entries (
		run_id TEXT NOT NULL REFERENCES runs(id),
		rank INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		bend REAL NOT NULL,
		gap REAL NOT NULL,
		stable INTEGER NOT NULL,
		PRIMARY KEY (run_id, rank)
	);

	CREATE TABLE IF NOT EXISTS samples (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		bend REAL NOT NULL,
		gap REAL NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS step_scans (
		run_id TEXT NOT NULL REFERENCES runs(id),
		steps INTEGER NOT NULL,
		bend REAL NOT NULL,
		gap REAL NOT NULL,
		torsion_deg REAL NOT NULL,
		PRIMARY KEY (run_id, steps)
	);

	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		type TEXT NOT NULL,
		steps INTEGER NOT NULL,
		bend REAL NOT NULL,
		gap REAL,
		verdict TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sweep_steps ON sweep_entries(steps, gap);
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveRun records a run. Results saved afterwards reference its ID.
func (s *Store) SaveRun(ctx context.Context, r Run) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO runs (id, command, started_unix, config_yaml) VALUES (?, ?, ?, ?)",
		r.ID, r.Command, r.StartedUnix, r.Config,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

// SaveSweep writes a ranked sweep for runID. Rank follows entry order.
func (s *Store) SaveSweep(ctx context.Context, runID string, entries []resonance.Entry) error {
	return s.insertAll(ctx, "sweep",
		"INSERT INTO sweep_entries (run_id, rank, steps, bend, gap, stable) VALUES (?, ?, ?, ?, ?, ?)",
		len(entries), func(stmt *sqlx.Stmt, i int) error {
			e := entries[i]
			_, err := stmt.ExecContext(ctx, runID, i+1, e.Steps, e.Bend, e.Gap, e.Stable)
			return err
		})
}

// SaveSamples writes every evaluation of a search for runID.
func (s *Store) SaveSamples(ctx context.Context, runID string, samples []resonance.Sample) error {
	return s.insertAll(ctx, "samples",
		"INSERT INTO samples (run_id, seq, bend, gap) VALUES (?, ?, ?, ?)",
		len(samples), func(stmt *sqlx.Stmt, i int) error {
			_, err := stmt.ExecContext(ctx, runID, i, samples[i].Bend, samples[i].Gap)
			return err
		})
}

// SaveSteps writes a fixed-bend step scan for runID.
func (s *Store) SaveSteps(ctx context.Context, runID string, bend float64, samples []resonance.StepSample) error {
	return s.insertAll(ctx, "step scan",
		"INSERT INTO step_scans (run_id, steps, bend, gap, torsion_deg) VALUES (?, ?, ?, ?, ?)",
		len(samples), func(stmt *sqlx.Stmt, i int) error {
			p := samples[i]
			_, err := stmt.ExecContext(ctx, runID, p.Steps, bend, p.Gap, p.TorsionDegrees)
			return err
		})
}

// SaveFindings writes findings for runID.
func (s *Store) SaveFindings(ctx context.Context, runID string, findings []telemetry.Finding) error {
	return s.insertAll(ctx, "findings",
		"INSERT INTO findings (run_id, type, steps, bend, gap, verdict, description) VALUES (?, ?, ?, ?, ?, ?, ?)",
		len(findings), func(stmt *sqlx.Stmt, i int) error {
			f := findings[i]
			gap := sql.NullFloat64{Float64: f.Gap, Valid: !math.IsNaN(f.Gap)}
			_, err := stmt.ExecContext(ctx, runID, string(f.Type), f.Steps, f.Bend, gap, string(f.Verdict), f.Description)
			return err
		})
}

// insertAll runs n inserts of query in one transaction.
func (s *Store) insertAll(ctx context.Context, what, query string, n int, exec func(stmt *sqlx.Stmt, i int) error) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: %w", what, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("save %s: %w", what, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("save %s row %d: %w", what, i, err)
		}
	}
	return tx.Commit()
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	err := s.conn.SelectContext(ctx, &runs,
		"SELECT id, command, started_unix, config_yaml FROM runs ORDER BY started_unix DESC, id LIMIT ?",
		limit,
	)
	return runs, err
}

// Sweep returns the archived sweep of runID in rank order.
func (s *Store) Sweep(ctx context.Context, runID string) ([]SweepRow, error) {
	var rows []SweepRow
	err := s.conn.SelectContext(ctx, &rows,
		"SELECT run_id, rank, steps, bend, gap, stable FROM sweep_entries WHERE run_id = ? ORDER BY rank",
		runID,
	)
	return rows, err
}

// BestResonance returns the smallest archived gap for a step count across
// all runs. The second result is false when the step count was never swept.
func (s *Store) BestResonance(ctx context.Context, steps int) (SweepRow, bool, error) {
	var row SweepRow
	err := s.conn.GetContext(ctx, &row,
		"SELECT run_id, rank, steps, bend, gap, stable FROM sweep_entries WHERE steps = ? ORDER BY gap, run_id LIMIT 1",
		steps,
	)
	if err == sql.ErrNoRows {
		return SweepRow{}, false, nil
	}
	if err != nil {
		return SweepRow{}, false, err
	}
	return row, true, nil
}

// Findings returns the findings of runID in insertion order.
func (s *Store) Findings(ctx context.Context, runID string) ([]FindingRow, error) {
	var rows []FindingRow
	err := s.conn.SelectContext(ctx, &rows,
		"SELECT run_id, type, steps, bend, gap, verdict, description FROM findings WHERE run_id = ? ORDER BY id",
		runID,
	)
	return rows, err
}
