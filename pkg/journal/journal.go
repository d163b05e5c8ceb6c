// Package journal records every install run and its step outcomes in a
// SQLite database under the state directory.
package journal

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/bonsetup/pkg/chain"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/step"
	_ "modernc.org/sqlite"
)

// Run is one recorded install run
type Run struct {
	ID       int64         `json:"id"`
	Profile  string        `json:"profile"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	DryRun   bool          `json:"dryRun"`
	ExitCode int           `json:"exitCode"`
	Error    string        `json:"error,omitempty"`
	Steps    []Step        `json:"steps,omitempty"`
}

// Step is one recorded step outcome
type Step struct {
	Name     string        `json:"name"`
	Version  string        `json:"version,omitempty"`
	Status   step.Status   `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Store provides SQLite operations for the run journal
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and ensures the schema.
// Use ":memory:" for an in-memory journal.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrJournal, "failed to create %s", filepath.Dir(path))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrJournal, "failed to open journal")
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, errors.ErrJournal, "failed to apply %q", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrJournal, "failed to create schema")
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a finished run and returns its id
func (s *Store) Record(report chain.Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrJournal, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO runs (profile, started_at, duration_ms, dry_run, exit_code, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		report.Profile,
		report.Started.UTC().Format(time.RFC3339Nano),
		report.Duration.Milliseconds(),
		report.DryRun,
		report.ExitCode(),
		report.Error(),
	)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrJournal, "failed to insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrJournal, "failed to read run id")
	}

	for i, o := range report.Outcomes {
		_, err := tx.Exec(`
			INSERT INTO steps (run_id, position, name, version, status, detail, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, o.Step, o.Version, string(o.Status), o.Detail, o.Error(), o.Duration.Milliseconds(),
		)
		if err != nil {
			return 0, errors.Wrapf(err, errors.ErrJournal, "failed to insert step %s", o.Step)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrJournal, "failed to commit run")
	}
	return id, nil
}

// Recent returns up to limit runs, newest first, with their steps
func (s *Store) Recent(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, profile, started_at, duration_ms, dry_run, exit_code, error
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrJournal, "failed to list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.Profile, &started, &durationMs, &run.DryRun, &run.ExitCode, &run.Error); err != nil {
			return nil, errors.Wrap(err, errors.ErrJournal, "failed to scan run")
		}
		run.Started, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrJournal, "failed to parse started_at of run %d", run.ID)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrJournal, "failed to iterate runs")
	}

	for i := range runs {
		steps, err := s.Steps(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Steps = steps
	}
	return runs, nil
}

// Steps returns the recorded steps of a run in execution order
func (s *Store) Steps(runID int64) ([]Step, error) {
	rows, err := s.db.Query(`
		SELECT name, version, status, detail, error, duration_ms
		FROM steps
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrJournal, "failed to list steps of run %d", runID)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var st Step
		var status string
		var durationMs int64
		if err := rows.Scan(&st.Name, &st.Version, &status, &st.Detail, &st.Error, &durationMs); err != nil {
			return nil, errors.Wrap(err, errors.ErrJournal, "failed to scan step")
		}
		st.Status = step.Status(status)
		st.Duration = time.Duration(durationMs) * time.Millisecond
		steps = append(steps, st)
	}
	return steps, rows.Err()
}
