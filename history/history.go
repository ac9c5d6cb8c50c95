// Package history implements the optional build-history sink
// (SPEC_FULL.md §4.M): a modernc.org/sqlite-backed, migration-managed
// record of past job runs, opened only when the CLI's --history-db
// flag is set. With the flag unset, ccm persists nothing beyond
// produced artifacts, preserving spec.md §6's "Persisted state: None
// beyond produced artifacts" for the default configuration. Grounded
// on boxer.go's sql.Open("sqlite", ...) + WAL-mode pattern, generalized
// from the teacher's hand-embedded schema.sql to golang-migrate-managed
// incremental migrations.
package history

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/ccmhq/ccm/runid"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Outcome names how a target resolved, for the job_runs.outcome column.
type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed  Outcome = "failed"
)

// Sink records one build/clean invocation's job outcomes to a sqlite
// database.
type Sink struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path,
// enables WAL mode as the teacher's NewBoxer does, and applies any
// pending migrations.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enable WAL mode: %w", err)
	}

	drv, err := newSqliteDriver(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "ccm-history", drv)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: construct migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		db.Close()
		return nil, fmt.Errorf("history: apply migrations: %w", err)
	}

	return &Sink{db: db}, nil
}

// RecordRun inserts the runs row for one build/clean invocation.
func (s *Sink) RecordRun(id runid.ID, startedAt time.Time) error {
	_, err := s.db.Exec("INSERT INTO runs (id, label, started_at) VALUES (?, ?, ?)",
		id.UUID.String(), id.Label, startedAt)
	return err
}

// RecordJob inserts one job_runs row: one per target resolved during a build.
func (s *Sink) RecordJob(runID runid.ID, target string, outcome Outcome, startedAt time.Time, elapsed time.Duration, exitCode int) error {
	_, err := s.db.Exec(
		"INSERT INTO job_runs (run_id, target, outcome, started_at, elapsed_ms, exit_code) VALUES (?, ?, ?, ?, ?, ?)",
		runID.UUID.String(), target, string(outcome), startedAt, elapsed.Milliseconds(), exitCode,
	)
	return err
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
