// Package trace records reduction runs in a local sqlite database.
package trace

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	quota       INTEGER NOT NULL,
	steps       INTEGER,
	residual    TEXT,
	started_at  TEXT NOT NULL,
	finished_at TEXT
);
CREATE TABLE IF NOT EXISTS steps (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	idx     INTEGER NOT NULL,
	block   TEXT NOT NULL,
	action  TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);
`

// Store is the run-history database. One Store may record many runs; it is
// not safe for concurrent use from multiple goroutines, matching the
// single-driver model of the machine it observes.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path. Use
// ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of a reduction and returns its run id.
func (s *Store) BeginRun(source string, quota int) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, source, quota, started_at) VALUES (?, ?, ?, ?)`,
		id, source, quota, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("trace: begin run: %w", err)
	}
	return id, nil
}

// RecordStep records one driver step of a run.
func (s *Store) RecordStep(runID string, idx int, block, action string) error {
	_, err := s.db.Exec(
		`INSERT INTO steps (run_id, idx, block, action) VALUES (?, ?, ?, ?)`,
		runID, idx, block, action,
	)
	if err != nil {
		return fmt.Errorf("trace: record step %d: %w", idx, err)
	}
	return nil
}

// FinishRun records a run's outcome: fuel spent and the residual term.
func (s *Store) FinishRun(runID string, steps int, residual string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET steps = ?, residual = ?, finished_at = ? WHERE id = ?`,
		steps, residual, time.Now().UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("trace: finish run: %w", err)
	}
	return nil
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID       string
	Source   string
	Quota    int
	Steps    int
	Residual string
}

// Recent returns up to n finished runs, newest first.
func (s *Store) Recent(n int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, source, quota, steps, residual FROM runs
		 WHERE finished_at IS NOT NULL
		 ORDER BY finished_at DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("trace: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Source, &r.Quota, &r.Steps, &r.Residual); err != nil {
			return nil, fmt.Errorf("trace: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Step is one recorded driver step.
type Step struct {
	Idx    int
	Block  string
	Action string
}

// Steps returns the recorded steps of a run in order.
func (s *Store) Steps(runID string) ([]Step, error) {
	rows, err := s.db.Query(
		`SELECT idx, block, action FROM steps WHERE run_id = ? ORDER BY idx`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("trace: list steps: %w", err)
	}
	defer rows.Close()

	var out []Step
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.Idx, &st.Block, &st.Action); err != nil {
			return nil, fmt.Errorf("trace: scan step: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
