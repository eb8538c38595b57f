// Package runstore persists smoothing runs to sqlite so the service can
// serve run history and convergence charts after the fact.
package runstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// schema is the embedded DDL used when no migrations directory is
// available (tests, the CLI). It must stay in sync with migrations/.
const schema = `
	CREATE TABLE IF NOT EXISTS smoothing_runs (
		run_id            TEXT PRIMARY KEY,
		created_unix_nanos INTEGER NOT NULL,
		points            INTEGER NOT NULL,
		initial_cost      DOUBLE NOT NULL,
		final_cost        DOUBLE NOT NULL,
		iterations        INTEGER NOT NULL,
		converged         INTEGER NOT NULL,
		reason            TEXT,
		input_json        TEXT NOT NULL,
		smoothed_json     TEXT NOT NULL,
		trace_json        TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_smoothing_runs_created
		ON smoothing_runs(created_unix_nanos DESC);
`

// Run is one recorded smoothing run.
type Run struct {
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	Points       int       `json:"points"`
	InitialCost  float64   `json:"initial_cost"`
	FinalCost    float64   `json:"final_cost"`
	Iterations   int       `json:"iterations"`
	Converged    bool      `json:"converged"`
	Reason       string    `json:"reason,omitempty"`
	InputPath    []float64 `json:"input_path"`
	SmoothedPath []float64 `json:"smoothed_path"`
	Trace        []float64 `json:"trace,omitempty"`
}

// Store wraps the sqlite database holding run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply run store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// RecordRun inserts a run, assigning a fresh run id and timestamp when
// they are unset. The stored id is returned.
func (s *Store) RecordRun(run *Run) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	inputJSON, err := json.Marshal(run.InputPath)
	if err != nil {
		return "", fmt.Errorf("failed to marshal input path: %w", err)
	}
	smoothedJSON, err := json.Marshal(run.SmoothedPath)
	if err != nil {
		return "", fmt.Errorf("failed to marshal smoothed path: %w", err)
	}
	traceJSON, err := json.Marshal(run.Trace)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cost trace: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO smoothing_runs (
			run_id, created_unix_nanos, points, initial_cost, final_cost,
			iterations, converged, reason, input_json, smoothed_json, trace_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.UnixNano(), run.Points,
		run.InitialCost, run.FinalCost, run.Iterations,
		boolToInt(run.Converged), run.Reason,
		string(inputJSON), string(smoothedJSON), string(traceJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return run.RunID, nil
}

// Run fetches a single run by id. A missing id returns sql.ErrNoRows.
func (s *Store) Run(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, created_unix_nanos, points, initial_cost, final_cost,
			iterations, converged, reason, input_json, smoothed_json, trace_json
		FROM smoothing_runs WHERE run_id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT run_id, created_unix_nanos, points, initial_cost, final_cost,
			iterations, converged, reason, input_json, smoothed_json, trace_json
		FROM smoothing_runs
		ORDER BY created_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var createdNanos int64
	var converged int
	var reason sql.NullString
	var inputJSON, smoothedJSON string
	var traceJSON sql.NullString

	err := row.Scan(&r.RunID, &createdNanos, &r.Points, &r.InitialCost,
		&r.FinalCost, &r.Iterations, &converged, &reason,
		&inputJSON, &smoothedJSON, &traceJSON)
	if err != nil {
		return nil, err
	}

	r.CreatedAt = time.Unix(0, createdNanos)
	r.Converged = converged != 0
	r.Reason = reason.String
	if err := json.Unmarshal([]byte(inputJSON), &r.InputPath); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input path: %w", err)
	}
	if err := json.Unmarshal([]byte(smoothedJSON), &r.SmoothedPath); err != nil {
		return nil, fmt.Errorf("failed to unmarshal smoothed path: %w", err)
	}
	if traceJSON.Valid && traceJSON.String != "" {
		if err := json.Unmarshal([]byte(traceJSON.String), &r.Trace); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cost trace: %w", err)
		}
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
