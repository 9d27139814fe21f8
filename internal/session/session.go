// Package session indexes completed and in-flight swarm runs in
// SQLite so `swarm inspect`/`swarm replay` can list and locate them
// without scanning the filesystem. The events themselves live in the
// append-only JSONL log (package events); this package only tracks
// run-level metadata: which event log backs a run, when it started and
// ended, and how it concluded.
package session

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Status is a run's lifecycle state.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Run is one coordinator incarnation's indexed metadata.
type Run struct {
	ID            uuid.UUID
	CoordinatorID uuid.UUID
	EventLogPath  string
	IncarnationID string
	Status        Status
	StartedAt     time.Time
	EndedAt       *time.Time
	Summary       string
}

// Store indexes runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite run index at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening session index: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		coordinator_id TEXT NOT NULL,
		event_log_path TEXT NOT NULL,
		incarnation_id TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		summary TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_coordinator ON runs(coordinator_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating session index schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Start records a new running incarnation.
func (s *Store) Start(coordinatorID uuid.UUID, eventLogPath, incarnationID string) (*Run, error) {
	run := &Run{
		ID:            uuid.New(),
		CoordinatorID: coordinatorID,
		EventLogPath:  eventLogPath,
		IncarnationID: incarnationID,
		Status:        StatusRunning,
		StartedAt:     time.Now(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, coordinator_id, event_log_path, incarnation_id, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.CoordinatorID.String(), run.EventLogPath, run.IncarnationID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}
	return run, nil
}

// Finish marks a run complete or failed with a closing summary.
func (s *Store) Finish(id uuid.UUID, status Status, summary string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, ended_at = ?, summary = ? WHERE id = ?`,
		string(status), time.Now(), summary, id.String(),
	)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// Get returns one run by id.
func (s *Store) Get(id uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, coordinator_id, event_log_path, incarnation_id, status, started_at, ended_at, summary FROM runs WHERE id = ?`,
		id.String(),
	)
	return scanRun(row)
}

// List returns every indexed run, most recently started first.
func (s *Store) List() ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, coordinator_id, event_log_path, incarnation_id, status, started_at, ended_at, summary FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		idStr, coordStr, incarnationID, status string
		eventLogPath                           string
		startedAt                               time.Time
		endedAt                                 sql.NullTime
		summary                                 sql.NullString
	)
	if err := row.Scan(&idStr, &coordStr, &eventLogPath, &incarnationID, &status, &startedAt, &endedAt, &summary); err != nil {
		return nil, fmt.Errorf("scanning run row: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing run id: %w", err)
	}
	coordinatorID, err := uuid.Parse(coordStr)
	if err != nil {
		return nil, fmt.Errorf("parsing coordinator id: %w", err)
	}
	run := &Run{
		ID:            id,
		CoordinatorID: coordinatorID,
		EventLogPath:  eventLogPath,
		IncarnationID: incarnationID,
		Status:        Status(status),
		StartedAt:     startedAt,
		Summary:       summary.String,
	}
	if endedAt.Valid {
		t := endedAt.Time
		run.EndedAt = &t
	}
	return run, nil
}
