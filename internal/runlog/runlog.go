// Package runlog persists replacement run history to a local SQLite
// database so interrupted runs can be resumed and past runs inspected.
package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is a single invocation of the replacement engine.
type Run struct {
	ID        string
	Org       string
	OldField  string
	NewField  string
	DryRun    bool
	StartedAt time.Time
	EndedAt   time.Time
	Outcome   string
}

// BatchRecord is the persisted terminal state of one batch.
type BatchRecord struct {
	RunID      string
	BatchID    int
	Status     string
	Reports    int
	Replaced   int
	Detail     string
	RecordedAt time.Time
}

// Store wraps the SQLite run ledger.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run ledger at dir/runs.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating run log directory: %w", err)
	}
	path := filepath.Join(dir, "runs.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	// modernc sqlite serializes internally but rejects concurrent
	// writers at the connection level
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id         TEXT PRIMARY KEY,
    org        TEXT NOT NULL,
    old_field  TEXT NOT NULL,
    new_field  TEXT NOT NULL,
    dry_run    INTEGER NOT NULL,
    started_at TEXT NOT NULL,
    ended_at   TEXT,
    outcome    TEXT
);
CREATE TABLE IF NOT EXISTS batches (
    run_id      TEXT NOT NULL REFERENCES runs(id),
    batch_id    INTEGER NOT NULL,
    status      TEXT NOT NULL,
    reports     INTEGER NOT NULL,
    replaced    INTEGER NOT NULL,
    detail      TEXT,
    recorded_at TEXT NOT NULL,
    PRIMARY KEY (run_id, batch_id)
);
CREATE INDEX IF NOT EXISTS idx_batches_run ON batches(run_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating run log schema: %w", err)
	}
	return nil
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(r Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, org, old_field, new_field, dry_run, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Org, r.OldField, r.NewField, boolToInt(r.DryRun), r.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// FinishRun records the end of a run with its outcome.
func (s *Store) FinishRun(runID, outcome string, endedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE runs SET ended_at = ?, outcome = ? WHERE id = ?`,
		endedAt.UTC().Format(time.RFC3339), outcome, runID,
	)
	if err != nil {
		return fmt.Errorf("recording run end: %w", err)
	}
	return nil
}

// RecordBatch upserts the terminal state of a batch within a run.
func (s *Store) RecordBatch(b BatchRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO batches (run_id, batch_id, status, reports, replaced, detail, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, batch_id) DO UPDATE SET
		     status = excluded.status,
		     reports = excluded.reports,
		     replaced = excluded.replaced,
		     detail = excluded.detail,
		     recorded_at = excluded.recorded_at`,
		b.RunID, b.BatchID, b.Status, b.Reports, b.Replaced, b.Detail,
		b.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording batch %d: %w", b.BatchID, err)
	}
	return nil
}

// ConfirmedBatches returns the ids of batches that reached CONFIRMED in
// the most recent non-dry-run run matching org and field pair. It is
// the basis for --resume.
func (s *Store) ConfirmedBatches(org, oldField, newField string) (string, map[int]bool, error) {
	var runID string
	err := s.db.QueryRow(
		`SELECT id FROM runs
		 WHERE org = ? AND old_field = ? AND new_field = ? AND dry_run = 0
		 ORDER BY started_at DESC LIMIT 1`,
		org, oldField, newField,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("finding previous run: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT batch_id FROM batches WHERE run_id = ? AND status = 'confirmed'`, runID,
	)
	if err != nil {
		return "", nil, fmt.Errorf("loading confirmed batches: %w", err)
	}
	defer rows.Close()

	confirmed := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return "", nil, fmt.Errorf("scanning batch id: %w", err)
		}
		confirmed[id] = true
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("iterating confirmed batches: %w", err)
	}
	return runID, confirmed, nil
}

// ListRuns returns runs most recent first, up to limit.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, org, old_field, new_field, dry_run, started_at, ended_at, outcome
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var dryRun int
		var started string
		var ended, outcome sql.NullString
		if err := rows.Scan(&r.ID, &r.Org, &r.OldField, &r.NewField, &dryRun, &started, &ended, &outcome); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.DryRun = dryRun != 0
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if ended.Valid {
			r.EndedAt, _ = time.Parse(time.RFC3339, ended.String)
		}
		if outcome.Valid {
			r.Outcome = outcome.String
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Batches returns the recorded batches for a run ordered by batch id.
func (s *Store) Batches(runID string) ([]BatchRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, batch_id, status, reports, replaced, detail, recorded_at
		 FROM batches WHERE run_id = ? ORDER BY batch_id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer rows.Close()

	var batches []BatchRecord
	for rows.Next() {
		var b BatchRecord
		var detail sql.NullString
		var recorded string
		if err := rows.Scan(&b.RunID, &b.BatchID, &b.Status, &b.Reports, &b.Replaced, &detail, &recorded); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		if detail.Valid {
			b.Detail = detail.String
		}
		b.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batches: %w", err)
	}
	return batches, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
