// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a SQLite history of batch runs and the outcome of
// every item they processed.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mdbatch/pkg/types"
)

const (
	dbFile = "ledger.db"

	defaultLimit = 20
)

// Store manages the ledger database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates dir/ledger.db and bootstraps the schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			converted INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			source_name TEXT NOT NULL,
			source_kind TEXT NOT NULL,
			input TEXT NOT NULL,
			output_path TEXT,
			outcome TEXT NOT NULL,
			bytes INTEGER,
			error TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_run_id ON items(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is an open batch run. Items are recorded as they finish. Writes keep
// the values of the context given to BeginRun but not its cancellation, so
// an interrupted run still gets its items and final counters.
type Run struct {
	ID    string
	store *Store
	ctx   context.Context
}

// BeginRun inserts a new run row for tool and returns its handle.
func (s *Store) BeginRun(ctx context.Context, tool types.ToolName) (*Run, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, tool, started_at) VALUES (?, ?, ?)`,
		id, string(tool), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &Run{ID: id, store: s, ctx: context.WithoutCancel(ctx)}, nil
}

// Record stores one item outcome under the run.
func (r *Run) Record(item types.ItemRecord) error {
	_, err := r.store.db.ExecContext(r.ctx,
		`INSERT INTO items (run_id, source_name, source_kind, input, output_path, outcome, bytes, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, item.SourceName, string(item.SourceKind), item.Input, item.OutputPath,
		string(item.Outcome), item.Bytes, item.Error, item.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording item %s: %w", item.Input, err)
	}
	return nil
}

// Finish stores the final counters and finish time.
func (r *Run) Finish(converted, failed, skipped int) error {
	_, err := r.store.db.ExecContext(r.ctx,
		`UPDATE runs SET finished_at = ?, converted = ?, failed = ?, skipped = ? WHERE id = ?`,
		r.store.now().UTC().Format(time.RFC3339Nano), converted, failed, skipped, r.ID)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", r.ID, err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 uses 20.
func (s *Store) Runs(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tool, started_at, COALESCE(finished_at, ''), converted, failed, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var (
			r                 types.RunRecord
			tool              string
			started, finished string
		)
		if err := rows.Scan(&r.ID, &tool, &started, &finished, &r.Converted, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Tool = types.ToolName(tool)
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Items returns the items of one run in processing order.
func (s *Store) Items(ctx context.Context, runID string) ([]types.ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source_name, source_kind, input, COALESCE(output_path, ''), outcome,
		        COALESCE(bytes, 0), COALESCE(error, ''), COALESCE(duration_ms, 0)
		 FROM items WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []types.ItemRecord
	for rows.Next() {
		var (
			it            types.ItemRecord
			kind, outcome string
			ms            int64
		)
		if err := rows.Scan(&it.RunID, &it.SourceName, &kind, &it.Input, &it.OutputPath, &outcome,
			&it.Bytes, &it.Error, &ms); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.SourceKind = types.SourceKind(kind)
		it.Outcome = types.Outcome(outcome)
		it.Duration = time.Duration(ms) * time.Millisecond
		items = append(items, it)
	}
	return items, rows.Err()
}
