// Package storage keeps a local SQLite ledger of pipeline runs.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/campaignsplit/internal/core"
)

// DB is the run history ledger.
type DB struct {
	conn *sql.DB
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Phase     string
	Archives  int
	Entries   int
	Rows      int
	Outputs   []string
	Error     string
	Groups    []GroupRecord
}

// GroupRecord is one row of the run_groups table.
type GroupRecord struct {
	Key     string
	Sources int
	Rows    int
	Skipped bool
}

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  duration_ms INTEGER NOT NULL,
  phase TEXT NOT NULL,
  input_dir TEXT,
  output_dir TEXT,
  archives INTEGER NOT NULL,
  entries INTEGER NOT NULL,
  total_rows INTEGER NOT NULL,
  outputs_json TEXT NOT NULL,
  error TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS run_groups (
  run_id TEXT NOT NULL,
  group_key TEXT NOT NULL,
  sources INTEGER NOT NULL,
  row_count INTEGER NOT NULL,
  skipped INTEGER NOT NULL,
  PRIMARY KEY (run_id, group_key)
);
`
	_, err := d.conn.Exec(schema)
	return err
}

// RecordRun implements core.Recorder.
func (d *DB) RecordRun(ctx context.Context, r *core.RunResult) error {
	outputs, err := json.Marshal(nonNil(r.Outputs))
	if err != nil {
		return err
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (run_id, started_at, duration_ms, phase, input_dir, output_dir,
  archives, entries, total_rows, outputs_json, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  duration_ms = excluded.duration_ms,
  phase = excluded.phase,
  archives = excluded.archives,
  entries = excluded.entries,
  total_rows = excluded.total_rows,
  outputs_json = excluded.outputs_json,
  error = excluded.error;`,
		r.RunID,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Duration.Milliseconds(),
		string(r.Phase),
		r.InputDir,
		r.OutputDir,
		len(r.Archives),
		r.Entries,
		r.TotalRows(),
		string(outputs),
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_groups WHERE run_id = ?`, r.RunID); err != nil {
		return err
	}
	for _, g := range r.Groups {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_groups (run_id, group_key, sources, row_count, skipped) VALUES (?, ?, ?, ?, ?)`,
			r.RunID, g.Key, g.Sources, g.Rows, boolToInt(g.Skipped),
		)
		if err != nil {
			return fmt.Errorf("insert group %s: %w", g.Key, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first, with their groups.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.conn.QueryContext(ctx, `
SELECT run_id, started_at, duration_ms, phase, archives, entries, total_rows, outputs_json, COALESCE(error, '')
FROM runs
ORDER BY started_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			startedAt  string
			durationMS int64
			outputs    string
		)
		if err := rows.Scan(&rec.RunID, &startedAt, &durationMS, &rec.Phase,
			&rec.Archives, &rec.Entries, &rec.Rows, &outputs, &rec.Error); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			rec.StartedAt = t
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(outputs), &rec.Outputs); err != nil {
			return nil, fmt.Errorf("decode outputs for run %s: %w", rec.RunID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		groups, err := d.groups(ctx, out[i].RunID)
		if err != nil {
			return nil, err
		}
		out[i].Groups = groups
	}
	return out, nil
}

func (d *DB) groups(ctx context.Context, runID string) ([]GroupRecord, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT group_key, sources, row_count, skipped FROM run_groups WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupRecord
	for rows.Next() {
		var g GroupRecord
		var skipped int
		if err := rows.Scan(&g.Key, &g.Sources, &g.Rows, &skipped); err != nil {
			return nil, err
		}
		g.Skipped = skipped != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
