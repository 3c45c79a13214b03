// Package store implements the persistent command-history engine for
// Omniscient.
//
// It uses SQLite with an FTS5 full-text index to store and retrieve shell
// command records. This is the core of Omniscient — everything else (capture,
// merge, MCP server, CLI, TUI) talks to this.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Record is one stored history entry, keyed by (Command, Cwd).
// JSON field names match the export envelope format.
type Record struct {
	ID         int64     `json:"id,omitempty"`
	Command    string    `json:"command"`
	OccurredAt time.Time `json:"timestamp"`
	ExitCode   int       `json:"exit_code"`
	DurationMS int64     `json:"duration_ms"`
	Cwd        string    `json:"working_dir"`
	Category   string    `json:"category"`
	UsageCount int       `json:"usage_count"`
	LastUsedAt time.Time `json:"last_used"`
}

// Success reports whether the command exited cleanly.
func (r Record) Success() bool {
	return r.ExitCode == 0
}

// timeFormat is how timestamps are persisted: RFC 3339 with fixed-width
// nanoseconds. In UTC it sorts lexicographically, which the recency indexes
// rely on, and the fixed width keeps same-second writes ordered.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed record store. It is safe for use by
// overlapping short-lived writers: conflicting mutations are serialized
// through transactions and the UNIQUE(command, cwd) constraint.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its parent directory) if needed and
// initializes the schema. Pass ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: create data dir: %v", ErrStorageUnavailable, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrStorageUnavailable, err)
	}
	if path == ":memory:" {
		// every pool connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: pragma %q: %v", ErrStorageUnavailable, p, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema: %v", ErrStorageUnavailable, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Schema ──────────────────────────────────────────────────────────────────

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS commands (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			command      TEXT    NOT NULL,
			occurred_at  TEXT    NOT NULL,
			exit_code    INTEGER NOT NULL,
			duration_ms  INTEGER NOT NULL,
			cwd          TEXT    NOT NULL,
			category     TEXT    NOT NULL,
			usage_count  INTEGER NOT NULL DEFAULT 1,
			last_used_at TEXT    NOT NULL,
			UNIQUE (command, cwd)
		);

		CREATE INDEX IF NOT EXISTS idx_commands_cwd       ON commands(cwd);
		CREATE INDEX IF NOT EXISTS idx_commands_category  ON commands(category);
		CREATE INDEX IF NOT EXISTS idx_commands_last_used ON commands(last_used_at DESC);
		CREATE INDEX IF NOT EXISTS idx_commands_usage     ON commands(usage_count DESC);
		CREATE INDEX IF NOT EXISTS idx_commands_exit      ON commands(exit_code);

		CREATE VIRTUAL TABLE IF NOT EXISTS commands_fts USING fts5(
			command,
			content='commands',
			content_rowid='id'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Triggers keep the FTS shadow of command text in sync with every row
	// mutation, inside the same transaction as the mutation itself.
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='commands_fts_insert'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER commands_fts_insert AFTER INSERT ON commands BEGIN
				INSERT INTO commands_fts(rowid, command) VALUES (new.id, new.command);
			END;

			CREATE TRIGGER commands_fts_delete AFTER DELETE ON commands BEGIN
				INSERT INTO commands_fts(commands_fts, rowid, command)
				VALUES ('delete', old.id, old.command);
			END;

			CREATE TRIGGER commands_fts_update AFTER UPDATE ON commands BEGIN
				INSERT INTO commands_fts(commands_fts, rowid, command)
				VALUES ('delete', old.id, old.command);
				INSERT INTO commands_fts(rowid, command) VALUES (new.id, new.command);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Mutations ───────────────────────────────────────────────────────────────

// Insert stores a new record and returns its id. Returns ErrDuplicate if a
// record with the same (command, cwd) already exists — including when a
// concurrent writer won the race between a caller's Find and this Insert.
func (s *Store) Insert(ctx context.Context, r *Record) (int64, error) {
	if r.UsageCount < 1 {
		r.UsageCount = 1
	}
	if r.LastUsedAt.IsZero() {
		r.LastUsedAt = r.OccurredAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("omniscient: insert: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO commands (command, occurred_at, exit_code, duration_ms, cwd, category, usage_count, last_used_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Command,
		r.OccurredAt.UTC().Format(timeFormat),
		r.ExitCode,
		r.DurationMS,
		r.Cwd,
		r.Category,
		r.UsageCount,
		r.LastUsedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("omniscient: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("omniscient: insert: last id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("omniscient: insert: commit: %w", err)
	}

	r.ID = id
	return id, nil
}

// Find looks up the record with the exact (command, cwd) pair.
// Returns ErrNotFound when no such record exists.
func (s *Store) Find(ctx context.Context, command, cwd string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+` FROM commands WHERE command = ? AND cwd = ? LIMIT 1`,
		command, cwd,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("omniscient: find: %w", err)
	}
	return r, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+` FROM commands WHERE id = ?`, id,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("omniscient: get: %w", err)
	}
	return r, nil
}

// Touch records a repeat occurrence: usage_count is incremented and
// last_used_at set to now. Returns ErrNotFound if id does not exist.
func (s *Store) Touch(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("omniscient: touch: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE commands SET usage_count = usage_count + 1, last_used_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("omniscient: touch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("omniscient: touch: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// SetUsage overwrites usage_count for an existing record, clamped to >= 1,
// and bumps last_used_at. Used by the merge engine's preserve-higher policy.
func (s *Store) SetUsage(ctx context.Context, id int64, count int) error {
	if count < 1 {
		count = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE commands SET usage_count = ?, last_used_at = ? WHERE id = ?`,
		count, time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("omniscient: set usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("omniscient: set usage: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM commands").Scan(&n); err != nil {
		return 0, fmt.Errorf("omniscient: count: %w", err)
	}
	return n, nil
}

// ForEach streams every record in first-occurrence order. Restartable by
// calling again; export is the only consumer. Iteration stops at the first
// error returned by fn.
func (s *Store) ForEach(ctx context.Context, fn func(Record) error) error {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` FROM commands ORDER BY occurred_at ASC, id ASC`,
	)
	if err != nil {
		return fmt.Errorf("omniscient: all: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("omniscient: all: %w", err)
		}
		if err := fn(*r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ─── Row scanning ────────────────────────────────────────────────────────────

const selectColumns = `SELECT id, command, occurred_at, exit_code, duration_ms, cwd, category, usage_count, last_used_at`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var r Record
	var occurredAt, lastUsedAt string
	if err := sc.Scan(
		&r.ID, &r.Command, &occurredAt, &r.ExitCode, &r.DurationMS,
		&r.Cwd, &r.Category, &r.UsageCount, &lastUsedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if r.OccurredAt, err = time.Parse(timeFormat, occurredAt); err != nil {
		return nil, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
	}
	if r.LastUsedAt, err = time.Parse(timeFormat, lastUsedAt); err != nil {
		return nil, fmt.Errorf("parse last_used_at %q: %w", lastUsedAt, err)
	}
	return &r, nil
}
