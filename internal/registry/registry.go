package registry

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/giantswarm/cmdtee/internal/fileutil"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// dbName is the journal database file inside the base directory.
const dbName = "journal.db"

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		pid        INTEGER NOT NULL,
		dir        TEXT NOT NULL,
		command    TEXT NOT NULL,
		started_at INTEGER NOT NULL
	)
`

// Entry is one recorded run: enough information to decide later whether its
// sink directory can be reclaimed (the pid) and to explain where it came
// from (the command and start time).
type Entry struct {
	ID        string
	PID       int
	Dir       string
	Command   string
	StartedAt time.Time
}

// Registry is a SQLite-backed ledger of runs whose sink directories are
// currently on disk. A row is inserted when a run's child starts and deleted
// when the run's cleanup removes the directory; rows that survive belong to
// runner processes that died mid-run.
type Registry struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the journal database under baseDir.
//
// The database runs in WAL mode with a generous busy timeout because several
// runner processes may share one base directory concurrently. Synchronous
// NORMAL is acceptable: journal rows are reclaimable bookkeeping, and losing
// one to a crash only delays a purge.
func Open(ctx context.Context, baseDir string) (*Registry, error) {
	path := filepath.Join(baseDir, dbName)
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open run journal %s: %w", path, err)
	}

	// Single connection; the journal sees one short statement at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize run journal %s: %w", path, err)
	}

	return &Registry{db: db, path: path}, nil
}

// Path returns the journal database file path.
func (r *Registry) Path() string {
	return r.path
}

// Record inserts a run entry. The id must be unique across all runs sharing
// the base directory.
func (r *Registry) Record(ctx context.Context, e Entry) error {
	const stmt = `INSERT INTO runs (id, pid, dir, command, started_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, stmt, e.ID, e.PID, e.Dir, e.Command, e.StartedAt.Unix()); err != nil {
		return fmt.Errorf("record run %s: %w", e.ID, err)
	}
	return nil
}

// Forget deletes a run entry. Deleting an id that is not present is not an
// error, so cleanup paths can call Forget unconditionally.
func (r *Registry) Forget(ctx context.Context, id string) error {
	const stmt = `DELETE FROM runs WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, stmt, id); err != nil {
		return fmt.Errorf("forget run %s: %w", id, err)
	}
	return nil
}

// List returns all recorded runs, oldest first.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	const query = `SELECT id, pid, dir, command, started_at FROM runs ORDER BY started_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err() below catches read errors; Close error is redundant

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			started int64
		)
		if err := rows.Scan(&e.ID, &e.PID, &e.Dir, &e.Command, &started); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		e.StartedAt = time.Unix(started, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return entries, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close run journal: %w", err)
	}
	return nil
}
