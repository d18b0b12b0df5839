package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	domain "github.com/oshokin/gfs-monitor/internal/domain/cycle"
)

// schema keeps a single row, pinned by the id check.
const schema = `CREATE TABLE IF NOT EXISTS monitor_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_cycle TEXT NOT NULL,
    is_completed INTEGER NOT NULL,
    updated_at TEXT NOT NULL
)`

// corruptSuffix is appended to a database file that had to be replaced.
const corruptSuffix = ".corrupt"

// SQLiteRepository persists the monitor state in a SQLite database.
type SQLiteRepository struct {
	db   *sql.DB
	path string
	now  func() time.Time

	// recovered is the error that made OpenSQLite replace the file.
	// The next Load reports it as ErrCorrupt.
	recovered error
}

// OpenSQLite opens or creates the database at path and ensures the schema.
// A file that is not a usable database is moved to path + ".corrupt" and a
// fresh database is created in its place.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	path = filepath.Clean(path)

	db, err := openDB(ctx, path)
	if err == nil {
		return &SQLiteRepository{db: db, path: path, now: time.Now}, nil
	}

	if !isCorrupt(err) {
		return nil, err
	}

	if renameErr := os.Rename(path, path+corruptSuffix); renameErr != nil {
		return nil, fmt.Errorf("move corrupt sqlite db aside: %w", renameErr)
	}

	for _, sidecar := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + sidecar)
	}

	db, reopenErr := openDB(ctx, path)
	if reopenErr != nil {
		return nil, reopenErr
	}

	return &SQLiteRepository{
		db:        db,
		path:      path,
		now:       time.Now,
		recovered: err,
	}, nil
}

// openDB opens the database and applies pragmas and schema.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// isCorrupt reports whether err says the file is not a readable database.
func isCorrupt(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	default:
		return false
	}
}

// Path returns the location of the database file.
func (r *SQLiteRepository) Path() string {
	return r.path
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}

	return r.db.Close()
}

// Load reads the state row.
func (r *SQLiteRepository) Load(ctx context.Context) (*domain.State, error) {
	if r.recovered != nil {
		err := r.recovered
		r.recovered = nil

		return nil, fmt.Errorf("%w: replaced unreadable database: %w", ErrCorrupt, err)
	}

	var rec record

	err := r.db.QueryRowContext(
		ctx,
		`SELECT last_cycle, is_completed FROM monitor_state WHERE id = 1`,
	).Scan(&rec.LastCycle, &rec.IsCompleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("query state: %w", err)
	}

	return fromRecord(rec)
}

// Save upserts the state row in a single statement.
func (r *SQLiteRepository) Save(ctx context.Context, state *domain.State) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("validate state: %w", err)
	}

	rec := toRecord(state)

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO monitor_state (id, last_cycle, is_completed, updated_at)
        VALUES (1, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            last_cycle = excluded.last_cycle,
            is_completed = excluded.is_completed,
            updated_at = excluded.updated_at`,
		rec.LastCycle,
		rec.IsCompleted,
		r.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	return nil
}
