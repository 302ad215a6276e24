package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_updated_at ON items(updated_at);
`

// Fixed-width layout so updated_at orders lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStorage persists items in an embedded SQLite file.
// Params: database handle, file path, and injected clock.
// Returns: storage implementation that survives restarts.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens (or creates) the SQLite file and ensures the schema.
// Params: database path (":memory:" allowed) and now function (defaults to time.Now).
// Returns: ready storage or wrapped open/schema error.
func OpenSQLite(path string, now func() time.Time) (*SQLiteStorage, error) {
	if now == nil {
		now = time.Now
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStorage{db: db, path: path, now: now}, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// GetItem returns the stored value.
// Params: item key.
// Returns: value or ErrNotFound.
func (s *SQLiteStorage) GetItem(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM items WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get item %q: %w", key, err)
	}
	return value, nil
}

// SetItem upserts value.
// Params: item key and serialized value.
// Returns: wrapped write error.
func (s *SQLiteStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key; removing an absent key is not an error.
// Params: item key.
// Returns: wrapped delete error.
func (s *SQLiteStorage) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove item %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys, most recently written first.
// Params: none.
// Returns: key list or wrapped query error.
func (s *SQLiteStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM items ORDER BY updated_at DESC, key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Close closes the database handle.
// Params: none.
// Returns: close error.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
