// Package store holds the rule and task stores: in-memory single-writer
// state with best-effort snapshot persistence. The persisted documents are
// small JSON snapshots, so they live in a sqlite key/value table rather
// than normalized rows; the in-memory state stays authoritative for the
// session even when a write fails.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Persister is the snapshot document storage used by the stores. A nil
// Persister is valid and makes a store purely in-memory.
type Persister interface {
	// Load returns the document stored under key, or ok=false when absent.
	Load(ctx context.Context, key string) (doc []byte, ok bool, err error)
	// Save writes the document under key, replacing any previous value.
	Save(ctx context.Context, key string, doc []byte) error
}

// DB is the sqlite-backed Persister.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the sqlite database at path and ensures
// the snapshot table exists.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			key        TEXT PRIMARY KEY,
			doc        TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create snapshot table: %w", err)
	}

	return &DB{db: db, path: path}, nil
}

// Load implements Persister.
func (d *DB) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var doc []byte
	err := d.db.QueryRowContext(ctx, `SELECT doc FROM snapshots WHERE key = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: load snapshot %q: %w", key, err)
	}
	return doc, true, nil
}

// Save implements Persister.
func (d *DB) Save(ctx context.Context, key string, doc []byte) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		key, doc)
	if err != nil {
		return fmt.Errorf("store: save snapshot %q: %w", key, err)
	}
	return nil
}

// Ping verifies the database connection, for health reporting.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
