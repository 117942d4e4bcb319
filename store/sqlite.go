package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed ConductorStore: a single file database with
// one row per run id, suitable for single-process workflows and local
// development. It uses WAL mode so readers never block the single writer.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if necessary) the SQLite database at path
// and ensures its schema exists. Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite connection: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS conductor_snapshots (
	run_id TEXT PRIMARY KEY,
	data   BLOB NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, runID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO conductor_snapshots (run_id, data) VALUES (?, ?)
ON CONFLICT(run_id) DO UPDATE SET data = excluded.data`, runID, data)
	if err != nil {
		return fmt.Errorf("store: save snapshot for %q: %w", runID, err)
	}
	return nil
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, runID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM conductor_snapshots WHERE run_id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot for %q: %w", runID, err)
	}
	return data, nil
}

func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM conductor_snapshots WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("store: delete snapshot for %q: %w", runID, err)
	}
	return nil
}
