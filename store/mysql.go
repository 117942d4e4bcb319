package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL-backed ConductorStore for multi-process deployments
// sharing one database, one row per run id.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn and ensures the
// snapshot table exists. dsn follows github.com/go-sql-driver/mysql's DSN
// format, e.g. "user:pass@tcp(127.0.0.1:3306)/dbname".
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open mysql connection: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS conductor_snapshots (
	run_id VARCHAR(255) PRIMARY KEY,
	data   LONGBLOB NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) SaveSnapshot(ctx context.Context, runID string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO conductor_snapshots (run_id, data) VALUES (?, ?)
ON DUPLICATE KEY UPDATE data = VALUES(data)`, runID, data)
	if err != nil {
		return fmt.Errorf("store: save snapshot for %q: %w", runID, err)
	}
	return nil
}

func (s *MySQLStore) LoadSnapshot(ctx context.Context, runID string) ([]byte, error) {
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

func (s *MySQLStore) DeleteSnapshot(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conductor_snapshots WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("store: delete snapshot for %q: %w", runID, err)
	}
	return nil
}
