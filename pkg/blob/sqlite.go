package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS blobs (
	container  TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (container, name)
)`

// SQLiteConfig holds the parameters of the SQLite driver.
type SQLiteConfig struct {
	Path string
}

// SQLite implements Store upon a single table of a SQLite database, for
// single-node deployments without an object storage.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the database and its table.
func NewSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path required")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent uploads.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating blobs table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Driver() Driver { return DriverSQLite }

func (s *SQLite) Fetch(ctx context.Context, container, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM blobs WHERE container = ? AND name = ?`,
		container, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", container, name, ErrNotExist)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLite) Store(ctx context.Context, container, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (container, name, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (container, name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		container, name, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
