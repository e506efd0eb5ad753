package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalog_documents (
    name       TEXT PRIMARY KEY,
    body       TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteGateway stores the document in a local SQLite database.
type SQLiteGateway struct {
	db   *sql.DB
	name string
}

// NewSQLiteGateway opens (or creates) the database at path in WAL mode and
// creates the documents table.
func NewSQLiteGateway(ctx context.Context, path, name string) (*SQLiteGateway, error) {
	if name == "" {
		name = DefaultDocument
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("sqlite: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// One writer at a time; a single connection also keeps the pragmas below
	// in effect for every statement.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		sqliteSchema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: init: %w", err)
		}
	}

	return &SQLiteGateway{db: db, name: name}, nil
}

// Close closes the database.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}

func (g *SQLiteGateway) Read(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var body string
	err := g.db.QueryRowContext(ctx,
		`SELECT body FROM catalog_documents WHERE name = ?`, g.name,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: select document: %w", err)
	}
	return []byte(body), nil
}

func (g *SQLiteGateway) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := g.db.ExecContext(ctx,
		`INSERT INTO catalog_documents (name, body, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		g.name, string(data),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert document: %w", err)
	}
	return nil
}
