package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS catalog_documents (
	name       TEXT PRIMARY KEY,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Querier is the subset of pgxpool.Pool used by the PostgreSQL gateway.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresGateway stores the document as a JSONB row.
type PostgresGateway struct {
	db   Querier
	name string
}

// NewPostgresGateway returns a gateway for the named document.
func NewPostgresGateway(db Querier, name string) (*PostgresGateway, error) {
	if db == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if name == "" {
		name = DefaultDocument
	}
	return &PostgresGateway{db: db, name: name}, nil
}

// EnsureSchema creates the documents table if it does not exist.
func (g *PostgresGateway) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := g.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create catalog_documents: %w", err)
	}
	return nil
}

func (g *PostgresGateway) Read(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var body string
	err := g.db.QueryRow(ctx,
		`SELECT body::text FROM catalog_documents WHERE name = $1`,
		g.name,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select catalog document: %w", err)
	}
	return []byte(body), nil
}

func (g *PostgresGateway) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := g.db.Exec(ctx,
		`INSERT INTO catalog_documents (name, body, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (name) DO UPDATE
		 SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		g.name,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert catalog document: %w", err)
	}
	return nil
}
