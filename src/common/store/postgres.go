package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBackend struct {
	pg  *pgxpool.Pool
	key string
}

func NewPostgresBackend(ctx context.Context, pg *pgxpool.Pool, key string) (*PostgresBackend, error) {
	_, err := pg.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS journey_store (
			key      TEXT PRIMARY KEY,
			blob     TEXT NOT NULL,
			revision BIGINT NOT NULL
		)
	`)
	if err != nil {
		return nil, err
	}

	return &PostgresBackend{pg: pg, key: key}, nil
}

func (p *PostgresBackend) Read(ctx context.Context) ([]byte, int64, error) {
	var blob string
	var revision int64

	err := p.pg.QueryRow(ctx, `
		SELECT blob, revision FROM journey_store
		WHERE key = $1
	`, p.key).Scan(&blob, &revision)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	return []byte(blob), revision, nil
}

func (p *PostgresBackend) Write(ctx context.Context, blob []byte, expected int64) (int64, error) {
	var revision int64

	err := p.pg.QueryRow(ctx, `
		INSERT INTO journey_store (key, blob, revision) VALUES ($1, $2, $3 + 1)
		ON CONFLICT (key) DO UPDATE
			SET blob = EXCLUDED.blob, revision = journey_store.revision + 1
			WHERE journey_store.revision = $3
		RETURNING revision
	`, p.key, string(blob), expected).Scan(&revision)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrStaleRevision
	}
	if err != nil {
		return 0, err
	}

	return revision, nil
}

func (p *PostgresBackend) Close() error {
	p.pg.Close()
	return nil
}
