package store

import (
	"context"
	"database/sql"
	"errors"
)

type SQLiteBackend struct {
	db  *sql.DB
	key string
}

func NewSQLiteBackend(ctx context.Context, db *sql.DB, key string) (*SQLiteBackend, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS journey_store (
			key      TEXT PRIMARY KEY,
			blob     TEXT NOT NULL,
			revision INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, err
	}

	return &SQLiteBackend{db: db, key: key}, nil
}

func (s *SQLiteBackend) Read(ctx context.Context) ([]byte, int64, error) {
	var blob string
	var revision int64

	err := s.db.QueryRowContext(ctx, `
		SELECT blob, revision FROM journey_store
		WHERE key = ?1
	`, s.key).Scan(&blob, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	return []byte(blob), revision, nil
}

func (s *SQLiteBackend) Write(ctx context.Context, blob []byte, expected int64) (int64, error) {
	var revision int64

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO journey_store (key, blob, revision) VALUES (?1, ?2, ?3 + 1)
		ON CONFLICT (key) DO UPDATE
			SET blob = excluded.blob, revision = journey_store.revision + 1
			WHERE journey_store.revision = ?3
		RETURNING revision
	`, s.key, string(blob), expected).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrStaleRevision
	}
	if err != nil {
		return 0, err
	}

	return revision, nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
