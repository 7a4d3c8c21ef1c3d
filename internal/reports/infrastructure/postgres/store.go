package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	reports "market-reports/internal/reports/domain"
)

const defaultCacheTable = "report_cache"

// Store keeps canonical reports in a Postgres table.
type Store struct {
	db    *sql.DB
	table string
}

// Option configures the store.
type Option func(*Store)

// WithTable overrides the cache table name.
func WithTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// NewStore constructs a store.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, table: defaultCacheTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the cache table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("report cache: nil db")
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	cache_key  TEXT PRIMARY KEY,
	content    BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table))
	return err
}

// Exists reports whether key has an entry.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("report cache: nil db")
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE cache_key = $1)`, s.table)
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Read returns the entry for key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("report cache: nil db")
	}
	query := fmt.Sprintf(`SELECT content FROM %s WHERE cache_key = $1`, s.table)
	var content []byte
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reports.ErrCacheMiss
		}
		return nil, err
	}
	return content, nil
}

// Write upserts the entry for key.
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	if s == nil || s.db == nil {
		return errors.New("report cache: nil db")
	}
	if key == "" {
		return reports.ErrInvalidCacheKey
	}
	query := fmt.Sprintf(`
INSERT INTO %s (cache_key, content, created_at)
VALUES ($1, $2, now())
ON CONFLICT (cache_key)
DO UPDATE SET content = EXCLUDED.content, created_at = EXCLUDED.created_at`, s.table)
	_, err := s.db.ExecContext(ctx, query, key, data)
	return err
}

// Remove deletes the entry for key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return errors.New("report cache: nil db")
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE cache_key = $1`, s.table), key)
	return err
}

// Count returns the number of cached reports.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("report cache: nil db")
	}
	var count int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
