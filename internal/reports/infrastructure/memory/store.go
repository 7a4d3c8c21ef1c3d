package memory

import (
	"context"
	"sync"

	reports "market-reports/internal/reports/domain"
)

// Store is an in-memory cache store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore constructs a store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Exists reports whether key has an entry.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	_, ok := s.data[key]
	s.mu.RUnlock()
	return ok, nil
}

// Read returns a copy of the entry for key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	_ = ctx
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, reports.ErrCacheMiss
	}
	return append([]byte(nil), data...), nil
}

// Write stores a copy of data under key (overwrites existing).
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	_ = ctx
	if key == "" {
		return reports.ErrInvalidCacheKey
	}
	copied := append([]byte(nil), data...)
	s.mu.Lock()
	s.data[key] = copied
	s.mu.Unlock()
	return nil
}

// Remove deletes the entry for key.
func (s *Store) Remove(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	_ = ctx
	return s.Len(), nil
}
