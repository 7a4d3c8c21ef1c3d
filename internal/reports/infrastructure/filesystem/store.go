package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	reports "market-reports/internal/reports/domain"
)

// DefaultDir is the cache directory used when none is configured.
const DefaultDir = ".cache"

// Store keeps canonical reports as files in one directory.
type Store struct {
	dir string
}

// NewStore constructs a Store, creating dir if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filesystem cache: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// Exists reports whether key has an entry.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_ = ctx
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Read returns the entry for key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	_ = ctx
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, reports.ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

// Write stores data under key. The entry is staged in a temp file and
// renamed into place, so readers see either the old or the new content.
// A failed write leaves no file behind.
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	_ = ctx
	path, err := s.path(key)
	if err != nil {
		return err
	}
	fh, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return err
	}
	tmp := fh.Name()
	if _, err := fh.Write(data); err != nil {
		_ = fh.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Remove deletes the entry for key. Missing entries are not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	_ = ctx
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" || filepath.Base(key) != key || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", reports.ErrInvalidCacheKey, key)
	}
	return filepath.Join(s.dir, key), nil
}

// Count returns the number of cached report files.
func (s *Store) Count(ctx context.Context) (int, error) {
	_ = ctx
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() && filepath.Ext(entry.Name()) == "."+reports.CanonicalExt {
			count++
		}
	}
	return count, nil
}
