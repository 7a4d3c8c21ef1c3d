package filesystem

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	reports "market-reports/internal/reports/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	key := "rt_lmp_final_20210101.csv"
	ok, err := store.Exists(ctx, key)
	if err != nil || ok {
		t.Fatalf("expected no entry, got ok=%v err=%v", ok, err)
	}
	if _, err := store.Read(ctx, key); !errors.Is(err, reports.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := store.Write(ctx, key, []byte("a,b\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	ok, err = store.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
	}
	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), key)); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
}

func TestStoreRejectsPathKeys(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	err = store.Write(context.Background(), "../escape.csv", []byte("x"))
	if !errors.Is(err, reports.ErrInvalidCacheKey) {
		t.Fatalf("expected ErrInvalidCacheKey, got %v", err)
	}
}

func TestStoreCount(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_ = store.Write(ctx, "df_al_20210101.csv", []byte("a"))
	_ = store.Write(ctx, "df_al_20210102.csv", []byte("b"))
	if err := os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 entries, got %d", count)
	}
}

func TestStoreReadDuringRewriteSeesWholeEntry(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key := "da_exante_lmp_20210101.csv"
	first := bytes.Repeat([]byte("1.11,"), 200_000)
	second := bytes.Repeat([]byte("2.22,"), 200_000)
	if err := store.Write(ctx, key, first); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 40; i++ {
			payload := first
			if i%2 == 0 {
				payload = second
			}
			if err := store.Write(ctx, key, payload); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	partial := 0
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("rewrite: %v", err)
			}
			if partial > 0 {
				t.Fatalf("expected only whole entries, got %d partial reads", partial)
			}
			leftovers, err := filepath.Glob(filepath.Join(store.Dir(), key+".tmp-*"))
			if err != nil {
				t.Fatalf("glob: %v", err)
			}
			if len(leftovers) != 0 {
				t.Fatalf("expected no temp files, got %v", leftovers)
			}
			return
		default:
		}
		data, err := store.Read(ctx, key)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !bytes.Equal(data, first) && !bytes.Equal(data, second) {
			partial++
		}
	}
}
