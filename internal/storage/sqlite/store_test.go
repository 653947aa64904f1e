package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/hydratemate/internal/storage"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "nested", "hydratemate.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreImplementsProvider(t *testing.T) {
	var _ storage.Provider = NewStore("x.db")
}

func TestSetGetRemove(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || got != "v2" {
		t.Errorf("Get(k) = %q, %v; want v2", got, err)
	}

	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get after Remove error = %v", err)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Errorf("removing an absent key should succeed: %v", err)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydratemate.db")
	ctx := context.Background()

	s := NewStore(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := s.Set(ctx, "hydration-storage", `{"dataVersion":2}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	s.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "hydration-storage")
	if err != nil || got != `{"dataVersion":2}` {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}

	current, latest, err := reopened.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if current != latest || current == 0 {
		t.Errorf("schema version = %d/%d", current, latest)
	}
}

func TestLoadUninitialized(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.db"))
	if err := s.Load(); !errors.Is(err, storage.ErrNotInitialized) {
		t.Errorf("Load() error = %v, want ErrNotInitialized", err)
	}
	if _, err := s.Get(context.Background(), "k"); !errors.Is(err, storage.ErrNotInitialized) {
		t.Errorf("Get before Load error = %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	s := setupStore(t)
	if err := s.Init(); err != nil {
		t.Errorf("second Init failed: %v", err)
	}
	n, err := s.Migrate(nil)
	if err != nil || n != 0 {
		t.Errorf("Migrate after Init = %d, %v; want 0, nil", n, err)
	}
}
