//go:build cgo

package thresholds

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	schema := []string{
		"CREATE TABLE customers (tag TEXT PRIMARY KEY, weight_threshold DOUBLE PRECISION NOT NULL)",
		"CREATE TABLE settings (key TEXT PRIMARY KEY, value DOUBLE PRECISION NOT NULL)",
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}

	return NewStore(slog.New(slog.DiscardHandler), db)
}

func TestThresholdForUnknownTag(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	if got := store.ThresholdFor(context.Background(), "A1B2"); got != DefaultThreshold {
		t.Errorf("ThresholdFor(unknown) = %v, want %v", got, DefaultThreshold)
	}
}

func TestSaveAndLookupThreshold(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveThreshold(ctx, "A1B2", 75); err != nil {
		t.Fatalf("SaveThreshold: %v", err)
	}

	if got := store.ThresholdFor(ctx, "A1B2"); got != 75 {
		t.Errorf("ThresholdFor = %v, want 75", got)
	}

	// Upsert replaces the existing row.
	if err := store.SaveThreshold(ctx, "A1B2", 120.5); err != nil {
		t.Fatalf("SaveThreshold update: %v", err)
	}

	if got := store.ThresholdFor(ctx, "A1B2"); got != 120.5 {
		t.Errorf("ThresholdFor after update = %v, want 120.5", got)
	}
}

func TestStoredDefaultFallback(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetDefaultThreshold(ctx, 60); err != nil {
		t.Fatalf("SetDefaultThreshold: %v", err)
	}

	if got := store.ThresholdFor(ctx, "unknown"); got != 60 {
		t.Errorf("ThresholdFor(unknown) = %v, want stored default 60", got)
	}

	// A tag-specific value still wins over the stored default.
	if err := store.SaveThreshold(ctx, "A1B2", 80); err != nil {
		t.Fatalf("SaveThreshold: %v", err)
	}

	if got := store.ThresholdFor(ctx, "A1B2"); got != 80 {
		t.Errorf("ThresholdFor(A1B2) = %v, want 80", got)
	}
}

func TestThresholdForNeverErrors(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "empty.sqlite"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	// No schema at all: every query fails, the default must still come back.
	store := NewStore(slog.New(slog.DiscardHandler), db)

	if got := store.ThresholdFor(context.Background(), "A1B2"); got != DefaultThreshold {
		t.Errorf("ThresholdFor on broken schema = %v, want %v", got, DefaultThreshold)
	}
}
