package tracking

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreContract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	defer store.Close()

	processed, err := store.IsProcessed(ctx, "42", "Müller, Anna")
	if err != nil {
		t.Fatalf("IsProcessed error: %v", err)
	}
	if processed {
		t.Fatal("fresh store must be empty")
	}

	if err := store.Record(ctx, entry("42", "Müller, Anna", "Dark Matter")); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if err := store.Record(ctx, entry("43", "Schmidt, Max", "Calorimetry")); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	processed, err = store.IsProcessed(ctx, "42", "Müller, Anna")
	if err != nil {
		t.Fatalf("IsProcessed error: %v", err)
	}
	if !processed {
		t.Fatal("expected record 42 to be processed")
	}

	// Identity is (record, author): same record with another author misses.
	processed, err = store.IsProcessed(ctx, "42", "Someone, Else")
	if err != nil {
		t.Fatalf("IsProcessed error: %v", err)
	}
	if processed {
		t.Fatal("different author must not match")
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries error: %v", err)
	}
	if len(entries) != 2 || entries[0].RecordID != "42" || entries[1].RecordID != "43" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	removed, err := store.Remove(ctx, "42")
	if err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if !removed {
		t.Fatal("expected Remove to report a hit")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, err = store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty ledger after Clear, got %d", len(entries))
	}
}
