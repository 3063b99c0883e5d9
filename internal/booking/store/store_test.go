package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func testStoreRoundTrip(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	value := []byte(`[{"id":"booking_1"}]`)
	if err := st.Set(ctx, "bookingHistory", value); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := st.Get(ctx, "bookingHistory")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Fatalf("expected %s, got %s", value, got)
	}

	// Overwrite replaces the value.
	updated := []byte(`[]`)
	if err := st.Set(ctx, "bookingHistory", updated); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, err = st.Get(ctx, "bookingHistory")
	if err != nil {
		t.Fatalf("get after overwrite failed: %v", err)
	}
	if !bytes.Equal(got, updated) {
		t.Fatalf("expected %s, got %s", updated, got)
	}

	if err := st.Delete(ctx, "bookingHistory"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := st.Get(ctx, "bookingHistory"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}

	// Deleting an absent key is not an error.
	if err := st.Delete(ctx, "bookingHistory"); err != nil {
		t.Fatalf("delete of absent key failed: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreRoundTrip(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	value := []byte(`original`)
	if err := st.Set(ctx, "k", value); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value[0] = 'X'

	got, err := st.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller buffer: %s", got)
	}
}

func TestFileStore(t *testing.T) {
	st, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store failed: %v", err)
	}
	testStoreRoundTrip(t, st)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store failed: %v", err)
	}
	if err := first.Set(ctx, "bookingHistory", []byte(`[]`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	second, err := NewFile(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := second.Get(ctx, "bookingHistory")
	if err != nil {
		t.Fatalf("get after reopen failed: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("unexpected value after reopen: %s", got)
	}
}
