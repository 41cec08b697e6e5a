package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/huddleworks/huddle/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLookupMissingSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Lookup(context.Background(), "absent")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPutLookupRoundTrip(t *testing.T) {
	store := newTestStore(t)
	sess := session.Session{Username: "alice", Authenticated: true}

	if err := store.Put(context.Background(), "key-1", sess, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Lookup(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Username != "alice" || !got.Authenticated {
		t.Fatalf("lookup = %+v, want alice authenticated", got)
	}
}

func TestPutOverwritesExisting(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put(context.Background(), "key-1", session.Session{Username: "alice", Authenticated: true}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(context.Background(), "key-1", session.Session{Username: "bob", Authenticated: true}, time.Hour); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := store.Lookup(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Username != "bob" {
		t.Fatalf("username = %q, want %q", got.Username, "bob")
	}
}

func TestLookupExpiredSession(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Put(context.Background(), "key-1", session.Session{Username: "alice", Authenticated: true}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := store.Lookup(context.Background(), "key-1")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected not found after expiry, got %v", err)
	}

	// The expired row is gone even when the clock rolls back.
	store.now = func() time.Time { return now }
	_, err = store.Lookup(context.Background(), "key-1")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected lazily deleted row to stay gone, got %v", err)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Put(context.Background(), "key-1", session.Session{Username: "alice", Authenticated: true}, 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	store.now = func() time.Time { return now.Add(1000 * time.Hour) }
	if _, err := store.Lookup(context.Background(), "key-1"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put(context.Background(), "key-1", session.Session{Username: "alice", Authenticated: true}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(context.Background(), "key-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(context.Background(), "key-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestLookupUnavailableStore(t *testing.T) {
	store := newTestStore(t)
	_ = store.Close()

	_, err := store.Lookup(context.Background(), "key-1")
	if !errors.Is(err, session.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
