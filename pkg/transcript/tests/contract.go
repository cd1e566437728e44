// Package tests provides a reusable contract suite for transcript
// store implementations.
package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/puppetwire/marionette/pkg/transcript"
)

// StoreContractTest verifies that a backend complies with
// transcript.Store. The store must be empty when passed in.
func StoreContractTest(t *testing.T, store transcript.Store) {
	t.Helper()
	ctx := context.Background()

	entry := func(id, session, frame string) transcript.Entry {
		return transcript.Entry{
			ID:        id,
			SessionID: session,
			Direction: transcript.Inbound,
			Kind:      "context",
			Frame:     frame,
			At:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	t.Run("List_NotFound", func(t *testing.T) {
		_, err := store.List(ctx, "missing")
		if !errors.Is(err, transcript.ErrSessionNotFound) {
			t.Errorf("List on empty store returned %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("Append_PreservesOrder", func(t *testing.T) {
		for i, frame := range []string{"one", "two", "three"} {
			e := entry(string(rune('a'+i)), "s1", frame)
			if err := store.Append(ctx, e); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}

		entries, err := store.List(ctx, "s1")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}
		for i, frame := range []string{"one", "two", "three"} {
			if entries[i].Frame != frame {
				t.Errorf("entries[%d].Frame = %q, want %q", i, entries[i].Frame, frame)
			}
		}
	})

	t.Run("Sessions_Isolated", func(t *testing.T) {
		if err := store.Append(ctx, entry("x", "s2", "other")); err != nil {
			t.Fatalf("Append: %v", err)
		}

		entries, err := store.List(ctx, "s2")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("s2 has %d entries, want 1", len(entries))
		}

		sessions, err := store.Sessions(ctx)
		if err != nil {
			t.Fatalf("Sessions: %v", err)
		}
		seen := make(map[string]bool)
		for _, id := range sessions {
			seen[id] = true
		}
		if !seen["s1"] || !seen["s2"] {
			t.Errorf("Sessions() = %v, want s1 and s2", sessions)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if err := store.Clear(ctx, "s1"); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, err := store.List(ctx, "s1"); !errors.Is(err, transcript.ErrSessionNotFound) {
			t.Errorf("List after Clear returned %v, want ErrSessionNotFound", err)
		}
		if _, err := store.List(ctx, "s2"); err != nil {
			t.Errorf("Clear(s1) disturbed s2: %v", err)
		}
	})
}
