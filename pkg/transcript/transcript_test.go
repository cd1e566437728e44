package transcript

import (
	"context"
	"testing"
	"time"
)

type captureStore struct {
	entries []Entry
}

func (c *captureStore) Append(ctx context.Context, e Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureStore) List(ctx context.Context, sessionID string) ([]Entry, error) {
	return nil, ErrSessionNotFound
}

func (c *captureStore) Clear(ctx context.Context, sessionID string) error { return nil }

func (c *captureStore) Sessions(ctx context.Context) ([]string, error) { return nil, nil }

func TestRecorderStampsEntries(t *testing.T) {
	store := &captureStore{}
	rec := NewRecorder(store, "game-1")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return at }

	if err := rec.Record(context.Background(), Inbound, "startup", `{"command":"startup"}`); err != nil {
		t.Fatal(err)
	}

	if len(store.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(store.entries))
	}
	e := store.entries[0]
	if e.ID == "" {
		t.Error("entry has no ID")
	}
	if e.SessionID != "game-1" || e.Direction != Inbound || e.Kind != "startup" || !e.At.Equal(at) {
		t.Errorf("entry = %+v", e)
	}
}
