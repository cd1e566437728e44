// Package transcript records the frames a session exchanged, for
// debugging and replay. Entries are append-only; storage backends live
// under pkg/adapters.
package transcript

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Direction tells which way a frame travelled.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// ErrSessionNotFound is returned when a transcript has no entries for
// the given session ID.
var ErrSessionNotFound = errors.New("transcript: session not found")

// Entry is one recorded frame.
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Direction Direction `json:"direction"`
	Kind      string    `json:"kind"`
	Frame     string    `json:"frame"`
	At        time.Time `json:"at"`
}

// Store persists transcript entries. Implementations must keep
// per-session append order.
type Store interface {
	// Append adds an entry to the session's transcript.
	Append(ctx context.Context, entry Entry) error

	// List returns the session's entries in append order.
	// Returns ErrSessionNotFound when the session has no entries.
	List(ctx context.Context, sessionID string) ([]Entry, error)

	// Clear removes the session's transcript.
	Clear(ctx context.Context, sessionID string) error

	// Sessions returns the IDs of sessions with recorded entries.
	Sessions(ctx context.Context) ([]string, error)
}

// Recorder stamps and appends entries for a single session.
type Recorder struct {
	store     Store
	sessionID string
	now       func() time.Time
}

// NewRecorder creates a Recorder writing to store under sessionID.
func NewRecorder(store Store, sessionID string) *Recorder {
	return &Recorder{store: store, sessionID: sessionID, now: time.Now}
}

// Record appends one frame to the transcript.
func (r *Recorder) Record(ctx context.Context, dir Direction, kind, frame string) error {
	return r.store.Append(ctx, Entry{
		ID:        uuid.NewString(),
		SessionID: r.sessionID,
		Direction: dir,
		Kind:      kind,
		Frame:     frame,
		At:        r.now(),
	})
}

// SessionID returns the session this recorder writes under.
func (r *Recorder) SessionID() string {
	return r.sessionID
}
