// Package memory provides in-memory adapters, used as defaults and in
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/puppetwire/marionette/pkg/transcript"
)

// Store implements transcript.Store in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]transcript.Entry
	mu   sync.RWMutex
}

// NewStore creates a new in-memory transcript store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]transcript.Entry),
	}
}

// Append adds an entry to the session's transcript.
func (s *Store) Append(ctx context.Context, entry transcript.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[entry.SessionID] = append(s.data[entry.SessionID], entry)
	return nil
}

// List returns the session's entries in append order.
func (s *Store) List(ctx context.Context, sessionID string) ([]transcript.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.data[sessionID]
	if !ok {
		return nil, transcript.ErrSessionNotFound
	}

	// Copy on read so the caller can't mutate store state.
	out := make([]transcript.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Clear removes the session's transcript.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// Sessions returns the IDs of sessions with recorded entries.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
