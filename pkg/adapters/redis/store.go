// Package redis persists transcripts in Redis, one list per session.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/puppetwire/marionette/pkg/transcript"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "marionette:transcript:"

// Store implements transcript.Store on a Redis list per session.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires a session's transcript after the given duration of
// inactivity. Zero means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewFromClient creates a Store on an existing Redis client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Append adds an entry to the session's list.
func (s *Store) Append(ctx context.Context, entry transcript.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis transcript: marshal entry: %w", err)
	}
	key := s.key(entry.SessionID)
	if err := s.client.RPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("redis transcript: append: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("redis transcript: refresh ttl: %w", err)
		}
	}
	return nil
}

// List returns the session's entries in append order.
func (s *Store) List(ctx context.Context, sessionID string) ([]transcript.Entry, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis transcript: list: %w", err)
	}
	if len(raw) == 0 {
		return nil, transcript.ErrSessionNotFound
	}

	entries := make([]transcript.Entry, 0, len(raw))
	for _, item := range raw {
		var e transcript.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("redis transcript: decode entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear removes the session's transcript.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis transcript: clear: %w", err)
	}
	return nil
}

// Sessions returns the IDs of sessions with recorded entries.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	var (
		sessions []string
		cursor   uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis transcript: scan: %w", err)
		}
		for _, key := range keys {
			sessions = append(sessions, strings.TrimPrefix(key, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return sessions, nil
}
