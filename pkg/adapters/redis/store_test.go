package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/puppetwire/marionette/pkg/adapters/redis"
	"github.com/puppetwire/marionette/pkg/transcript"
	"github.com/puppetwire/marionette/pkg/transcript/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	return backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
}

func TestRedisStore_Contract(t *testing.T) {
	client := newTestClient(t)
	tests.StoreContractTest(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	err = store.Append(ctx, transcript.Entry{
		ID:        "e1",
		SessionID: "session-ttl",
		Direction: transcript.Inbound,
		Kind:      "startup",
		Frame:     `{"command":"startup"}`,
		At:        time.Now(),
	})
	require.NoError(t, err)

	entries, err := store.List(ctx, "session-ttl")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// miniredis advances TTLs manually.
	mr.FastForward(2 * time.Second)

	_, err = store.List(ctx, "session-ttl")
	assert.ErrorIs(t, err, transcript.ErrSessionNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	client := newTestClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:"))
	ctx := context.Background()

	err := store.Append(ctx, transcript.Entry{
		ID:        "e1",
		SessionID: "s1",
		Direction: transcript.Outbound,
		Kind:      "context",
		Frame:     `{"command":"context","data":{"message":"hi","silent":false}}`,
		At:        time.Now(),
	})
	require.NoError(t, err)

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, sessions)
}
