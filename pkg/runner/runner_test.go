package runner_test

import (
	"context"
	"sync"
	"testing"
	"time"

	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/pkg/adapters/memory"
	"github.com/puppetwire/marionette/pkg/ports"
	"github.com/puppetwire/marionette/pkg/runner"
	"github.com/puppetwire/marionette/pkg/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport feeds scripted inbound frames and captures outbound
// ones.
type fakeTransport struct {
	inbound chan string
	mu      sync.Mutex
	sent    []string
}

func newFakeTransport(frames ...string) *fakeTransport {
	t := &fakeTransport{inbound: make(chan string, len(frames))}
	for _, f := range frames {
		t.inbound <- f
	}
	close(t.inbound)
	return t
}

func (t *fakeTransport) Receive(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case frame, ok := <-t.inbound:
		if !ok {
			return "", ports.ErrTransportClosed
		}
		return frame, nil
	}
}

func (t *fakeTransport) Send(ctx context.Context, frame string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, frame)
	return nil
}

func (t *fakeTransport) Close() error { return nil }

func (t *fakeTransport) frames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.sent))
	copy(out, t.sent)
	return out
}

const registerShoot = `{"command":"actions/register","data":{"actions":[{"name":"shoot","description":"Fire","schema":{"type":"object","properties":{"target":{"type":"string"}},"required":["target"]}}]}}`

func TestRun_DispatchesInvocations(t *testing.T) {
	transport := newFakeTransport(
		registerShoot,
		`{"command":"action","data":{"id":"i1","name":"shoot","data":"{\"target\":\"x\"}"}}`,
	)

	var handled []marionette.ActionInvoked
	r := runner.New(marionette.New(), transport,
		runner.WithHandler(func(ctx context.Context, inv marionette.ActionInvoked) (bool, string) {
			handled = append(handled, inv)
			return true, "hit"
		}),
	)

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, handled, 1)
	assert.Equal(t, "shoot", handled[0].Name)

	sent := transport.frames()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"command":"action/result","data":{"id":"i1","success":true,"message":"hit"}}`, sent[0])
}

func TestRun_SendsFailingResultForRejectedInvocation(t *testing.T) {
	transport := newFakeTransport(
		registerShoot,
		`{"command":"action","data":{"id":"i2","name":"shoot","data":"{}"}}`,
	)

	var events []marionette.Event
	r := runner.New(marionette.New(), transport,
		runner.WithEventSink(func(ev marionette.Event) { events = append(events, ev) }),
	)

	require.NoError(t, r.Run(context.Background()))

	sent := transport.frames()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], `"success":false`)

	require.Len(t, events, 2)
	_, ok := events[1].(marionette.ActionRejected)
	assert.True(t, ok, "second event is %T", events[1])
}

func TestRun_SkipsBadFrames(t *testing.T) {
	transport := newFakeTransport(
		`{"command":`,
		`{"command":"bogus/kind"}`,
		registerShoot,
	)

	var events []marionette.Event
	r := runner.New(marionette.New(), transport,
		runner.WithEventSink(func(ev marionette.Event) { events = append(events, ev) }),
	)

	require.NoError(t, r.Run(context.Background()))
	require.Len(t, events, 1)
	assert.Equal(t, marionette.ActionsRegistered{Names: []string{"shoot"}}, events[0])
}

func TestRun_RecordsTranscript(t *testing.T) {
	transport := newFakeTransport(
		registerShoot,
		`{"command":"action","data":{"id":"i3","name":"shoot","data":"{}"}}`,
	)

	store := memory.NewStore()
	r := runner.New(marionette.New(), transport,
		runner.WithRecorder(transcript.NewRecorder(store, "game-1")),
	)

	require.NoError(t, r.Run(context.Background()))

	entries, err := store.List(context.Background(), "game-1")
	require.NoError(t, err)
	require.Len(t, entries, 3, "two inbound plus the failing result")
	assert.Equal(t, transcript.Inbound, entries[0].Direction)
	assert.Equal(t, "actions/register", entries[0].Kind)
	assert.Equal(t, transcript.Outbound, entries[2].Direction)
	assert.Equal(t, "action/result", entries[2].Kind)
}

func TestForceActionsGoesThroughTransport(t *testing.T) {
	transport := newFakeTransport(registerShoot)
	r := runner.New(marionette.New(), transport)

	require.NoError(t, r.Run(context.Background()))

	req, err := r.ForceActions(context.Background(), "shoot something", []string{"shoot"})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.NotNil(t, r.OutstandingForce())

	sent := transport.frames()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], `"actions/force"`)
}

func TestRun_ContextCancel(t *testing.T) {
	transport := &fakeTransport{inbound: make(chan string)}
	r := runner.New(marionette.New(), transport)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
