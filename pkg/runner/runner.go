// Package runner drives a marionette.Session over a transport. The
// session itself does no locking and no I/O; the runner owns both,
// serializing every session call behind one mutex so the host can emit
// frames from other goroutines while the receive loop runs.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/internal/logging"
	"github.com/puppetwire/marionette/pkg/force"
	"github.com/puppetwire/marionette/pkg/ports"
	"github.com/puppetwire/marionette/pkg/protocol"
	"github.com/puppetwire/marionette/pkg/transcript"
)

// ActionHandler executes a validated invocation on the host side and
// reports its outcome. The runner turns the outcome into an
// action/result frame automatically.
type ActionHandler func(ctx context.Context, invocation marionette.ActionInvoked) (success bool, message string)

// EventSink observes every application event the session surfaces.
type EventSink func(event marionette.Event)

// Runner owns the receive loop for one peer connection.
type Runner struct {
	session   *marionette.Session
	transport ports.Transport
	handler   ActionHandler
	sink      EventSink
	recorder  *transcript.Recorder
	logger    *slog.Logger

	mu sync.Mutex
}

// Option configures the Runner.
type Option func(*Runner)

// WithHandler executes validated invocations and reports their results
// back to the peer.
func WithHandler(h ActionHandler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithEventSink forwards every surfaced event to sink.
func WithEventSink(sink EventSink) Option {
	return func(r *Runner) {
		r.sink = sink
	}
}

// WithRecorder records exchanged frames to a transcript.
func WithRecorder(rec *transcript.Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithLogger sets a custom structured logger for the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a Runner for the given session and transport.
func New(session *marionette.Session, transport ports.Transport, opts ...Option) *Runner {
	r := &Runner{
		session:   session,
		transport: transport,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run receives frames until the transport closes or the context is
// cancelled. Protocol errors are logged and skipped; they never stop
// the loop.
func (r *Runner) Run(ctx context.Context) error {
	for {
		frame, err := r.transport.Receive(ctx)
		if err != nil {
			if errors.Is(err, ports.ErrTransportClosed) {
				r.logger.Info("peer disconnected")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		r.record(ctx, transcript.Inbound, frame)

		r.mu.Lock()
		outcome, err := r.session.HandleInbound(frame)
		r.mu.Unlock()
		if err != nil {
			r.logger.Warn("dropping bad frame", "error", err)
			continue
		}

		for _, reply := range outcome.Replies {
			if err := r.send(ctx, reply); err != nil {
				return err
			}
		}
		if outcome.Event == nil {
			continue
		}
		if r.sink != nil {
			r.sink(outcome.Event)
		}
		if invoked, ok := outcome.Event.(marionette.ActionInvoked); ok && r.handler != nil {
			if err := r.dispatch(ctx, invoked); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, invoked marionette.ActionInvoked) error {
	success, message := r.handler(ctx, invoked)

	r.mu.Lock()
	frame, err := r.session.EmitResult(invoked.ID, success, message)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.send(ctx, frame)
}

// ForceActions issues a forced choice and sends the frame to the peer.
func (r *Runner) ForceActions(ctx context.Context, query string, actionNames []string, opts ...marionette.ForceOption) (*force.Request, error) {
	r.mu.Lock()
	frame, req, err := r.session.EmitForce(query, actionNames, opts...)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := r.send(ctx, frame); err != nil {
		return nil, err
	}
	return req, nil
}

// SendContext sends a context message to the peer.
func (r *Runner) SendContext(ctx context.Context, message string, silent bool) error {
	r.mu.Lock()
	frame, err := r.session.EmitContext(message, silent)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.send(ctx, frame)
}

// CancelForce withdraws the outstanding force request, if any.
func (r *Runner) CancelForce() *force.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.CancelForce()
}

// Actions returns the registered actions in registration order.
func (r *Runner) Actions() []protocol.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Actions()
}

// OutstandingForce returns the force request still awaiting an answer,
// or nil.
func (r *Runner) OutstandingForce() *force.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.OutstandingForce()
}

func (r *Runner) send(ctx context.Context, frame string) error {
	if err := r.transport.Send(ctx, frame); err != nil {
		return err
	}
	r.record(ctx, transcript.Outbound, frame)
	return nil
}

func (r *Runner) record(ctx context.Context, dir transcript.Direction, frame string) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(ctx, dir, sniffKind(frame), frame); err != nil {
		r.logger.Warn("transcript write failed", "error", err)
	}
}

// sniffKind extracts the command discriminator for transcript
// labelling. Unparseable frames get an empty kind; the transcript
// keeps them anyway.
func sniffKind(frame string) string {
	var envelope struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal([]byte(frame), &envelope); err != nil {
		return ""
	}
	return envelope.Command
}
