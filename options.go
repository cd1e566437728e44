package marionette

import (
	"log/slog"
	"time"

	"github.com/puppetwire/marionette/pkg/force"
	"github.com/puppetwire/marionette/pkg/protocol"
)

// Option defines a functional option for configuring the Session.
type Option func(*Session)

// WithLogger sets a custom structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithGameName stamps outbound frames with the given game identifier.
func WithGameName(name string) Option {
	return func(s *Session) {
		s.codec.Game = name
	}
}

// WithCompactNumbers enables compact numeric encoding: schema bounds
// like 1.0 serialize as 1. Validation accepts both forms either way.
func WithCompactNumbers() Option {
	return func(s *Session) {
		s.codec.CompactNumbers = true
	}
}

// WithStrictForce rejects invocations outside the forced set while a
// force request is outstanding, instead of treating them as
// spontaneous actions.
func WithStrictForce() Option {
	return func(s *Session) {
		s.strictForce = true
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks Hooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// Hooks are optional observability callbacks. Nil fields are skipped.
type Hooks struct {
	OnInbound        func(kind protocol.Kind)
	OnOutbound       func(kind protocol.Kind)
	OnActionInvoked  func(name string, forced bool)
	OnActionRejected func(name string)
	OnForceIssued    func()
	OnForceSettled   func(status force.State, age time.Duration)
}

// ForceOption configures a single EmitForce call.
type ForceOption func(*forceConfig)

type forceConfig struct {
	gameState string
	ephemeral bool
}

// WithGameState attaches a state snapshot to the force frame.
func WithGameState(state string) ForceOption {
	return func(c *forceConfig) {
		c.gameState = state
	}
}

// Ephemeral marks the force request as auto-discarded once resolved.
func Ephemeral() ForceOption {
	return func(c *forceConfig) {
		c.ephemeral = true
	}
}
