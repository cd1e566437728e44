package marionette

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/puppetwire/marionette/internal/logging"
	"github.com/puppetwire/marionette/pkg/force"
	"github.com/puppetwire/marionette/pkg/protocol"
	"github.com/puppetwire/marionette/pkg/registry"
	"github.com/puppetwire/marionette/pkg/schema"
)

// Session is the high-level entry point for the marionette library.
// It wires the codec, the action registry, and the forced-choice
// coordinator behind a single inbound/outbound surface.
//
// A Session is not safe for concurrent use. Callers sharing one
// across goroutines must serialize calls, the way pkg/runner does.
type Session struct {
	codec       *protocol.Codec
	registry    *registry.Registry
	coordinator *force.Coordinator
	logger      *slog.Logger
	strictForce bool
	hooks       Hooks
}

// Outcome is the result of handling one inbound frame. Replies holds
// encoded frames the host must send back to the peer, such as the
// automatic failing action/result for a rejected invocation.
type Outcome struct {
	Event   Event
	Replies []string
}

// New creates a Session with the given options.
func New(opts ...Option) *Session {
	s := &Session{
		codec:       &protocol.Codec{},
		registry:    registry.New(),
		coordinator: force.NewCoordinator(),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleInbound decodes one frame and applies it to the session.
// Whitespace-only input is the null message: no event, no error, no
// state change. Decode failures return a *protocol.Error; everything
// else, including rejected invocations, is reported through the
// Outcome.
func (s *Session) HandleInbound(text string) (Outcome, error) {
	cmd, err := s.codec.Decode(text)
	if err != nil {
		s.logger.Warn("inbound frame rejected", "error", err)
		return Outcome{}, err
	}
	if cmd == protocol.Null {
		return Outcome{}, nil
	}
	if s.hooks.OnInbound != nil {
		s.hooks.OnInbound(cmd.Kind())
	}

	switch v := cmd.(type) {
	case protocol.Startup:
		s.registry.Clear()
		s.settleForce(s.coordinator.Cancel())
		s.logger.Info("peer startup, state reset")
		return Outcome{Event: StartupReceived{}}, nil

	case protocol.Context:
		return Outcome{Event: ContextReceived{Message: v.Message, Silent: v.Silent}}, nil

	case protocol.RegisterActions:
		s.registry.Register(v.Actions...)
		names := actionNames(v.Actions)
		s.logger.Debug("actions registered", "names", names)
		return Outcome{Event: ActionsRegistered{Names: names}}, nil

	case protocol.UnregisterActions:
		s.registry.Unregister(v.ActionNames...)
		return Outcome{Event: ActionsUnregistered{Names: v.ActionNames}}, nil

	case protocol.ReregisterAll:
		s.registry.ReplaceAll(v.Actions...)
		names := actionNames(v.Actions)
		s.logger.Debug("actions replaced", "names", names)
		return Outcome{Event: ActionsReplaced{Names: names}}, nil

	case protocol.ActionInvocation:
		return s.handleInvocation(v)

	case protocol.ActionResult:
		return Outcome{Event: ResultReceived{ID: v.ID, Success: v.Success, Message: v.Message}}, nil
	}

	// Commands addressed to the agent, such as actions/force, have no
	// meaning inbound. Treat them like unrecognized commands so callers
	// can skip them the same way.
	s.logger.Warn("inbound frame not addressed to the game", "command", cmd.Kind())
	return Outcome{}, &protocol.Error{Code: protocol.CodeUnknownCommand, Command: string(cmd.Kind())}
}

func (s *Session) handleInvocation(inv protocol.ActionInvocation) (Outcome, error) {
	act, err := s.registry.Lookup(inv.Name)
	if err != nil {
		return s.reject(inv, &schema.Violation{Reason: err.Error()})
	}

	if s.strictForce {
		if r := s.coordinator.Outstanding(); r != nil && !r.Allows(inv.Name) {
			reason := fmt.Sprintf("action %q is outside the forced set", inv.Name)
			return s.reject(inv, &schema.Violation{Reason: reason})
		}
	}

	value, err := decodeArguments(inv.Data)
	if err != nil {
		return s.reject(inv, &schema.Violation{Reason: "action payload is not valid JSON"})
	}

	if violation := schema.Validate(act.Schema, value); violation != nil {
		return s.reject(inv, violation)
	}

	forced := s.coordinator.Claims(inv.Name)
	if forced {
		s.settleForce(s.coordinator.Resolve())
	}
	if s.hooks.OnActionInvoked != nil {
		s.hooks.OnActionInvoked(inv.Name, forced)
	}
	s.logger.Info("action invoked", "name", inv.Name, "id", inv.ID, "forced", forced)
	return Outcome{Event: ActionInvoked{ID: inv.ID, Name: inv.Name, Arguments: value, Forced: forced}}, nil
}

// reject surfaces a failed invocation and queues the failing
// action/result reply. The outstanding force request, if any, is left
// untouched so the peer can retry.
func (s *Session) reject(inv protocol.ActionInvocation, violation *schema.Violation) (Outcome, error) {
	reply, err := s.codec.Encode(protocol.ActionResult{
		ID:      inv.ID,
		Success: false,
		Message: violation.Error(),
	})
	if err != nil {
		return Outcome{}, err
	}
	if s.hooks.OnActionRejected != nil {
		s.hooks.OnActionRejected(inv.Name)
	}
	if s.hooks.OnOutbound != nil {
		s.hooks.OnOutbound(protocol.KindActionResult)
	}
	s.logger.Warn("action rejected", "name", inv.Name, "id", inv.ID, "reason", violation.Error())
	return Outcome{
		Event:   ActionRejected{ID: inv.ID, Name: inv.Name, Violation: violation},
		Replies: []string{reply},
	}, nil
}

// EmitForce issues a forced choice over the named actions and returns
// the encoded frame to hand to the transport. The set must be non-empty
// and every name must be registered; otherwise the call fails without
// issuing anything.
func (s *Session) EmitForce(query string, actionNames []string, opts ...ForceOption) (string, *force.Request, error) {
	var cfg forceConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(actionNames) == 0 {
		return "", nil, fmt.Errorf("force request: %w", force.ErrNoActions)
	}
	for _, name := range actionNames {
		if !s.registry.Has(name) {
			return "", nil, fmt.Errorf("force request: %w", &registry.ErrUnknownAction{Name: name})
		}
	}

	req := s.coordinator.Begin(query, cfg.gameState, cfg.ephemeral, actionNames)
	frame, err := s.codec.Encode(protocol.ForceActions{
		State:            cfg.gameState,
		Query:            query,
		EphemeralContext: cfg.ephemeral,
		ActionNames:      actionNames,
	})
	if err != nil {
		s.coordinator.Cancel()
		return "", nil, err
	}
	s.coordinator.MarkAwaiting()
	if s.hooks.OnOutbound != nil {
		s.hooks.OnOutbound(protocol.KindForceActions)
	}
	if s.hooks.OnForceIssued != nil {
		s.hooks.OnForceIssued()
	}
	s.logger.Info("force issued", "query", query, "actions", actionNames, "id", req.ID)
	return frame, req, nil
}

// EmitContext encodes a context message for the peer.
func (s *Session) EmitContext(message string, silent bool) (string, error) {
	frame, err := s.codec.Encode(protocol.Context{Message: message, Silent: silent})
	if err != nil {
		return "", err
	}
	if s.hooks.OnOutbound != nil {
		s.hooks.OnOutbound(protocol.KindContext)
	}
	return frame, nil
}

// EmitResult encodes an action/result frame reporting the outcome of a
// previously surfaced invocation.
func (s *Session) EmitResult(id string, success bool, message string) (string, error) {
	frame, err := s.codec.Encode(protocol.ActionResult{ID: id, Success: success, Message: message})
	if err != nil {
		return "", err
	}
	if s.hooks.OnOutbound != nil {
		s.hooks.OnOutbound(protocol.KindActionResult)
	}
	return frame, nil
}

// CancelForce withdraws the outstanding force request, if any.
func (s *Session) CancelForce() *force.Request {
	req := s.coordinator.Cancel()
	s.settleForce(req)
	if req != nil {
		s.logger.Info("force cancelled", "id", req.ID)
	}
	return req
}

// Actions returns the registered actions in registration order.
func (s *Session) Actions() []protocol.Action {
	return s.registry.Snapshot()
}

// ActionNames returns the registered names in registration order.
func (s *Session) ActionNames() []string {
	return s.registry.Names()
}

// OutstandingForce returns the force request still awaiting an answer,
// or nil.
func (s *Session) OutstandingForce() *force.Request {
	return s.coordinator.Outstanding()
}

func (s *Session) settleForce(req *force.Request) {
	if req == nil || s.hooks.OnForceSettled == nil {
		return
	}
	s.hooks.OnForceSettled(req.Status, time.Since(req.CreatedAt))
}

// decodeArguments parses the invocation payload. The payload is a
// JSON document carried as a string; empty or whitespace-only text
// counts as null.
func decodeArguments(data string) (any, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		return nil, err
	}
	return value, nil
}

func actionNames(actions []protocol.Action) []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name
	}
	return names
}
