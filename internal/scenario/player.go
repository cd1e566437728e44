package scenario

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/internal/logging"
	"github.com/puppetwire/marionette/pkg/protocol"
)

// Result is the outcome of one replayed step.
type Result struct {
	Step     Step
	Inbound  string
	Outbound []string
	Event    marionette.Event
	Err      error
}

// Failed reports whether the step produced an error or missed its
// expectation.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Player replays a scenario against a fresh session.
type Player struct {
	scenario *Scenario
	session  *marionette.Session
	codec    *protocol.Codec
	logger   *slog.Logger
}

// PlayerOption configures the Player.
type PlayerOption func(*Player)

// WithLogger sets a custom structured logger for the player.
func WithLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) {
		p.logger = logger
	}
}

// NewPlayer creates a Player for the scenario.
func NewPlayer(sc *Scenario, opts ...PlayerOption) *Player {
	sessionOpts := []marionette.Option{}
	if sc.Game != "" {
		sessionOpts = append(sessionOpts, marionette.WithGameName(sc.Game))
	}
	p := &Player{
		scenario: sc,
		session:  marionette.New(sessionOpts...),
		codec:    &protocol.Codec{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run replays every step in order. Step failures are recorded, not
// fatal; the first structural error (unbuildable step) stops the run.
func (p *Player) Run() ([]Result, error) {
	results := make([]Result, 0, len(p.scenario.Steps))
	for i, step := range p.scenario.Steps {
		result, err := p.play(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if result.Err != nil {
			p.logger.Warn("step failed", "step", i+1, "error", result.Err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *Player) play(step Step) (Result, error) {
	switch s := step.(type) {
	case RegisterStep:
		actions := make([]protocol.Action, 0, len(s.Actions))
		for _, def := range s.Actions {
			act, err := def.Action()
			if err != nil {
				return Result{}, err
			}
			actions = append(actions, act)
		}
		return p.inbound(step, protocol.RegisterActions{Actions: actions})

	case UnregisterStep:
		return p.inbound(step, protocol.UnregisterActions{ActionNames: s.Actions})

	case ContextStep:
		return p.inbound(step, protocol.Context{Message: s.Message, Silent: s.Silent})

	case InvokeStep:
		return p.invoke(s)

	case ForceStep:
		result := Result{Step: step}
		frame, _, err := p.session.EmitForce(s.Query, s.Actions, forceOptions(s)...)
		if err != nil {
			result.Err = err
			return result, nil
		}
		result.Outbound = []string{frame}
		return result, nil

	case EmitContextStep:
		result := Result{Step: step}
		frame, err := p.session.EmitContext(s.Message, s.Silent)
		if err != nil {
			result.Err = err
			return result, nil
		}
		result.Outbound = []string{frame}
		return result, nil
	}
	return Result{}, fmt.Errorf("unplayable step type %T", step)
}

func forceOptions(s ForceStep) []marionette.ForceOption {
	var opts []marionette.ForceOption
	if s.State != "" {
		opts = append(opts, marionette.WithGameState(s.State))
	}
	if s.Ephemeral {
		opts = append(opts, marionette.Ephemeral())
	}
	return opts
}

func (p *Player) invoke(s InvokeStep) (Result, error) {
	id := s.ID
	if id == "" {
		id = uuid.NewString()
	}
	var data string
	if !s.NoData {
		raw, err := json.Marshal(s.Data)
		if err != nil {
			return Result{}, fmt.Errorf("invoke %q: encode payload: %w", s.Name, err)
		}
		data = string(raw)
	}

	result, err := p.inbound(s, protocol.ActionInvocation{ID: id, Name: s.Name, Data: data})
	if err != nil {
		return Result{}, err
	}
	if result.Err == nil {
		result.Err = checkExpectation(s.Expect, result.Event)
	}
	return result, nil
}

func checkExpectation(expect string, event marionette.Event) error {
	switch expect {
	case "":
		return nil
	case "invoked":
		if _, ok := event.(marionette.ActionInvoked); !ok {
			return fmt.Errorf("expected invocation to be accepted, got %T", event)
		}
	case "rejected":
		if _, ok := event.(marionette.ActionRejected); !ok {
			return fmt.Errorf("expected invocation to be rejected, got %T", event)
		}
	default:
		return fmt.Errorf("unknown expectation %q", expect)
	}
	return nil
}

func (p *Player) inbound(step Step, cmd protocol.Command) (Result, error) {
	frame, err := p.codec.Encode(cmd)
	if err != nil {
		return Result{}, err
	}
	result := Result{Step: step, Inbound: frame}

	outcome, err := p.session.HandleInbound(frame)
	if err != nil {
		result.Err = err
		return result, nil
	}
	result.Event = outcome.Event
	result.Outbound = outcome.Replies
	return result, nil
}

// Session exposes the player's session for post-run inspection.
func (p *Player) Session() *marionette.Session {
	return p.session
}
