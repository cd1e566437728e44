// Package force tracks the lifecycle of forced action requests: host
// prompts that oblige the agent to pick one action from a named set.
// At most one request is outstanding at a time; issuing a new one
// supersedes whatever came before.
package force

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoActions reports an attempt to issue a request with an empty
// allowed set. Such a request could never be answered.
var ErrNoActions = errors.New("request needs at least one allowed action")

// State is a stage in a request's lifecycle.
type State string

const (
	// StateIssued means the request exists but has not been put on the
	// wire yet.
	StateIssued State = "issued"
	// StateAwaitingResponse means the request was sent and the agent's
	// choice is still pending.
	StateAwaitingResponse State = "awaiting_response"
	// StateResolved means a successful invocation satisfied the request.
	StateResolved State = "resolved"
	// StateSuperseded means a newer request replaced this one.
	StateSuperseded State = "superseded"
	// StateCancelled means the host withdrew the request.
	StateCancelled State = "cancelled"
)

// Done reports whether the state is terminal.
func (s State) Done() bool {
	switch s {
	case StateResolved, StateSuperseded, StateCancelled:
		return true
	}
	return false
}

// Request is a single forced choice offered to the agent.
type Request struct {
	ID          string
	Query       string
	GameState   string
	Ephemeral   bool
	ActionNames []string
	Status      State
	CreatedAt   time.Time
}

// Allows reports whether an invocation of name counts as an answer to
// this request.
func (r *Request) Allows(name string) bool {
	for _, n := range r.ActionNames {
		if n == name {
			return true
		}
	}
	return false
}

// Coordinator owns the single outstanding request. It does no locking;
// callers serialize access the same way they do for the registry.
type Coordinator struct {
	current *Request
	now     func() time.Time
}

func NewCoordinator() *Coordinator {
	return &Coordinator{now: time.Now}
}

// Begin issues a new request, superseding any outstanding one.
func (c *Coordinator) Begin(query, gameState string, ephemeral bool, actionNames []string) *Request {
	if c.current != nil && !c.current.Status.Done() {
		c.current.Status = StateSuperseded
	}
	names := make([]string, len(actionNames))
	copy(names, actionNames)
	c.current = &Request{
		ID:          uuid.NewString(),
		Query:       query,
		GameState:   gameState,
		Ephemeral:   ephemeral,
		ActionNames: names,
		Status:      StateIssued,
		CreatedAt:   c.now(),
	}
	return c.current
}

// Outstanding returns the request still awaiting an answer, or nil.
func (c *Coordinator) Outstanding() *Request {
	if c.current == nil || c.current.Status.Done() {
		return nil
	}
	return c.current
}

// Claims reports whether an invocation of name answers the outstanding
// request. An invocation outside the set is spontaneous and leaves the
// request untouched.
func (c *Coordinator) Claims(name string) bool {
	r := c.Outstanding()
	return r != nil && r.Allows(name)
}

// MarkAwaiting records that the outstanding request was handed to the
// transport and now awaits the agent's choice.
func (c *Coordinator) MarkAwaiting() {
	if r := c.Outstanding(); r != nil {
		r.Status = StateAwaitingResponse
	}
}

// Resolve marks the outstanding request satisfied and returns it, or
// nil when nothing was outstanding. Ephemeral requests are discarded
// so they leave no trace for later inspection.
func (c *Coordinator) Resolve() *Request {
	r := c.Outstanding()
	if r == nil {
		return nil
	}
	r.Status = StateResolved
	if r.Ephemeral {
		c.current = nil
	}
	return r
}

// Cancel withdraws the outstanding request and returns it, or nil when
// nothing was outstanding.
func (c *Coordinator) Cancel() *Request {
	r := c.Outstanding()
	if r == nil {
		return nil
	}
	r.Status = StateCancelled
	return r
}

// Last returns the most recent request regardless of state, or nil.
// Resolved ephemeral requests are gone by then.
func (c *Coordinator) Last() *Request {
	return c.current
}
