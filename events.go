package marionette

import (
	"github.com/puppetwire/marionette/pkg/schema"
)

// Event is the application-level outcome of one inbound frame. The set
// of event types is closed; consumers switch on the concrete type.
type Event interface {
	isEvent()
}

// StartupReceived signals that the peer (re)started. The session has
// already cleared its registry and cancelled any outstanding force
// request by the time this event is surfaced.
type StartupReceived struct{}

// ContextReceived carries a plain context message from the peer.
type ContextReceived struct {
	Message string
	Silent  bool
}

// ActionsRegistered reports the names added or updated by a register
// command, in frame order.
type ActionsRegistered struct {
	Names []string
}

// ActionsUnregistered reports the names removed by an unregister
// command, including names that were not registered.
type ActionsUnregistered struct {
	Names []string
}

// ActionsReplaced reports the full new action set after a
// reregister_all command.
type ActionsReplaced struct {
	Names []string
}

// ActionInvoked is a validated action invocation. Arguments holds the
// decoded payload value, nil when the payload was empty or null.
type ActionInvoked struct {
	ID        string
	Name      string
	Arguments any
	Forced    bool
}

// ActionRejected is an invocation that failed lookup or validation.
// The session has already queued a failing action/result reply; the
// event exists so the host can log or display the rejection.
type ActionRejected struct {
	ID        string
	Name      string
	Violation *schema.Violation
}

// ResultReceived carries an action/result frame from the peer.
type ResultReceived struct {
	ID      string
	Success bool
	Message string
}

func (StartupReceived) isEvent()     {}
func (ContextReceived) isEvent()     {}
func (ActionsRegistered) isEvent()   {}
func (ActionsUnregistered) isEvent() {}
func (ActionsReplaced) isEvent()     {}
func (ActionInvoked) isEvent()       {}
func (ActionRejected) isEvent()      {}
func (ResultReceived) isEvent()      {}
