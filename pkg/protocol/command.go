package protocol

import (
	"github.com/puppetwire/marionette/pkg/schema"
)

// Kind is the value of the "command" discriminator field on the wire.
type Kind string

const (
	KindStartup           Kind = "startup"
	KindContext           Kind = "context"
	KindRegisterActions   Kind = "actions/register"
	KindUnregisterActions Kind = "actions/unregister"
	KindReregisterAll     Kind = "actions/reregister_all"
	KindForceActions      Kind = "actions/force"
	KindAction            Kind = "action"
	KindActionResult      Kind = "action/result"
)

// Action is a named capability offered to the agent, described by a
// parameter schema. A nil schema means the action takes no parameters.
type Action struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      *schema.Schema `json:"schema,omitempty"`
}

// Command is one message of the closed protocol command set. The set is
// sealed: only types in this package implement it, and decoding dispatches
// on the "command" discriminator exactly once.
type Command interface {
	Kind() Kind
	isCommand()
}

// Null is the sentinel decoded from a whitespace-only frame. It carries no
// payload and requires no handling beyond being ignored.
var Null Command = nullMessage{}

type nullMessage struct{}

func (nullMessage) Kind() Kind { return "" }
func (nullMessage) isCommand() {}

// Startup announces that the game is running. Receivers reset all
// previously registered actions for the game.
type Startup struct{}

func (Startup) Kind() Kind { return KindStartup }
func (Startup) isCommand() {}

// Context carries free-form narration about what is happening in the game.
// Silent entries are added to the agent's context without prompting a
// reaction.
type Context struct {
	Message string `json:"message"`
	Silent  bool   `json:"silent"`
}

func (Context) Kind() Kind { return KindContext }
func (Context) isCommand() {}

// RegisterActions offers one or more actions to the agent. Registering a
// name that already exists replaces its description and schema.
type RegisterActions struct {
	Actions []Action `json:"actions"`
}

func (RegisterActions) Kind() Kind { return KindRegisterActions }
func (RegisterActions) isCommand() {}

// UnregisterActions withdraws actions by name. Unknown names are ignored.
type UnregisterActions struct {
	ActionNames []string `json:"action_names"`
}

func (UnregisterActions) Kind() Kind { return KindUnregisterActions }
func (UnregisterActions) isCommand() {}

// ReregisterAll atomically replaces the whole action set.
type ReregisterAll struct {
	Actions []Action `json:"actions"`
}

func (ReregisterAll) Kind() Kind { return KindReregisterAll }
func (ReregisterAll) isCommand() {}

// ForceActions asks the agent to execute one of the listed actions as soon
// as possible.
type ForceActions struct {
	// State is an arbitrary description of the current game state; any
	// format the agent can read (plaintext, JSON, Markdown).
	State string `json:"state,omitempty"`
	// Query tells the agent what it is supposed to be doing right now.
	Query string `json:"query"`
	// EphemeralContext limits State and Query to the duration of the
	// forced choice instead of being remembered afterwards.
	EphemeralContext bool `json:"ephemeral_context,omitempty"`
	// ActionNames is the subset of registered actions to choose from.
	ActionNames []string `json:"action_names"`
}

func (ForceActions) Kind() Kind { return KindForceActions }
func (ForceActions) isCommand() {}

// ActionInvocation is the agent executing an action. Data holds the
// JSON-stringified arguments and may be empty for parameterless actions.
type ActionInvocation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data string `json:"data,omitempty"`
}

func (ActionInvocation) Kind() Kind { return KindAction }
func (ActionInvocation) isCommand() {}

// ActionResult reports the outcome of an invocation. An unsuccessful
// result during a forced choice prompts the agent to retry the force.
type ActionResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (ActionResult) Kind() Kind { return KindActionResult }
func (ActionResult) isCommand() {}
