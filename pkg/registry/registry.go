// Package registry holds the set of actions currently offered to the
// agent, keyed by unique name. It keeps registration order stable so
// listings and wire frames stay deterministic.
//
// The registry does no locking of its own. Callers that share a
// registry across goroutines must serialize access externally, the
// way pkg/runner does.
package registry

import (
	"fmt"

	"github.com/puppetwire/marionette/pkg/protocol"
	"github.com/puppetwire/marionette/pkg/schema"
)

// ErrUnknownAction reports a lookup or invocation naming an action
// that is not registered.
type ErrUnknownAction struct {
	Name string
}

func (e *ErrUnknownAction) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}

// Registry is an ordered, name-unique collection of actions. Schemas
// are normalized on the way in, so every stored action carries a
// non-nil schema.
type Registry struct {
	names   []string
	actions map[string]protocol.Action
}

func New() *Registry {
	return &Registry{actions: make(map[string]protocol.Action)}
}

// Register upserts each action in order. Re-registering a name
// replaces its definition in place without changing its position.
func (r *Registry) Register(actions ...protocol.Action) {
	for _, a := range actions {
		a.Schema = schema.Normalize(a.Schema)
		if _, ok := r.actions[a.Name]; !ok {
			r.names = append(r.names, a.Name)
		}
		r.actions[a.Name] = a
	}
}

// Unregister removes the named actions. Names that are not registered
// are ignored.
func (r *Registry) Unregister(names ...string) {
	for _, name := range names {
		if _, ok := r.actions[name]; !ok {
			continue
		}
		delete(r.actions, name)
		for i, n := range r.names {
			if n == name {
				r.names = append(r.names[:i], r.names[i+1:]...)
				break
			}
		}
	}
}

// ReplaceAll swaps the entire contents for the given actions in one
// step. Duplicate names keep the last definition.
func (r *Registry) ReplaceAll(actions ...protocol.Action) {
	r.names = nil
	r.actions = make(map[string]protocol.Action, len(actions))
	r.Register(actions...)
}

// Clear removes every action.
func (r *Registry) Clear() {
	r.names = nil
	r.actions = make(map[string]protocol.Action)
}

// Lookup returns the action registered under name.
func (r *Registry) Lookup(name string) (protocol.Action, error) {
	a, ok := r.actions[name]
	if !ok {
		return protocol.Action{}, &ErrUnknownAction{Name: name}
	}
	return a, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.actions[name]
	return ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Snapshot returns the registered actions in registration order.
func (r *Registry) Snapshot() []protocol.Action {
	out := make([]protocol.Action, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.actions[name])
	}
	return out
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	return len(r.names)
}
