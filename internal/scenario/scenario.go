// Package scenario loads scripted protocol sessions from YAML and
// replays them against a session. A scenario scripts both sides: game
// steps become inbound frames, host steps drive the outbound surface.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/puppetwire/marionette/pkg/protocol"
	"github.com/puppetwire/marionette/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Scenario is one scripted session.
type Scenario struct {
	Name  string
	Game  string
	Steps []Step
}

// Step is one scripted step. Exactly one of the typed step structs is
// produced per entry, switched on the entry's "type" field.
type Step interface {
	isStep()
}

// RegisterStep registers actions, as if the game sent actions/register.
type RegisterStep struct {
	Actions []ActionDef `mapstructure:"actions"`
}

// UnregisterStep removes actions by name.
type UnregisterStep struct {
	Actions []string `mapstructure:"actions"`
}

// ContextStep delivers a context message from the game.
type ContextStep struct {
	Message string `mapstructure:"message"`
	Silent  bool   `mapstructure:"silent"`
}

// InvokeStep is an agent invocation. Data holds the payload document.
type InvokeStep struct {
	ID     string         `mapstructure:"id"`
	Name   string         `mapstructure:"name"`
	Data   map[string]any `mapstructure:"data"`
	NoData bool           `mapstructure:"no_data"`
	Expect string         `mapstructure:"expect"`
}

// ForceStep issues a forced choice from the host side.
type ForceStep struct {
	Query     string   `mapstructure:"query"`
	State     string   `mapstructure:"state"`
	Actions   []string `mapstructure:"actions"`
	Ephemeral bool     `mapstructure:"ephemeral"`
}

// EmitContextStep sends a context message to the agent.
type EmitContextStep struct {
	Message string `mapstructure:"message"`
	Silent  bool   `mapstructure:"silent"`
}

func (RegisterStep) isStep()    {}
func (UnregisterStep) isStep()  {}
func (ContextStep) isStep()     {}
func (InvokeStep) isStep()      {}
func (ForceStep) isStep()       {}
func (EmitContextStep) isStep() {}

// ActionDef is one action definition in a register step. The schema is
// written as plain YAML and converted through its JSON form.
type ActionDef struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Schema      map[string]any `mapstructure:"schema"`
}

// Action converts the definition to a protocol action.
func (d ActionDef) Action() (protocol.Action, error) {
	act := protocol.Action{Name: d.Name, Description: d.Description}
	if d.Schema == nil {
		return act, nil
	}
	raw, err := json.Marshal(d.Schema)
	if err != nil {
		return protocol.Action{}, fmt.Errorf("action %q: encode schema: %w", d.Name, err)
	}
	var s schema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return protocol.Action{}, fmt.Errorf("action %q: parse schema: %w", d.Name, err)
	}
	act.Schema = &s
	return act, nil
}

type scenarioFile struct {
	Name  string           `yaml:"name"`
	Game  string           `yaml:"game"`
	Steps []map[string]any `yaml:"steps"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario from YAML text.
func Parse(data []byte) (*Scenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if file.Name == "" {
		return nil, fmt.Errorf("scenario has no name")
	}

	sc := &Scenario{Name: file.Name, Game: file.Game}
	for i, raw := range file.Steps {
		step, err := decodeStep(raw)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		sc.Steps = append(sc.Steps, step)
	}
	return sc, nil
}

func decodeStep(raw map[string]any) (Step, error) {
	kind, _ := raw["type"].(string)
	if kind == "" {
		return nil, fmt.Errorf("missing step type")
	}

	decode := func(out Step) (Step, error) {
		if err := mapstructure.Decode(raw, out); err != nil {
			return nil, fmt.Errorf("decode %s step: %w", kind, err)
		}
		return out, nil
	}

	switch kind {
	case "register":
		step, err := decode(&RegisterStep{})
		if err != nil {
			return nil, err
		}
		return *step.(*RegisterStep), nil
	case "unregister":
		step, err := decode(&UnregisterStep{})
		if err != nil {
			return nil, err
		}
		return *step.(*UnregisterStep), nil
	case "context":
		step, err := decode(&ContextStep{})
		if err != nil {
			return nil, err
		}
		return *step.(*ContextStep), nil
	case "invoke":
		step, err := decode(&InvokeStep{})
		if err != nil {
			return nil, err
		}
		return *step.(*InvokeStep), nil
	case "force":
		step, err := decode(&ForceStep{})
		if err != nil {
			return nil, err
		}
		return *step.(*ForceStep), nil
	case "emit_context":
		step, err := decode(&EmitContextStep{})
		if err != nil {
			return nil, err
		}
		return *step.(*EmitContextStep), nil
	}
	return nil, fmt.Errorf("unknown step type %q", kind)
}
