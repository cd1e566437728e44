package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/puppetwire/marionette/pkg/schema"
)

// Codec translates between wire frames (newline-free UTF-8 JSON text, one
// command object per message) and typed Command values. It holds only
// serialization policy and no protocol state, so a single Codec can be
// shared by any number of sessions.
type Codec struct {
	// Game, when set, is stamped on every encoded frame. The original wire
	// format identifies the game on each game-originated message; peers
	// that do not use the field tolerate and ignore it.
	Game string
	// CompactNumbers controls numeric formatting of embedded schemas; see
	// schema.EncodeOptions.
	CompactNumbers bool
}

// envelope is the outer shape of every frame.
type envelope struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
	Game    string          `json:"game,omitempty"`
}

// Decode parses one inbound frame.
//
// A frame consisting only of whitespace decodes to the Null sentinel with
// no error. Invalid JSON or a missing discriminator yields a CodeMalformed
// *Error; a valid object with an unrecognized "command" yields a
// CodeUnknownCommand *Error, which callers may ignore for forward
// compatibility.
func (c *Codec) Decode(text string) (Command, error) {
	if strings.TrimSpace(text) == "" {
		return Null, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, malformed(err)
	}
	if env.Command == "" {
		return nil, malformed(fmt.Errorf("missing command field"))
	}

	data := env.Data
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	switch Kind(env.Command) {
	case KindStartup:
		return Startup{}, nil
	case KindContext:
		return decodePayload[Context](data)
	case KindRegisterActions:
		return decodePayload[RegisterActions](data)
	case KindUnregisterActions:
		return decodePayload[UnregisterActions](data)
	case KindReregisterAll:
		return decodePayload[ReregisterAll](data)
	case KindForceActions:
		return decodePayload[ForceActions](data)
	case KindAction:
		return decodePayload[ActionInvocation](data)
	case KindActionResult:
		return decodePayload[ActionResult](data)
	default:
		return nil, &Error{Code: CodeUnknownCommand, Command: env.Command}
	}
}

func decodePayload[T Command](data json.RawMessage) (Command, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, malformed(err)
	}
	return payload, nil
}

// Encode serializes a command to its wire frame. Schemas embedded in
// registration commands are normalized first, so decode(encode(cmd))
// returns cmd for every command kind.
func (c *Codec) Encode(cmd Command) (string, error) {
	if cmd == nil || cmd == Null {
		return "", fmt.Errorf("protocol: cannot encode the null message")
	}

	var (
		data json.RawMessage
		err  error
	)
	switch v := cmd.(type) {
	case Startup:
		// No payload.
	case RegisterActions:
		data, err = c.encodeActionList("actions", v.Actions)
	case ReregisterAll:
		data, err = c.encodeActionList("actions", v.Actions)
	case ForceActions:
		if v.ActionNames == nil {
			v.ActionNames = []string{}
		}
		data, err = json.Marshal(v)
	default:
		data, err = json.Marshal(cmd)
	}
	if err != nil {
		return "", fmt.Errorf("protocol: encode %s: %w", cmd.Kind(), err)
	}

	out, err := json.Marshal(envelope{
		Command: string(cmd.Kind()),
		Data:    data,
		Game:    c.Game,
	})
	if err != nil {
		return "", fmt.Errorf("protocol: encode %s: %w", cmd.Kind(), err)
	}
	return string(out), nil
}

// encodeActionList writes {"<field>": [...]} with each action's schema
// normalized and rendered under the codec's numeric policy.
func (c *Codec) encodeActionList(field string, actions []Action) (json.RawMessage, error) {
	opts := schema.EncodeOptions{CompactNumbers: c.CompactNumbers}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "{%q:[", field)
	for i, a := range actions {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		desc, err := json.Marshal(a.Description)
		if err != nil {
			return nil, err
		}
		raw, err := schema.Marshal(a.Schema, opts)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `{"name":%s,"description":%s,"schema":%s}`, name, desc, raw)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}
