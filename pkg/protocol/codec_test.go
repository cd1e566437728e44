package protocol

import (
	"testing"

	"github.com/puppetwire/marionette/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_WhitespaceIsNullMessage(t *testing.T) {
	codec := &Codec{}
	for _, text := range []string{"", "   ", "\t\n  \r\n"} {
		cmd, err := codec.Decode(text)
		require.NoError(t, err)
		assert.Equal(t, Null, cmd)
	}
}

func TestDecode_Malformed(t *testing.T) {
	codec := &Codec{}
	for _, text := range []string{"{", "not json", `{"data":{}}`, `[1,2,3]`} {
		_, err := codec.Decode(text)
		require.Error(t, err, "input %q", text)
		assert.True(t, IsMalformed(err), "input %q should be malformed, got %v", text, err)
	}
}

func TestDecode_UnknownCommand(t *testing.T) {
	codec := &Codec{}
	_, err := codec.Decode(`{"command":"actions/explode","data":{}}`)
	require.Error(t, err)
	assert.True(t, IsUnknownCommand(err))
	assert.False(t, IsMalformed(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "actions/explode", pe.Command)
}

func TestDecode_RegisterActions(t *testing.T) {
	codec := &Codec{}
	text := `{"command":"actions/register","data":{"actions":[{"name":"shoot","description":"Fire the weapon","schema":{"type":"object","properties":{"target":{"type":"string"}},"required":["target"]}}]}}`

	cmd, err := codec.Decode(text)
	require.NoError(t, err)

	reg, ok := cmd.(RegisterActions)
	require.True(t, ok, "decoded %T", cmd)
	require.Len(t, reg.Actions, 1)
	assert.Equal(t, "shoot", reg.Actions[0].Name)
	assert.Equal(t, "Fire the weapon", reg.Actions[0].Description)
	require.NotNil(t, reg.Actions[0].Schema)
	assert.Equal(t, schema.KindObject, reg.Actions[0].Schema.Kind)
	assert.Equal(t, []string{"target"}, reg.Actions[0].Schema.Required)
}

func TestDecode_ActionWithoutData(t *testing.T) {
	codec := &Codec{}
	cmd, err := codec.Decode(`{"command":"action","data":{"id":"abc123","name":"jump"}}`)
	require.NoError(t, err)

	inv, ok := cmd.(ActionInvocation)
	require.True(t, ok)
	assert.Equal(t, "abc123", inv.ID)
	assert.Equal(t, "jump", inv.Name)
	assert.Empty(t, inv.Data)
}

func TestDecode_GameFieldTolerated(t *testing.T) {
	codec := &Codec{}
	cmd, err := codec.Decode(`{"command":"startup","game":"Buckshot Roulette"}`)
	require.NoError(t, err)
	assert.Equal(t, Startup{}, cmd)
}

func TestEncode_Startup(t *testing.T) {
	codec := &Codec{Game: "Tic Tac Toe"}
	text, err := codec.Encode(Startup{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"startup","game":"Tic Tac Toe"}`, text)
}

func TestEncode_ForceActions(t *testing.T) {
	codec := &Codec{}
	text, err := codec.Encode(ForceActions{
		State:            "low health",
		Query:            "What do you do?",
		EphemeralContext: true,
		ActionNames:      []string{"flee", "shoot"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"actions/force","data":{"state":"low health","query":"What do you do?","ephemeral_context":true,"action_names":["flee","shoot"]}}`, text)
}

func TestEncode_ForceActionsNilNamesAsEmptyList(t *testing.T) {
	codec := &Codec{}
	text, err := codec.Encode(ForceActions{Query: "pick one"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"actions/force","data":{"query":"pick one","action_names":[]}}`, text)
}

func TestEncode_NullMessageRejected(t *testing.T) {
	codec := &Codec{}
	_, err := codec.Encode(Null)
	assert.Error(t, err)
}

func TestRoundTrip_AllKinds(t *testing.T) {
	shoot := Action{
		Name:        "shoot",
		Description: "Fire the weapon",
		Schema: schema.Normalize(&schema.Schema{
			Kind: schema.KindObject,
			Properties: []schema.Property{
				{Name: "target", Schema: &schema.Schema{Kind: schema.KindString}},
			},
			Required: []string{"target"},
		}),
	}
	jump := Action{Name: "jump", Description: "Jump", Schema: schema.Normalize(nil)}

	commands := []Command{
		Startup{},
		Context{Message: "the door creaks open", Silent: true},
		RegisterActions{Actions: []Action{shoot, jump}},
		UnregisterActions{ActionNames: []string{"shoot", "jump"}},
		ReregisterAll{Actions: []Action{shoot}},
		ForceActions{Query: "pick one", ActionNames: []string{"shoot"}},
		ActionInvocation{ID: "abc123", Name: "shoot", Data: `{"target":"enemy1"}`},
		ActionResult{ID: "abc123", Success: true},
		ActionResult{ID: "abc124", Success: false, Message: "target: missing required property"},
	}

	for _, game := range []string{"", "Buckshot Roulette"} {
		codec := &Codec{Game: game}
		for _, cmd := range commands {
			text, err := codec.Encode(cmd)
			require.NoError(t, err, "%s", cmd.Kind())

			decoded, err := codec.Decode(text)
			require.NoError(t, err, "%s: %s", cmd.Kind(), text)
			assert.Equal(t, cmd, decoded, "round trip of %s", cmd.Kind())
		}
	}
}
