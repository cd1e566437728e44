package scenario

import (
	"testing"

	marionette "github.com/puppetwire/marionette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hauntedHouse = `
name: haunted-house
game: Haunted House
steps:
  - type: register
    actions:
      - name: open_door
        description: Open the door in front of you
        schema:
          type: object
          properties:
            which:
              type: string
              enum: [left, right]
          required: [which]
      - name: flee
        description: Run away
  - type: context
    message: You stand in a dark hallway.
    silent: false
  - type: force
    query: What do you do?
    actions: [open_door, flee]
    ephemeral: true
  - type: invoke
    name: open_door
    data:
      which: left
    expect: invoked
  - type: invoke
    name: open_door
    data:
      which: trapdoor
    expect: rejected
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(hauntedHouse))
	require.NoError(t, err)

	assert.Equal(t, "haunted-house", sc.Name)
	assert.Equal(t, "Haunted House", sc.Game)
	require.Len(t, sc.Steps, 5)

	reg, ok := sc.Steps[0].(RegisterStep)
	require.True(t, ok, "step 1 is %T", sc.Steps[0])
	require.Len(t, reg.Actions, 2)
	assert.Equal(t, "open_door", reg.Actions[0].Name)

	act, err := reg.Actions[0].Action()
	require.NoError(t, err)
	require.NotNil(t, act.Schema)
	prop := act.Schema.Property("which")
	require.NotNil(t, prop)
	assert.Equal(t, []string{"left", "right"}, prop.Enum)

	forceStep, ok := sc.Steps[2].(ForceStep)
	require.True(t, ok, "step 3 is %T", sc.Steps[2])
	assert.True(t, forceStep.Ephemeral)
	assert.Equal(t, []string{"open_door", "flee"}, forceStep.Actions)
}

func TestParseRejectsUnknownStep(t *testing.T) {
	_, err := Parse([]byte("name: x\nsteps:\n  - type: teleport\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}

func TestParseRequiresName(t *testing.T) {
	_, err := Parse([]byte("steps: []\n"))
	require.Error(t, err)
}

func TestPlayerRunsScenario(t *testing.T) {
	sc, err := Parse([]byte(hauntedHouse))
	require.NoError(t, err)

	player := NewPlayer(sc)
	results, err := player.Run()
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.NoError(t, r.Err, "step %d", i+1)
	}

	// The ephemeral force was resolved by the accepted invocation.
	assert.Nil(t, player.Session().OutstandingForce())

	// Step 4: accepted, forced.
	invoked, ok := results[3].Event.(marionette.ActionInvoked)
	require.True(t, ok, "step 4 event is %T", results[3].Event)
	assert.True(t, invoked.Forced)
	assert.Equal(t, map[string]any{"which": "left"}, invoked.Arguments)

	// Step 5: rejected with a queued failing result.
	_, ok = results[4].Event.(marionette.ActionRejected)
	require.True(t, ok, "step 5 event is %T", results[4].Event)
	require.Len(t, results[4].Outbound, 1)
	assert.Contains(t, results[4].Outbound[0], `"success":false`)
}

func TestPlayerReportsFailedExpectation(t *testing.T) {
	sc, err := Parse([]byte(`
name: expect-miss
steps:
  - type: register
    actions:
      - name: wave
        description: Wave
  - type: invoke
    name: wave
    expect: rejected
`))
	require.NoError(t, err)

	results, err := NewPlayer(sc).Run()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[1].Failed())
}
