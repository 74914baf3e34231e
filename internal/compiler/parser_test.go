package compiler_test

import (
	"testing"

	"github.com/aretw0/fsm/internal/compiler"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const moodYAML = `
initial: normal
states:
  normal:
    transitions:
      study: hungry
      get_tired: sleeping
  sleeping:
    transitions:
      wake_up: normal
  hungry:
    transitions:
      eat: normal
  dead: {}
`

func TestParse_YAMLKeepsOrder(t *testing.T) {
	cfg, err := compiler.NewParser().Parse([]byte(moodYAML))
	require.NoError(t, err)

	assert.Equal(t, domain.StateID("normal"), cfg.Initial)
	assert.Equal(t, []domain.StateID{"normal", "sleeping", "hungry", "dead"}, cfg.States.Keys())

	to, ok := cfg.States.Transition("normal", "get_tired")
	require.True(t, ok)
	assert.Equal(t, domain.StateID("sleeping"), to)
	assert.Empty(t, cfg.States.Events("dead"))
}

func TestParse_JSON(t *testing.T) {
	data := `{"initial": "A", "states": {"B": {"transitions": {"back": "A"}}, "A": {"transitions": {"to": "B"}}}}`
	cfg, err := compiler.NewParser().Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []domain.StateID{"B", "A"}, cfg.States.Keys())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "Empty", data: ""},
		{name: "Not A Mapping", data: "- a\n- b\n"},
		{name: "Missing Initial", data: "states:\n  A: {}\n"},
		{name: "Missing States", data: "initial: A\n"},
		{name: "Unknown Top Key", data: "initial: A\nstates:\n  A: {}\nfinal: B\n"},
		{name: "Unknown State Key", data: "initial: A\nstates:\n  A:\n    on_enter: x\n"},
		{name: "Duplicate State", data: "initial: A\nstates:\n  A: {}\n  A: {}\n"},
		{name: "Empty Target", data: "initial: A\nstates:\n  A:\n    transitions:\n      go: \"\"\n"},
		{name: "States Not Mapping", data: "initial: A\nstates: [A]\n"},
		{name: "Syntax", data: "initial: [A\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.NewParser().Parse([]byte(tt.data))
			assert.ErrorIs(t, err, domain.ErrConfig)
		})
	}
}

func TestParse_DoesNotValidateTargets(t *testing.T) {
	// Dangling targets are a machine concern (strict mode), not a syntax error
	cfg, err := compiler.NewParser().Parse([]byte("initial: ghost\nstates:\n  A:\n    transitions:\n      go: nowhere\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.States.Validate(cfg.Initial), domain.ErrConfig)
}

func TestMarshal_RoundTrip(t *testing.T) {
	p := compiler.NewParser()
	cfg, err := p.Parse([]byte(moodYAML))
	require.NoError(t, err)

	out, err := p.Marshal(cfg)
	require.NoError(t, err)

	again, err := p.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Initial, again.Initial)
	assert.Equal(t, cfg.States.Keys(), again.States.Keys())
	for _, id := range cfg.States.Keys() {
		want, _ := cfg.States.Get(id)
		got, _ := again.States.Get(id)
		assert.Equal(t, want, got, id)
	}
}
