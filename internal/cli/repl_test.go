package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/fsm/internal/presentation/tui"
	"github.com/aretw0/fsm/internal/testutils"
	"github.com/aretw0/fsm/pkg/adapters/memory"
	"github.com/aretw0/fsm/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	t.Helper()
	mgr, err := session.NewManager(testutils.MoodConfig(t), memory.NewStore())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &REPL{
		Manager:   mgr,
		MachineID: "repl",
		Out:       out,
		Style:     tui.NewStyler(false),
	}, out
}

func TestREPL_Session(t *testing.T) {
	repl, out := newTestREPL(t)

	script := strings.Join([]string{
		"trigger study",
		"t eat",
		"undo",
		"undo",
		"undo",
		"redo",
		"trigger nope",
		"goto nowhere",
		"bogus",
		"history",
		"states study",
		"quit",
		"state", // never reached
	}, "\n")

	require.NoError(t, repl.Run(context.Background(), strings.NewReader(script)))

	got := out.String()
	assert.Contains(t, got, "state: normal  (undo 0, redo 0)")
	assert.Contains(t, got, "state: hungry  (undo 1, redo 0)")
	assert.Contains(t, got, "state: normal  (undo 2, redo 0)")
	assert.Contains(t, got, "nothing to undo")
	assert.Contains(t, got, "state: hungry  (undo 1, redo 1)")
	assert.Contains(t, got, "error: no transition")
	assert.Contains(t, got, "error: invalid state")
	assert.Contains(t, got, `unknown command "bogus"`)
	assert.Contains(t, got, "  1. normal")
	assert.Equal(t, 1, strings.Count(got, "  normal\n"), "only normal handles study")
}

func TestREPL_EOF(t *testing.T) {
	repl, _ := newTestREPL(t)
	assert.NoError(t, repl.Run(context.Background(), strings.NewReader("state\n")))
}

func TestREPL_Exec(t *testing.T) {
	repl, out := newTestREPL(t)
	ctx := context.Background()

	require.NoError(t, repl.Exec(ctx, ""))
	require.NoError(t, repl.Exec(ctx, "goto sleeping"))
	require.NoError(t, repl.Exec(ctx, "events"))
	assert.Contains(t, out.String(), "  wake_up")

	require.NoError(t, repl.Exec(ctx, "reset"))
	assert.Contains(t, out.String(), "state: normal  (undo 0, redo 0)")

	require.NoError(t, repl.Exec(ctx, "clear"))
	require.NoError(t, repl.Exec(ctx, "history"))
	assert.Contains(t, out.String(), "(empty)")

	require.NoError(t, repl.Exec(ctx, "graph"))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), "class normal current;")

	assert.Error(t, repl.Exec(ctx, "trigger"))
	assert.ErrorIs(t, repl.Exec(ctx, "exit"), errQuit)
}
