package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/fsm/internal/presentation/graph"
	"github.com/aretw0/fsm/internal/presentation/tui"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/aretw0/fsm/pkg/session"
)

// errQuit ends the loop without being reported.
var errQuit = errors.New("quit")

const helpText = `commands:
  state                 show the current state
  trigger <event>       apply an event (alias: t)
  goto <state>          change state ignoring events (alias: change)
  undo | redo           walk the history (aliases: u, r)
  reset                 go to the "normal" state and forget history
  clear                 forget history, keep the state
  states [event]        list states, optionally those handling event
  events                list events available from the current state
  history               show the undo stack
  graph                 print a mermaid graph of the machine
  help                  show this message
  quit                  leave (alias: exit)`

// REPL drives one machine of a session.Manager from line-oriented input.
type REPL struct {
	Manager   *session.Manager
	MachineID string
	Out       io.Writer
	Style     tui.Styler
}

// Run reads commands from in until EOF, "quit" or ctx is done.
// Rejected transitions are printed and do not stop the loop.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	snap, err := r.Manager.Open(ctx, r.MachineID)
	if err != nil {
		return fmt.Errorf("failed to open machine: %w", err)
	}
	r.printState(snap)

	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(r.Out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.Out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.Out)
				return <-readErr
			}
			err := r.Exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(r.Out, r.Style.Err("error: "+err.Error()))
			}
		}
	}
}

// Exec runs a single command line.
func (r *REPL) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(r.Out, helpText)
		return nil
	case "state", "s":
		snap, err := r.Manager.Open(ctx, r.MachineID)
		if err != nil {
			return err
		}
		r.printState(snap)
		return nil
	case "trigger", "t":
		if len(args) != 1 {
			return fmt.Errorf("usage: trigger <event>")
		}
		snap, err := r.Manager.Trigger(ctx, r.MachineID, domain.EventID(args[0]))
		if err != nil {
			return err
		}
		r.printState(snap)
		return nil
	case "goto", "change":
		if len(args) != 1 {
			return fmt.Errorf("usage: goto <state>")
		}
		snap, err := r.Manager.ChangeState(ctx, r.MachineID, domain.StateID(args[0]))
		if err != nil {
			return err
		}
		r.printState(snap)
		return nil
	case "undo", "u":
		ok, snap, err := r.Manager.Undo(ctx, r.MachineID)
		if err != nil {
			return err
		}
		r.printHistoryResult("undo", ok, snap)
		return nil
	case "redo", "r":
		ok, snap, err := r.Manager.Redo(ctx, r.MachineID)
		if err != nil {
			return err
		}
		r.printHistoryResult("redo", ok, snap)
		return nil
	case "reset":
		snap, err := r.Manager.Reset(ctx, r.MachineID)
		if err != nil {
			return err
		}
		r.printState(snap)
		return nil
	case "clear":
		if _, err := r.Manager.ClearHistory(ctx, r.MachineID); err != nil {
			return err
		}
		fmt.Fprintln(r.Out, r.Style.OK("history cleared"))
		return nil
	case "states":
		var events []domain.EventID
		if len(args) > 0 {
			events = append(events, domain.EventID(args[0]))
		}
		for _, id := range r.Manager.States(events...) {
			fmt.Fprintln(r.Out, "  "+string(id))
		}
		return nil
	case "events":
		snap, err := r.Manager.Open(ctx, r.MachineID)
		if err != nil {
			return err
		}
		for _, ev := range r.Manager.Events(snap.Current) {
			fmt.Fprintln(r.Out, "  "+string(ev))
		}
		return nil
	case "history":
		snap, err := r.Manager.Open(ctx, r.MachineID)
		if err != nil {
			return err
		}
		if len(snap.Undo) == 0 {
			fmt.Fprintln(r.Out, "(empty)")
			return nil
		}
		for i, id := range snap.Undo {
			fmt.Fprintf(r.Out, "  %d. %s\n", i+1, id)
		}
		return nil
	case "graph":
		snap, err := r.Manager.Open(ctx, r.MachineID)
		if err != nil {
			return err
		}
		fmt.Fprint(r.Out, graph.GenerateMermaid(r.Manager.Config(), &graph.GraphOverlay{
			History: snap.Undo,
			Current: snap.Current,
		}))
		return nil
	}
	return fmt.Errorf("unknown command %q (try 'help')", cmd)
}

func (r *REPL) printState(snap domain.Snapshot) {
	fmt.Fprintf(r.Out, "state: %s  (undo %d, redo %d)\n",
		r.Style.State(string(snap.Current)), len(snap.Undo), len(snap.Redo))
}

func (r *REPL) printHistoryResult(op string, ok bool, snap domain.Snapshot) {
	if !ok {
		fmt.Fprintf(r.Out, "nothing to %s\n", op)
		return
	}
	r.printState(snap)
}
