/*
Package fsm is a small finite state machine engine with linear undo/redo history.

A machine is built from a declarative table of states, where every state maps
events to target states. The machine tracks a single current state, applies
event-driven or explicit transitions, and remembers every state it left so
that changes can be undone and redone.

# Concept

The transition table is immutable once a machine is created. Every
successful forward move (Trigger or ChangeState) pushes the previous state
onto the undo stack and invalidates the redo stack. Undo and Redo walk the
two stacks and report an empty history with false rather than an error.

Invalid input is a hard failure: ChangeState to an unknown state returns an
error matching domain.ErrInvalidState and Trigger of an undefined event
returns an error matching domain.ErrNoTransition. Failed calls never mutate
the machine.

Reset always moves the machine to the literal "normal" state
(domain.NormalState), not to the configured initial state.

# Usage

	table := domain.NewTable().
		Set("normal", domain.StateDef{Transitions: map[domain.EventID]domain.StateID{"study": "hungry"}}).
		Set("hungry", domain.StateDef{Transitions: map[domain.EventID]domain.StateID{"eat": "normal"}})

	m, _ := fsm.New(domain.Config{Initial: "normal", States: table})

	_ = m.Trigger("study") // hungry
	m.Undo()               // normal
	m.Redo()               // hungry

# Concurrency

A StateMachine is not safe for concurrent use. The session package
serializes access per machine ID and persists snapshots through the ports
package, which is the intended way to share machines between goroutines or
processes.
*/
package fsm
