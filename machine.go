package fsm

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/fsm/internal/logging"
	"github.com/aretw0/fsm/pkg/domain"
)

// StateMachine tracks the current state of a transition table and the
// linear history of every change applied to it.
type StateMachine struct {
	initial domain.StateID
	table   *domain.Table
	current domain.StateID

	undo []domain.StateID // visited states, oldest first
	redo []domain.StateID // undone states, most recent last

	strict bool
	logger *slog.Logger
}

// Option defines a functional option for configuring a StateMachine.
type Option func(*StateMachine)

// WithLogger sets a structured logger. Mutations are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(m *StateMachine) {
		m.logger = logger
	}
}

// WithStrict makes New reject configurations whose initial state or
// transition targets are missing from the table.
func WithStrict() Option {
	return func(m *StateMachine) {
		m.strict = true
	}
}

// New creates a machine positioned at cfg.Initial with empty history.
// Without WithStrict the configuration is taken as is and the error is always nil.
func New(cfg domain.Config, opts ...Option) (*StateMachine, error) {
	m := &StateMachine{
		initial: cfg.Initial,
		table:   cfg.States,
		current: cfg.Initial,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.table == nil {
		m.table = domain.NewTable()
	}

	if m.strict {
		if err := m.table.Validate(cfg.Initial); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// State returns the current state.
func (m *StateMachine) State() domain.StateID {
	return m.current
}

// Initial returns the state the machine was created with.
func (m *StateMachine) Initial() domain.StateID {
	return m.initial
}

// ChangeState moves to target regardless of event rules.
func (m *StateMachine) ChangeState(target domain.StateID) error {
	if !m.table.Has(target) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidState, target)
	}
	m.advance(target)
	return nil
}

// Trigger applies the transition defined for event from the current state.
func (m *StateMachine) Trigger(event domain.EventID) error {
	target, ok := m.table.Transition(m.current, event)
	if !ok {
		return fmt.Errorf("%w: state %q has no rule for event %q", domain.ErrNoTransition, m.current, event)
	}
	m.advance(target)
	return nil
}

// advance performs a forward move. Any forward move invalidates redo history.
func (m *StateMachine) advance(target domain.StateID) {
	from := m.current
	m.undo = append(m.undo, from)
	m.current = target
	m.redo = m.redo[:0]
	m.logger.Debug("state changed", "from", from, "to", target, "history", len(m.undo))
}

// Reset moves to domain.NormalState and forgets all history.
// The target is the literal "normal" state, not the configured initial state.
func (m *StateMachine) Reset() {
	m.current = domain.NormalState
	m.undo = nil
	m.redo = nil
	m.logger.Debug("state reset", "to", m.current)
}

// States lists the states of the table in insertion order.
// Given an event, only states that define a transition for it are returned.
func (m *StateMachine) States(event ...domain.EventID) []domain.StateID {
	if len(event) == 0 {
		return m.table.Keys()
	}
	return m.table.WithEvent(event[0])
}

// Events lists the events defined from the current state.
func (m *StateMachine) Events() []domain.EventID {
	return m.table.Events(m.current)
}

// Undo returns to the previous state. It reports false when there is no history.
func (m *StateMachine) Undo() bool {
	if len(m.undo) == 0 {
		return false
	}
	m.redo = append(m.redo, m.current)
	last := len(m.undo) - 1
	m.current, m.undo = m.undo[last], m.undo[:last]
	m.logger.Debug("undo", "to", m.current)
	return true
}

// Redo re-applies the last undone state. It reports false when nothing was undone.
func (m *StateMachine) Redo() bool {
	if len(m.redo) == 0 {
		return false
	}
	m.undo = append(m.undo, m.current)
	last := len(m.redo) - 1
	m.current, m.redo = m.redo[last], m.redo[:last]
	m.logger.Debug("redo", "to", m.current)
	return true
}

// CanUndo reports whether Undo would succeed.
func (m *StateMachine) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo would succeed.
func (m *StateMachine) CanRedo() bool { return len(m.redo) > 0 }

// History returns a copy of the undo stack, oldest first.
func (m *StateMachine) History() []domain.StateID {
	return append([]domain.StateID{}, m.undo...)
}

// ClearHistory empties both stacks. The current state is kept.
func (m *StateMachine) ClearHistory() {
	m.undo = nil
	m.redo = nil
}

// Snapshot captures the current state and both stacks.
func (m *StateMachine) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Current: m.current,
		Undo:    m.undo,
		Redo:    m.redo,
	}.Clone()
}

// Restore replaces the current state and history with a snapshot.
// Every state in the snapshot must be one the machine could have reached;
// otherwise the machine is left untouched.
func (m *StateMachine) Restore(s domain.Snapshot) error {
	if !m.knows(s.Current) {
		return fmt.Errorf("%w: snapshot current %q", domain.ErrInvalidState, s.Current)
	}
	for _, stack := range [][]domain.StateID{s.Undo, s.Redo} {
		for _, id := range stack {
			if !m.knows(id) {
				return fmt.Errorf("%w: snapshot history %q", domain.ErrInvalidState, id)
			}
		}
	}

	s = s.Clone()
	m.current, m.undo, m.redo = s.Current, s.Undo, s.Redo
	return nil
}

// knows reports whether id can be occupied by this machine. Besides the table,
// the unvalidated initial state, the reset target and undeclared transition
// targets are reachable.
func (m *StateMachine) knows(id domain.StateID) bool {
	return m.table.Has(id) || id == m.initial || id == domain.NormalState || m.table.Targets(id)
}
