package dsl

import (
	"fmt"

	"github.com/aretw0/fsm/pkg/adapters/memory"
	"github.com/aretw0/fsm/pkg/domain"
)

// Builder manages the machine construction.
type Builder struct {
	initial domain.StateID
	order   []domain.StateID
	states  map[domain.StateID]*StateBuilder
}

// New creates a new builder whose machine starts at initial.
func New(initial domain.StateID) *Builder {
	return &Builder{
		initial: initial,
		states:  make(map[domain.StateID]*StateBuilder),
	}
}

// Add creates a new state in the machine.
// If the state already exists, it returns the existing builder.
func (b *Builder) Add(id domain.StateID) *StateBuilder {
	if sb, ok := b.states[id]; ok {
		return sb
	}
	sb := &StateBuilder{
		id:          id,
		transitions: make(map[domain.EventID]domain.StateID),
		builder:     b,
	}
	b.states[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Config returns the definition as built so far, without validation.
func (b *Builder) Config() domain.Config {
	table := domain.NewTable()
	for _, id := range b.order {
		table.Set(id, b.states[id].Build())
	}
	return domain.Config{Initial: b.initial, States: table}
}

// Build validates the machine and compiles it into a memory Loader.
func (b *Builder) Build() (*memory.Loader, error) {
	cfg := b.Config()
	if err := cfg.States.Validate(cfg.Initial); err != nil {
		return nil, fmt.Errorf("failed to build machine: %w", err)
	}
	return memory.NewFromConfig(cfg), nil
}

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	id          domain.StateID
	transitions map[domain.EventID]domain.StateID
	builder     *Builder
}

// On adds a transition taken when event fires in this state.
// A later call for the same event replaces the target.
func (s *StateBuilder) On(event domain.EventID, target domain.StateID) *StateBuilder {
	s.transitions[event] = target
	return s
}

// Terminal removes every transition, making the state a sink.
func (s *StateBuilder) Terminal() *StateBuilder {
	clear(s.transitions)
	return s
}

// Add continues with another state of the same builder.
func (s *StateBuilder) Add(id domain.StateID) *StateBuilder {
	return s.builder.Add(id)
}

// Build returns a copy of the state definition.
func (s *StateBuilder) Build() domain.StateDef {
	transitions := make(map[domain.EventID]domain.StateID, len(s.transitions))
	for ev, to := range s.transitions {
		transitions[ev] = to
	}
	return domain.StateDef{Transitions: transitions}
}
