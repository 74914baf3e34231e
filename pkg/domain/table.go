package domain

import (
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Table is the transition table of a machine.
// Keys keep their insertion order, which is the order reported by Keys.
type Table struct {
	states *orderedmap.OrderedMap[StateID, StateDef]
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		states: orderedmap.New[StateID, StateDef](),
	}
}

// Set adds or replaces a state. Replacing keeps the original position.
func (t *Table) Set(id StateID, def StateDef) *Table {
	if def.Transitions == nil {
		def.Transitions = make(map[EventID]StateID)
	}
	t.states.Set(id, def)
	return t
}

// Get returns the definition of a state.
func (t *Table) Get(id StateID) (StateDef, bool) {
	if t == nil {
		return StateDef{}, false
	}
	return t.states.Get(id)
}

// Has reports whether the state is part of the table.
func (t *Table) Has(id StateID) bool {
	_, ok := t.Get(id)
	return ok
}

// Len returns the number of states.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.states.Len()
}

// Keys returns every state in insertion order.
func (t *Table) Keys() []StateID {
	keys := make([]StateID, 0, t.Len())
	if t == nil {
		return keys
	}
	for pair := t.states.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Transition looks up the target of an event from a state.
func (t *Table) Transition(from StateID, event EventID) (StateID, bool) {
	def, ok := t.Get(from)
	if !ok {
		return "", false
	}
	to, ok := def.Transitions[event]
	return to, ok
}

// WithEvent returns, in insertion order, the states that define a transition for event.
func (t *Table) WithEvent(event EventID) []StateID {
	keys := t.Keys()
	states := make([]StateID, 0, len(keys))
	for _, id := range keys {
		if _, ok := t.Transition(id, event); ok {
			states = append(states, id)
		}
	}
	return states
}

// Targets reports whether some transition leads to id.
func (t *Table) Targets(id StateID) bool {
	for _, from := range t.Keys() {
		def, _ := t.Get(from)
		for _, to := range def.Transitions {
			if to == id {
				return true
			}
		}
	}
	return false
}

// Events returns the events defined from a state, sorted for stable output.
func (t *Table) Events(from StateID) []EventID {
	def, _ := t.Get(from)
	events := make([]EventID, 0, len(def.Transitions))
	for ev := range def.Transitions {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

// Validate checks that the initial state and every transition target exist.
func (t *Table) Validate(initial StateID) error {
	if t.Len() == 0 {
		return fmt.Errorf("%w: no states defined", ErrConfig)
	}
	if !t.Has(initial) {
		return fmt.Errorf("%w: initial state %q not defined", ErrConfig, initial)
	}
	for _, id := range t.Keys() {
		def, _ := t.Get(id)
		for _, ev := range t.Events(id) {
			if to := def.Transitions[ev]; !t.Has(to) {
				return fmt.Errorf("%w: state %q event %q targets undefined state %q", ErrConfig, id, ev, to)
			}
		}
	}
	return nil
}
