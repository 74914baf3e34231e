package domain

// StateID names a state. It must be unique within a Table.
type StateID string

// EventID names an event that may move the machine from one state to another.
type EventID string

// NormalState is the fixed target of a reset.
// It is a literal and does not follow the configured initial state.
const NormalState StateID = "normal"

// StateDef holds the outgoing transitions of a single state.
type StateDef struct {
	Transitions map[EventID]StateID `json:"transitions" yaml:"transitions"`
}

// Config is the declarative input of a machine.
type Config struct {
	// Initial becomes the current state on construction. It is not pushed onto history.
	Initial StateID

	// States is the transition table. Machines never mutate it.
	States *Table
}
