package domain

// Snapshot is the serializable view of a machine: its current state
// and both history stacks, most recent entry last.
type Snapshot struct {
	Current StateID   `json:"current" yaml:"current"`
	Undo    []StateID `json:"undo,omitempty" yaml:"undo,omitempty"`
	Redo    []StateID `json:"redo,omitempty" yaml:"redo,omitempty"`
}

// NewSnapshot creates a snapshot positioned at the given state with empty history.
func NewSnapshot(current StateID) Snapshot {
	return Snapshot{Current: current}
}

// Clone returns a deep copy so callers can't mutate shared stacks.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Current: s.Current}
	if len(s.Undo) > 0 {
		out.Undo = append([]StateID(nil), s.Undo...)
	}
	if len(s.Redo) > 0 {
		out.Redo = append([]StateID(nil), s.Redo...)
	}
	return out
}
