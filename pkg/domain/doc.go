/*
Package domain contains the core domain models of the fsm engine.

It defines the identifiers, the ordered transition table, the machine
configuration and the serializable snapshot used by the persistence ports.
This package is kept pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - StateID / EventID: opaque identifiers for states and events.
  - Table: insertion-ordered mapping from state to its transitions.
  - Config: the initial state plus the table, the input of a machine.
  - Snapshot: current state plus the undo and redo stacks.
*/
package domain
