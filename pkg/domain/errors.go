package domain

import "errors"

// ErrInvalidState is returned when a requested state is not part of the transition table.
var ErrInvalidState = errors.New("invalid state")

// ErrNoTransition is returned when the current state defines no transition for an event.
var ErrNoTransition = errors.New("no transition")

// ErrConfig is returned when a machine definition is malformed or inconsistent.
var ErrConfig = errors.New("invalid configuration")

// ErrMachineNotFound is returned when a machine ID cannot be found in the store.
var ErrMachineNotFound = errors.New("machine not found")
