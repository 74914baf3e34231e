package ports

import (
	"context"

	"github.com/aretw0/fsm/pkg/domain"
)

// SnapshotStore defines the interface for persisting machine snapshots.
// This allows a machine's position and history to survive across processes.
type SnapshotStore interface {
	// Save persists the snapshot for a given machine ID.
	Save(ctx context.Context, machineID string, snap domain.Snapshot) error

	// Load retrieves the snapshot for a given machine ID.
	// Returns domain.ErrMachineNotFound if the machine does not exist.
	Load(ctx context.Context, machineID string) (domain.Snapshot, error)

	// Delete removes the snapshot for a given machine ID.
	Delete(ctx context.Context, machineID string) error

	// List returns the IDs of all stored machines.
	List(ctx context.Context) ([]string, error)
}
