/*
Package ports defines the driven ports (interfaces) of the fsm engine.

These interfaces decouple the session layer from external implementations,
allowing machines to be defined and persisted with various backends.

# Key Interfaces

  - DefinitionLoader: Produces a machine Config (e.g., from a YAML file or memory).
  - SnapshotStore: Persists and loads machine Snapshots by ID.
  - DistributedLocker: Provides distributed locking for concurrent access to one machine.
*/
package ports
