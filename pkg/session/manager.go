package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/fsm"
	"github.com/aretw0/fsm/internal/logging"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/aretw0/fsm/pkg/observability"
	"github.com/aretw0/fsm/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager runs machine operations against persisted snapshots, ensuring
// that calls for the same machine ID are serialized.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	cfg   domain.Config
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	strict  bool
	metrics *observability.Metrics
	logger  *slog.Logger

	hooksMu sync.RWMutex
	hooks   []ChangeFunc
}

// ChangeFunc observes a saved snapshot. It runs with the machine lock held,
// so calls for one machine arrive in save order and must not block.
type ChangeFunc func(machineID string, snap domain.Snapshot)

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager and the machines it runs.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics records every operation on the given collectors.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithStrict validates the definition once at construction.
func WithStrict() Option {
	return func(m *Manager) {
		m.strict = true
	}
}

// NewManager creates a Manager for machines built from cfg and persisted in store.
func NewManager(cfg domain.Config, store ports.SnapshotStore, opts ...Option) (*Manager, error) {
	m := &Manager{
		cfg:     cfg,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.strict {
		if _, err := fsm.New(cfg, fsm.WithStrict()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Config returns the definition shared by every machine.
func (m *Manager) Config() domain.Config {
	return m.cfg
}

// OnChange registers fn to run after every successful save made by a
// mutating operation.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.hooks = append(m.hooks, fn)
}

func (m *Manager) notify(machineID string, snap domain.Snapshot) {
	m.hooksMu.RLock()
	defer m.hooksMu.RUnlock()
	for _, fn := range m.hooks {
		fn(machineID, snap.Clone())
	}
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(machineID) after unlocking.
func (m *Manager) acquire(machineID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[machineID]
	if !exists {
		entry = &lockEntry{}
		m.locks[machineID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(machineID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[machineID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, machineID)
	}
}

// WithLock executes a function while holding the lock for the machine.
func (m *Manager) WithLock(ctx context.Context, machineID string, fn func(context.Context) error) error {
	entry := m.acquire(machineID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(machineID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, machineID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"machine_id", machineID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// machine builds a fresh machine positioned at snap.
func (m *Manager) machine(machineID string, snap domain.Snapshot) (*fsm.StateMachine, error) {
	sm, err := fsm.New(m.cfg, fsm.WithLogger(m.logger.With("machine_id", machineID)))
	if err != nil {
		return nil, err
	}
	if err := sm.Restore(snap); err != nil {
		return nil, fmt.Errorf("stored snapshot of %q no longer matches definition: %w", machineID, err)
	}
	return sm, nil
}

// loadOrStart must be called with the machine lock held.
func (m *Manager) loadOrStart(ctx context.Context, machineID string) (domain.Snapshot, error) {
	snap, err := m.store.Load(ctx, machineID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domain.ErrMachineNotFound) {
		return domain.Snapshot{}, fmt.Errorf("failed to check machine existence: %w", err)
	}

	snap = domain.NewSnapshot(m.cfg.Initial)
	// Persist immediately to reserve the ID
	if err := m.store.Save(ctx, machineID, snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to initialize machine: %w", err)
	}
	m.logger.Info("machine started", "machine_id", machineID, "state", snap.Current)
	return snap, nil
}

// apply loads the machine, runs fn and saves the result when fn reports a change.
// Errors from fn are returned unwrapped so callers can match domain sentinels.
func (m *Manager) apply(ctx context.Context, machineID string, fn func(*fsm.StateMachine) (bool, error)) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.WithLock(ctx, machineID, func(ctx context.Context) error {
		snap, err := m.loadOrStart(ctx, machineID)
		if err != nil {
			return err
		}
		sm, err := m.machine(machineID, snap)
		if err != nil {
			return err
		}

		changed, err := fn(sm)
		out = sm.Snapshot()
		if err != nil || !changed {
			return err
		}

		if err := m.store.Save(ctx, machineID, out); err != nil {
			return fmt.Errorf("failed to save machine: %w", err)
		}
		m.notify(machineID, out)
		return nil
	})
	return out, err
}

// Open loads a machine, creating it at the initial state if it does not exist.
func (m *Manager) Open(ctx context.Context, machineID string) (domain.Snapshot, error) {
	return m.apply(ctx, machineID, func(*fsm.StateMachine) (bool, error) {
		return false, nil
	})
}

// Get loads an existing machine.
// Returns domain.ErrMachineNotFound if it was never opened.
func (m *Manager) Get(ctx context.Context, machineID string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := m.WithLock(ctx, machineID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, machineID)
		return err
	})
	return snap, err
}

// Trigger applies an event to the machine.
func (m *Manager) Trigger(ctx context.Context, machineID string, event domain.EventID) (domain.Snapshot, error) {
	snap, err := m.apply(ctx, machineID, func(sm *fsm.StateMachine) (bool, error) {
		err := sm.Trigger(event)
		m.metrics.ObserveTransition(observability.KindTrigger, err)
		return err == nil, err
	})
	if err != nil {
		m.logger.Debug("trigger rejected", "machine_id", machineID, "event", event, "err", err)
	}
	return snap, err
}

// ChangeState moves the machine to target regardless of event rules.
func (m *Manager) ChangeState(ctx context.Context, machineID string, target domain.StateID) (domain.Snapshot, error) {
	snap, err := m.apply(ctx, machineID, func(sm *fsm.StateMachine) (bool, error) {
		err := sm.ChangeState(target)
		m.metrics.ObserveTransition(observability.KindChange, err)
		return err == nil, err
	})
	if err != nil {
		m.logger.Debug("change rejected", "machine_id", machineID, "state", target, "err", err)
	}
	return snap, err
}

// Undo steps the machine back. ok is false when there was no history;
// nothing is saved in that case.
func (m *Manager) Undo(ctx context.Context, machineID string) (bool, domain.Snapshot, error) {
	var ok bool
	snap, err := m.apply(ctx, machineID, func(sm *fsm.StateMachine) (bool, error) {
		ok = sm.Undo()
		m.metrics.ObserveHistory(observability.OpUndo, ok)
		return ok, nil
	})
	return ok, snap, err
}

// Redo re-applies the last undone state. ok is false when nothing was undone.
func (m *Manager) Redo(ctx context.Context, machineID string) (bool, domain.Snapshot, error) {
	var ok bool
	snap, err := m.apply(ctx, machineID, func(sm *fsm.StateMachine) (bool, error) {
		ok = sm.Redo()
		m.metrics.ObserveHistory(observability.OpRedo, ok)
		return ok, nil
	})
	return ok, snap, err
}

// Reset moves the machine to domain.NormalState and clears its history.
func (m *Manager) Reset(ctx context.Context, machineID string) (domain.Snapshot, error) {
	return m.apply(ctx, machineID, func(sm *fsm.StateMachine) (bool, error) {
		sm.Reset()
		m.metrics.ObserveReset()
		return true, nil
	})
}

// ClearHistory empties both stacks of the machine.
func (m *Manager) ClearHistory(ctx context.Context, machineID string) (domain.Snapshot, error) {
	return m.apply(ctx, machineID, func(sm *fsm.StateMachine) (bool, error) {
		sm.ClearHistory()
		return true, nil
	})
}

// Delete removes the machine from the store.
func (m *Manager) Delete(ctx context.Context, machineID string) error {
	return m.WithLock(ctx, machineID, func(ctx context.Context) error {
		return m.store.Delete(ctx, machineID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// States lists the states of the shared table, optionally filtered by event.
func (m *Manager) States(event ...domain.EventID) []domain.StateID {
	if len(event) == 0 {
		return m.cfg.States.Keys()
	}
	return m.cfg.States.WithEvent(event[0])
}

// Events lists the events defined from a state.
func (m *Manager) Events(state domain.StateID) []domain.EventID {
	return m.cfg.States.Events(state)
}
