package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/fsm/pkg/domain"
)

// State is a convenience literal for declaring a state in Go code.
type State struct {
	ID          domain.StateID
	Transitions map[domain.EventID]domain.StateID
}

// Loader implements ports.DefinitionLoader from values held in memory.
type Loader struct {
	cfg domain.Config
}

// NewLoader creates a Loader. States keep the order in which they are given.
func NewLoader(initial domain.StateID, states ...State) *Loader {
	table := domain.NewTable()
	for _, s := range states {
		table.Set(s.ID, domain.StateDef{Transitions: s.Transitions})
	}
	return &Loader{cfg: domain.Config{Initial: initial, States: table}}
}

// NewFromConfig wraps an already built configuration.
func NewFromConfig(cfg domain.Config) *Loader {
	return &Loader{cfg: cfg}
}

// Load returns the held configuration.
func (l *Loader) Load(ctx context.Context) (domain.Config, error) {
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}
	if l.cfg.States == nil {
		return domain.Config{}, fmt.Errorf("%w: no states defined", domain.ErrConfig)
	}
	return l.cfg, nil
}
