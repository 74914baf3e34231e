package ports

import (
	"context"

	"github.com/aretw0/fsm/pkg/domain"
)

// DefinitionLoader defines how the host retrieves a machine definition.
// This allows the definition source (File, Memory) to be decoupled.
type DefinitionLoader interface {
	// Load returns the initial state and the ordered transition table.
	// Malformed definitions are reported with domain.ErrConfig.
	Load(ctx context.Context) (domain.Config, error)
}
