package file

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/fsm/internal/compiler"
	"github.com/aretw0/fsm/pkg/domain"
)

// Loader implements ports.DefinitionLoader reading a YAML or JSON file.
type Loader struct {
	Path   string
	parser *compiler.Parser
}

// NewLoader creates a Loader for the definition file at path.
func NewLoader(path string) *Loader {
	return &Loader{
		Path:   path,
		parser: compiler.NewParser(),
	}
}

// Load reads and parses the definition file.
func (l *Loader) Load(ctx context.Context) (domain.Config, error) {
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(l.Path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to read definition: %w", err)
	}

	cfg, err := l.parser.Parse(data)
	if err != nil {
		return domain.Config{}, fmt.Errorf("%s: %w", l.Path, err)
	}
	return cfg, nil
}
