package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/fsm/pkg/adapters/file"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_Load(t *testing.T) {
	path := writeDefinition(t, `initial: A
states:
  A:
    transitions:
      to: B
  B:
    transitions:
      back: A
`)

	cfg, err := file.NewLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StateID("A"), cfg.Initial)
	assert.Equal(t, []domain.StateID{"A", "B"}, cfg.States.Keys())
}

func TestLoader_Missing(t *testing.T) {
	_, err := file.NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_Malformed(t *testing.T) {
	path := writeDefinition(t, "initial: A\nstates:\n  A:\n    bogus: true\n")
	_, err := file.NewLoader(path).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), path)
}
