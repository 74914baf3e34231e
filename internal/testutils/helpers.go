package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/fsm/internal/compiler"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/stretchr/testify/require"
)

// MoodYAML is a small valid definition whose initial state is the reset target.
const MoodYAML = `initial: normal
states:
  normal:
    transitions:
      study: hungry
      get_tired: sleeping
  hungry:
    transitions:
      eat: normal
  sleeping:
    transitions:
      wake_up: normal
`

// WriteDefinition writes content to machine.yaml in a fresh temp dir and returns its path.
// It fails the test immediately on error.
func WriteDefinition(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write definition")
	return path
}

// MoodConfig parses MoodYAML.
func MoodConfig(t testing.TB) domain.Config {
	t.Helper()
	cfg, err := compiler.NewParser().Parse([]byte(MoodYAML))
	require.NoError(t, err, "Failed to parse definition")
	return cfg
}
