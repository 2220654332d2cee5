package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	resolved, err := ExpandHome("~/.borgitory/borgitory.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".borgitory/borgitory.db"), resolved)

	unchanged, err := ExpandHome("/absolute/path.db")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path.db", unchanged)

	memPath, err := ExpandHome(":memory:")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", memPath)
}

func TestWireCore_NilConfigErrors(t *testing.T) {
	_, err := WireCore(nil)
	require.Error(t, err)
}
