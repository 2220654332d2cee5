package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Both browse and extract ultimately shell out to a real `borg` binary via
// executor.OSRunner, so only the pre-flight wiring (Core assembly and
// repository lookup) is exercised here, mirroring repo_test.go's choice not
// to test 'repo add' end to end.

func TestRepoBrowseCmd_UnknownRepositoryFails(t *testing.T) {
	a, _ := tempDBApp(t)

	cmd := newRepoBrowseCmd(a)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{"does-not-exist", "archive-1"})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestRepoExtractCmd_UnknownRepositoryFails(t *testing.T) {
	a, _ := tempDBApp(t)

	cmd := newRepoExtractCmd(a)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{"does-not-exist", "archive-1", "/etc/hosts"})

	err := cmd.Execute()
	require.Error(t, err)
}
