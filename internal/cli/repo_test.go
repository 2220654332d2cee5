package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoListCmd_EmptyJournal(t *testing.T) {
	a, _ := tempDBApp(t)

	cmd := newRepoListCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No repositories registered")
}

func TestRepoListCmd_ReportsSeededRows(t *testing.T) {
	a, dbPath := tempDBApp(t)
	seedRepoAt(t, dbPath, "repo-1")

	cmd := newRepoListCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	text := out.String()
	assert.Contains(t, text, "repo-1")
	assert.Contains(t, text, "/data/repo-1")
}

func TestRepoScanCmd_EmptyDirectoryReportsNoCandidates(t *testing.T) {
	cmd := newRepoScanCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{t.TempDir()})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No repository candidates found")
}
