package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusFilter(t *testing.T) {
	assert.Equal(t, []string{"running", "queued"}, parseStatusFilter("running, queued"))
	assert.Empty(t, parseStatusFilter(""))
	assert.Equal(t, []string{"failed"}, parseStatusFilter("failed,"))
}

func TestJobsCmd_EmptyJournal(t *testing.T) {
	a, _ := tempDBApp(t)

	cmd := NewJobsCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No jobs found")
}

func TestStatusCmd_UnknownJobReturnsError(t *testing.T) {
	a, _ := tempDBApp(t)

	cmd := NewStatusCmd(a)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{"does-not-exist"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in journal")
}

func TestStatusCmd_ReportsSubmittedJob(t *testing.T) {
	a, dbPath := tempDBApp(t)
	seedRepoAt(t, dbPath, "repo-1")

	submit := newSubmitBackupCmd(a)
	submitOut := &bytes.Buffer{}
	submit.SetOut(submitOut)
	submit.SetArgs([]string{"--repo", "repo-1", "--source", "/data"})
	require.NoError(t, submit.Execute())
	jobID := strings.TrimSpace(submitOut.String())

	status := NewStatusCmd(a)
	statusOut := &bytes.Buffer{}
	status.SetOut(statusOut)
	status.SetArgs([]string{jobID})
	require.NoError(t, status.Execute())
	assert.Contains(t, statusOut.String(), jobID)
}
