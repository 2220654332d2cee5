package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskSpecs_ValidMultiple(t *testing.T) {
	templates, err := parseTaskSpecs([]string{
		"backup:source_path=/data,compression=zstd",
		"prune:keep_daily=7,keep_weekly=4",
		"check",
	})
	require.NoError(t, err)
	require.Len(t, templates, 3)

	assert.Equal(t, domain.TaskKind("backup"), templates[0].Kind)
	assert.Equal(t, "/data", templates[0].Params["source_path"])
	assert.Equal(t, "zstd", templates[0].Params["compression"])

	assert.Equal(t, domain.TaskKind("prune"), templates[1].Kind)
	assert.Equal(t, 7, templates[1].Params["keep_daily"])
	assert.Equal(t, 4, templates[1].Params["keep_weekly"])

	assert.Equal(t, domain.TaskKind("check"), templates[2].Kind)
	assert.Empty(t, templates[2].Params)
}

func TestParseTaskSpecs_MissingKind(t *testing.T) {
	_, err := parseTaskSpecs([]string{":source_path=/data"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing kind")
}

func TestParseTaskSpecs_MalformedParam(t *testing.T) {
	_, err := parseTaskSpecs([]string{"backup:source_path"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed param")
}

func TestCoerceParam(t *testing.T) {
	assert.Equal(t, true, coerceParam("true"))
	assert.Equal(t, false, coerceParam("false"))
	assert.Equal(t, 7, coerceParam("7"))
	assert.Equal(t, "zstd", coerceParam("zstd"))
}

func TestSubmitBackupCmd_PrintsJobID(t *testing.T) {
	a, dbPath := tempDBApp(t)
	seedRepoAt(t, dbPath, "repo-1")

	cmd := newSubmitBackupCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--repo", "repo-1", "--source", "/data"})

	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}

func TestSubmitBackupCmd_UnknownRepositoryFails(t *testing.T) {
	a, _ := tempDBApp(t)

	cmd := newSubmitBackupCmd(a)
	cmd.SetArgs([]string{"--repo", "does-not-exist", "--source", "/data"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown repository")
}

func TestSubmitCompositeCmd_PrintsJobID(t *testing.T) {
	a, dbPath := tempDBApp(t)
	seedRepoAt(t, dbPath, "repo-1")

	cmd := newSubmitCompositeCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{
		"--repo", "repo-1",
		"--task", "backup:source_path=/data,compression=zstd",
		"--task", "prune:keep_daily=7",
	})

	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}
