package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelCmd_UnknownJobIsNotAnError(t *testing.T) {
	a, _ := tempDBApp(t)

	cmd := NewCancelCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"does-not-exist"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "not running in this process")
}

func TestCancelCmd_RequiresExactlyOneArg(t *testing.T) {
	a, _ := tempDBApp(t)

	cmd := NewCancelCmd(a)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{})

	require.Error(t, cmd.Execute())
}
