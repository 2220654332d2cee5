package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMonitor_CapturesLinesAndExitCode(t *testing.T) {
	ctx := context.Background()
	h, err := Start(ctx, []string{"sh", "-c", "echo hello; echo world"}, nil, "")
	require.NoError(t, err)

	var lines []string
	res := Monitor(h, func(line, tag string) {
		lines = append(lines, line)
	}, nil)

	assert.Equal(t, 0, res.ReturnCode)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"hello", "world"}, lines)
}

func TestStartMonitor_NonZeroExitIsNotAnError(t *testing.T) {
	ctx := context.Background()
	h, err := Start(ctx, []string{"sh", "-c", "exit 3"}, nil, "")
	require.NoError(t, err)

	res := Monitor(h, nil, nil)
	assert.Equal(t, 3, res.ReturnCode)
	assert.NoError(t, res.Err)
}

func TestStart_EnvOverlayWins(t *testing.T) {
	ctx := context.Background()
	h, err := Start(ctx, []string{"sh", "-c", "echo $BORG_TEST"}, map[string]string{"BORG_TEST": "overlay-value"}, "")
	require.NoError(t, err)

	var lines []string
	Monitor(h, func(line, tag string) { lines = append(lines, line) }, nil)

	require.Len(t, lines, 1)
	assert.Equal(t, "overlay-value", lines[0])
}

func TestStart_EmptyCommand(t *testing.T) {
	_, err := Start(context.Background(), nil, nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawn)
}

func TestMonitor_ParsesProgressLine(t *testing.T) {
	ctx := context.Background()
	h, err := Start(ctx, []string{"sh", "-c", "echo '100 50 25 3 /data/file.txt'"}, nil, "")
	require.NoError(t, err)

	var got *Progress
	Monitor(h, nil, func(p *Progress) { got = p })

	require.NotNil(t, got)
	assert.Equal(t, int64(100), got.OriginalBytes)
	assert.Equal(t, int64(50), got.CompressedBytes)
	assert.Equal(t, int64(25), got.DeduplicatedBytes)
	assert.Equal(t, int64(3), got.NumFiles)
	assert.Equal(t, "/data/file.txt", got.CurrentPath)
}

func TestMonitor_ParsesLabelledArchiveFields(t *testing.T) {
	ctx := context.Background()
	h, err := Start(ctx, []string{"sh", "-c", "echo 'Archive name: nightly-2026-07-31'"}, nil, "")
	require.NoError(t, err)

	var got *Progress
	Monitor(h, nil, func(p *Progress) { got = p })

	require.NotNil(t, got)
	assert.Equal(t, "nightly-2026-07-31", got.ArchiveName)
}

func TestTerminate_IdempotentAfterExit(t *testing.T) {
	ctx := context.Background()
	h, err := Start(ctx, []string{"sh", "-c", "exit 0"}, nil, "")
	require.NoError(t, err)
	Monitor(h, nil, nil)

	Terminate(h, 10*time.Millisecond)
	Terminate(h, 10*time.Millisecond)
}

func TestTerminate_ForceKillsAfterGrace(t *testing.T) {
	ctx := context.Background()
	h, err := Start(ctx, []string{"sh", "-c", "trap '' TERM; sleep 5"}, nil, "")
	require.NoError(t, err)

	done := make(chan Result, 1)
	go func() {
		done <- Monitor(h, nil, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	Terminate(h, 100*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process was not killed within expected window")
	}
}
