package archivetree

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListRunner struct {
	calls atomic.Int32
	lines []string
	code  int
}

func (f *fakeListRunner) Start(ctx context.Context, command []string, envOverlay map[string]string, cwd string) (*executor.Handle, error) {
	f.calls.Add(1)
	return &executor.Handle{}, nil
}

func (f *fakeListRunner) Monitor(h *executor.Handle, onLine executor.LineFunc, onProgress executor.ProgressFunc) executor.Result {
	for _, l := range f.lines {
		onLine(l, "stdout")
	}
	return executor.Result{ReturnCode: f.code}
}

func (f *fakeListRunner) Terminate(h *executor.Handle, grace time.Duration) {}

func TestCache_LoadRoot_BuildsFullTree(t *testing.T) {
	runner := &fakeListRunner{lines: []string{
		`{"path": "home/user/a.txt", "type": "f", "size": 10}`,
		`{"path": "home/user/b.txt", "type": "f", "size": 20}`,
	}}
	c := NewCache(runner)

	err := c.LoadRoot(context.Background(), "pw", "/repo", "arc1")
	require.NoError(t, err)

	entries, err := c.GetDirectoryContents(context.Background(), "pw", "/repo", "arc1", "home/user")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestCache_LoadRoot_IsIdempotent(t *testing.T) {
	runner := &fakeListRunner{lines: []string{`{"path": "a.txt", "type": "f"}`}}
	c := NewCache(runner)

	require.NoError(t, c.LoadRoot(context.Background(), "pw", "/repo", "arc1"))
	require.NoError(t, c.LoadRoot(context.Background(), "pw", "/repo", "arc1"))

	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestCache_GetDirectoryContents_TargetedLoadWhenRootNotLoaded(t *testing.T) {
	runner := &fakeListRunner{lines: []string{`{"path": "home/user/a.txt", "type": "f"}`}}
	c := NewCache(runner)

	entries, err := c.GetDirectoryContents(context.Background(), "pw", "/repo", "arc1", "home/user")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestCache_NonZeroExitPropagatesError(t *testing.T) {
	runner := &fakeListRunner{code: 2}
	c := NewCache(runner)

	err := c.LoadRoot(context.Background(), "pw", "/repo", "arc1")
	assert.Error(t, err)
}

func TestCache_EvictForcesRebuild(t *testing.T) {
	runner := &fakeListRunner{lines: []string{`{"path": "a.txt", "type": "f"}`}}
	c := NewCache(runner)

	require.NoError(t, c.LoadRoot(context.Background(), "pw", "/repo", "arc1"))
	c.Evict("/repo", "arc1")
	require.NoError(t, c.LoadRoot(context.Background(), "pw", "/repo", "arc1"))

	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestCache_DifferentArchivesAreIndependent(t *testing.T) {
	runner := &fakeListRunner{lines: []string{`{"path": "a.txt", "type": "f"}`}}
	c := NewCache(runner)

	require.NoError(t, c.LoadRoot(context.Background(), "pw", "/repo", "arc1"))
	require.NoError(t, c.LoadRoot(context.Background(), "pw", "/repo", "arc2"))

	assert.Equal(t, int32(2), runner.calls.Load())
}
