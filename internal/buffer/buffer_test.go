package buffer

import (
	"testing"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateIsIdempotent(t *testing.T) {
	s := NewStore(10)
	s.Create("job-1")
	s.Create("job-1")

	lines, _, ok := s.Snapshot("job-1", 0)
	require.True(t, ok)
	assert.Empty(t, lines)
}

func TestStore_AppendAndSnapshot(t *testing.T) {
	s := NewStore(10)
	s.Create("job-1")
	s.Append("job-1", "line one", "stdout", nil)
	s.Append("job-1", "line two", "stdout", nil)

	lines, _, ok := s.Snapshot("job-1", 0)
	require.True(t, ok)
	require.Len(t, lines, 2)
	assert.Equal(t, "line one", lines[0].Text)
	assert.Equal(t, "line two", lines[1].Text)
}

func TestStore_AppendDropsOldestOnOverflow(t *testing.T) {
	s := NewStore(2)
	s.Create("job-1")
	s.Append("job-1", "one", "stdout", nil)
	s.Append("job-1", "two", "stdout", nil)
	s.Append("job-1", "three", "stdout", nil)

	lines, _, _ := s.Snapshot("job-1", 0)
	require.Len(t, lines, 2)
	assert.Equal(t, "two", lines[0].Text)
	assert.Equal(t, "three", lines[1].Text)
}

func TestStore_SnapshotTailN(t *testing.T) {
	s := NewStore(10)
	s.Create("job-1")
	for _, text := range []string{"a", "b", "c", "d"} {
		s.Append("job-1", text, "stdout", nil)
	}

	lines, _, _ := s.Snapshot("job-1", 2)
	require.Len(t, lines, 2)
	assert.Equal(t, "c", lines[0].Text)
	assert.Equal(t, "d", lines[1].Text)
}

func TestStore_AppendTracksLatestProgress(t *testing.T) {
	s := NewStore(10)
	s.Create("job-1")
	p := &executor.Progress{NumFiles: 5}
	s.Append("job-1", "100 50 25 5 /x", "stdout", p)

	_, progress, _ := s.Snapshot("job-1", 0)
	require.NotNil(t, progress)
	assert.Equal(t, int64(5), progress.NumFiles)
}

func TestStore_SetProgressDoesNotAddLine(t *testing.T) {
	s := NewStore(10)
	s.Create("job-1")
	s.Append("job-1", "a", "stdout", nil)
	s.SetProgress("job-1", &executor.Progress{NumFiles: 7})

	lines, progress, ok := s.Snapshot("job-1", 0)
	require.True(t, ok)
	require.Len(t, lines, 1)
	require.NotNil(t, progress)
	assert.Equal(t, int64(7), progress.NumFiles)
}

func TestStore_UnknownJobSnapshot(t *testing.T) {
	s := NewStore(10)
	_, _, ok := s.Snapshot("nope", 0)
	assert.False(t, ok)
}

func TestStore_FollowReplaysBacklogThenLive(t *testing.T) {
	s := NewStore(10)
	s.Create("job-1")
	s.Append("job-1", "buffered-1", "stdout", nil)

	live, backlog, unsubscribe, ok := s.Follow("job-1")
	require.True(t, ok)
	defer unsubscribe()

	require.Len(t, backlog, 1)
	assert.Equal(t, "buffered-1", backlog[0].Text)

	s.Append("job-1", "live-1", "stdout", nil)

	select {
	case l := <-live:
		assert.Equal(t, "live-1", l.Text)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live line")
	}
}

func TestStore_FollowUnknownJob(t *testing.T) {
	s := NewStore(10)
	_, _, _, ok := s.Follow("nope")
	assert.False(t, ok)
}

func TestStore_ClearClosesFollowers(t *testing.T) {
	s := NewStore(10)
	s.Create("job-1")
	live, _, unsubscribe, ok := s.Follow("job-1")
	require.True(t, ok)
	defer unsubscribe()

	s.Clear("job-1")

	_, open := <-live
	assert.False(t, open)

	_, _, stillThere := s.Snapshot("job-1", 0)
	assert.False(t, stillThere)
}
