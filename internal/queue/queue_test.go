package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_EnqueueReturnsPosition(t *testing.T) {
	q := New(Config{BackupSlots: 1, OperationSlots: 1})
	pos1 := q.Enqueue("job-1", ClassBackup, 0)
	pos2 := q.Enqueue("job-2", ClassBackup, 0)
	assert.Equal(t, 1, pos1)
	assert.Equal(t, 2, pos2)
}

func TestQueue_HigherPriorityCutsInFront(t *testing.T) {
	q := New(Config{BackupSlots: 1, OperationSlots: 1})

	var started []string
	var mu sync.Mutex
	q.SetCallbacks(func(jobID string, class Class) {
		mu.Lock()
		started = append(started, jobID)
		mu.Unlock()
		q.Release(jobID, class, true)
	}, nil)

	q.Enqueue("low", ClassBackup, 0)
	q.Enqueue("high", ClassBackup, 10)

	q.Run()
	defer q.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(started) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"high", "low"}, started)
}

func TestQueue_SamePriorityIsFIFO(t *testing.T) {
	q := New(Config{BackupSlots: 1, OperationSlots: 1})

	var started []string
	var mu sync.Mutex
	q.SetCallbacks(func(jobID string, class Class) {
		mu.Lock()
		started = append(started, jobID)
		mu.Unlock()
		q.Release(jobID, class, true)
	}, nil)

	q.Enqueue("first", ClassBackup, 0)
	q.Enqueue("second", ClassBackup, 0)
	q.Enqueue("third", ClassBackup, 0)

	q.Run()
	defer q.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(started) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "third"}, started)
}

func TestQueue_RespectsConcurrencyCap(t *testing.T) {
	q := New(Config{BackupSlots: 1, OperationSlots: 1})

	var maxConcurrent, current int
	var mu sync.Mutex
	release := make(chan struct{})

	q.SetCallbacks(func(jobID string, class Class) {
		mu.Lock()
		current++
		if current > maxConcurrent {
			maxConcurrent = current
		}
		mu.Unlock()
		go func() {
			<-release
			mu.Lock()
			current--
			mu.Unlock()
			q.Release(jobID, class, true)
		}()
	}, nil)

	q.Enqueue("a", ClassBackup, 0)
	q.Enqueue("b", ClassBackup, 0)
	q.Enqueue("c", ClassBackup, 0)

	q.Run()
	defer q.Close()

	time.Sleep(50 * time.Millisecond)
	close(release)

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxConcurrent)
}

func TestQueue_CancelRemovesUnstartedJob(t *testing.T) {
	q := New(Config{BackupSlots: 0, OperationSlots: 0})
	q.Enqueue("job-1", ClassBackup, 0)

	ok := q.Cancel("job-1")
	assert.True(t, ok)

	stats := q.Stats()
	assert.Equal(t, 0, stats.TotalQueued)
}

func TestQueue_CancelUnknownJob(t *testing.T) {
	q := New(Config{BackupSlots: 1, OperationSlots: 1})
	assert.False(t, q.Cancel("nope"))
}

func TestQueue_Stats(t *testing.T) {
	q := New(Config{BackupSlots: 2, OperationSlots: 1})
	q.Enqueue("job-1", ClassBackup, 0)
	q.Enqueue("job-2", ClassOperation, 0)

	stats := q.Stats()
	assert.Equal(t, 2, stats.TotalQueued)
	assert.Equal(t, 1, stats.QueueSizeByClass[ClassBackup])
	assert.Equal(t, 1, stats.QueueSizeByClass[ClassOperation])
	assert.Equal(t, 2, stats.AvailableSlots[ClassBackup])
	assert.Equal(t, 1, stats.AvailableSlots[ClassOperation])
}
