// Package queue implements the Queue & Admission component: a priority FIFO
// per job class with semaphore-style concurrency caps and a poll loop that
// releases admitted jobs to the Manager (spec §4.D).
package queue

import (
	"container/heap"
	"sync"
	"time"
)

// Class identifies which concurrency cap a job draws from.
type Class string

const (
	ClassBackup    Class = "backup"
	ClassOperation Class = "operation"
)

// entry is one queued job, ordered by class-relative priority then FIFO
// arrival order within the same priority.
type entry struct {
	jobID    string
	class    Class
	priority int
	seq      int64
	index    int
}

type priorityHeap []*entry

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *priorityHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// StartCallback is invoked once a slot has been admitted for jobID.
type StartCallback func(jobID string, class Class)

// CompleteCallback is invoked after Release frees jobID's slot.
type CompleteCallback func(jobID string, class Class, success bool)

// classState holds one class's FIFO and semaphore.
type classState struct {
	heap      priorityHeap
	maxSlots  int
	inFlight  int
}

// Queue is the Manager's admission gate. Exactly one instance exists per
// Manager; it is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	classes  map[Class]*classState
	nextSeq  int64
	pollEvery time.Duration

	onStart    StartCallback
	onComplete CompleteCallback

	stop chan struct{}
	wg   sync.WaitGroup
}

// Config bounds each class's concurrency and the poll interval.
type Config struct {
	BackupSlots    int
	OperationSlots int
	PollInterval   time.Duration
}

// New constructs a Queue with the given per-class caps. The poll loop is
// not started until Run is called.
func New(cfg Config) *Queue {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Queue{
		classes: map[Class]*classState{
			ClassBackup:    {maxSlots: cfg.BackupSlots},
			ClassOperation: {maxSlots: cfg.OperationSlots},
		},
		pollEvery: cfg.PollInterval,
		stop:      make(chan struct{}),
	}
}

// SetCallbacks registers the start/complete callbacks exactly once, as the
// Manager does during construction (spec §4.D).
func (q *Queue) SetCallbacks(onStart StartCallback, onComplete CompleteCallback) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onStart = onStart
	q.onComplete = onComplete
}

// Enqueue admits jobID into class's FIFO and returns its 1-based position
// among currently queued jobs of that class (position 1 = next in line).
// Same-priority jobs are served FIFO; a higher priority value cuts in
// front of lower-priority jobs already queued.
func (q *Queue) Enqueue(jobID string, class Class, priority int) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cs := q.classes[class]
	q.nextSeq++
	e := &entry{jobID: jobID, class: class, priority: priority, seq: q.nextSeq}
	heap.Push(&cs.heap, e)
	pos := 1
	for _, other := range cs.heap {
		if other != e && (other.priority > e.priority || (other.priority == e.priority && other.seq < e.seq)) {
			pos++
		}
	}
	return pos
}

// Cancel removes jobID from its class's FIFO before it was ever admitted.
// Returns false if jobID was not found queued (e.g. it already started).
func (q *Queue) Cancel(jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, cs := range q.classes {
		for i, e := range cs.heap {
			if e.jobID == jobID {
				heap.Remove(&cs.heap, i)
				return true
			}
		}
	}
	return false
}

// Release frees jobID's slot in class, decrementing in-flight count and
// invoking the complete callback. The Manager calls this once a job
// reaches a terminal status.
func (q *Queue) Release(jobID string, class Class, success bool) {
	q.mu.Lock()
	cs := q.classes[class]
	if cs.inFlight > 0 {
		cs.inFlight--
	}
	cb := q.onComplete
	q.mu.Unlock()

	if cb != nil {
		cb(jobID, class, success)
	}
}

// Stats is a point-in-time view of queue depth and available capacity.
type Stats struct {
	TotalQueued      int
	QueueSizeByClass map[Class]int
	AvailableSlots   map[Class]int
}

// Stats reports current queue depth and free capacity per class.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{
		QueueSizeByClass: make(map[Class]int, len(q.classes)),
		AvailableSlots:   make(map[Class]int, len(q.classes)),
	}
	for class, cs := range q.classes {
		s.QueueSizeByClass[class] = len(cs.heap)
		s.TotalQueued += len(cs.heap)
		free := cs.maxSlots - cs.inFlight
		if free < 0 {
			free = 0
		}
		s.AvailableSlots[class] = free
	}
	return s
}

// Run starts the poll loop in a background goroutine; Close stops it.
func (q *Queue) Run() {
	q.wg.Add(1)
	go q.pollLoop()
}

// Close stops the poll loop and waits for it to exit.
func (q *Queue) Close() {
	close(q.stop)
	q.wg.Wait()
}

func (q *Queue) pollLoop() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			q.tryAdmit()
		case <-q.stop:
			return
		}
	}
}

func (q *Queue) tryAdmit() {
	for {
		q.mu.Lock()
		var admitted *entry
		var admittedClass Class
		for class, cs := range q.classes {
			if len(cs.heap) == 0 || cs.inFlight >= cs.maxSlots {
				continue
			}
			e := heap.Pop(&cs.heap).(*entry)
			cs.inFlight++
			admitted = e
			admittedClass = class
			break
		}
		cb := q.onStart
		q.mu.Unlock()

		if admitted == nil {
			return
		}
		if cb != nil {
			cb(admitted.jobID, admittedClass)
		}
	}
}
