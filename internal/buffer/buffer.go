// Package buffer implements the Output Buffer: a per-job bounded ring of
// output lines plus the latest progress snapshot, with live-follow support
// (spec §4.B).
package buffer

import (
	"sync"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/executor"
)

// Line is one buffered unit of process output.
type Line struct {
	Text      string
	StreamTag string
	Timestamp time.Time
	Progress  *executor.Progress
}

// jobBuffer is the ring + live-follow state for a single job.
type jobBuffer struct {
	mu       sync.Mutex
	lines    []Line
	capacity int
	progress *executor.Progress
	closed   bool
	live     map[int64]chan Line
	nextSub  int64
}

func newJobBuffer(capacity int) *jobBuffer {
	return &jobBuffer{
		capacity: capacity,
		live:     make(map[int64]chan Line),
	}
}

func (b *jobBuffer) append(line Line) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.lines = append(b.lines, line)
	if len(b.lines) > b.capacity {
		b.lines = b.lines[len(b.lines)-b.capacity:]
	}
	if line.Progress != nil {
		b.progress = line.Progress
	}
	for _, ch := range b.live {
		select {
		case ch <- line:
		default:
			// A follower that can't keep up misses intermediate lines but
			// the buffered replay on (re)subscribe still has the tail.
		}
	}
}

func (b *jobBuffer) setProgress(p *executor.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.progress = p
}

func (b *jobBuffer) snapshot(tailN int) (lines []Line, progress *executor.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.lines)
	if tailN > 0 && tailN < n {
		n = tailN
	}
	out := make([]Line, n)
	copy(out, b.lines[len(b.lines)-n:])
	return out, b.progress
}

func (b *jobBuffer) subscribe() (<-chan Line, []Line, func()) {
	b.mu.Lock()
	backlog := make([]Line, len(b.lines))
	copy(backlog, b.lines)

	if b.closed {
		b.mu.Unlock()
		ch := make(chan Line)
		close(ch)
		return ch, backlog, func() {}
	}

	id := b.nextSub
	b.nextSub++
	ch := make(chan Line, 256)
	b.live[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.live[id]; ok {
			delete(b.live, id)
			close(existing)
		}
	}
	return ch, backlog, unsubscribe
}

func (b *jobBuffer) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.live {
		delete(b.live, id)
		close(ch)
	}
}

// Store owns one ring per job id.
type Store struct {
	mu       sync.Mutex
	buffers  map[string]*jobBuffer
	capacity int
}

// NewStore constructs an empty Store. capacity bounds each job's ring
// (spec §4.B default: 1000).
func NewStore(capacity int) *Store {
	return &Store{buffers: make(map[string]*jobBuffer), capacity: capacity}
}

// Create registers job_id's ring if it doesn't already exist. Idempotent.
func (s *Store) Create(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buffers[jobID]; ok {
		return
	}
	s.buffers[jobID] = newJobBuffer(s.capacity)
}

// Append adds a line to job_id's ring, dropping the oldest line on overflow.
// It is a no-op if Create was never called for job_id.
func (s *Store) Append(jobID, text, streamTag string, progress *executor.Progress) {
	s.mu.Lock()
	b, ok := s.buffers[jobID]
	s.mu.Unlock()
	if !ok {
		return
	}
	b.append(Line{Text: text, StreamTag: streamTag, Timestamp: time.Now(), Progress: progress})
}

// SetProgress updates job_id's latest progress snapshot without adding an
// entry to its output ring, for the common case where a raw line already
// appended via Append also parses as a progress update (spec §4.A/§4.B:
// one Borg output line, one buffered entry, one progress snapshot). It is
// a no-op if Create was never called for job_id.
func (s *Store) SetProgress(jobID string, progress *executor.Progress) {
	s.mu.Lock()
	b, ok := s.buffers[jobID]
	s.mu.Unlock()
	if !ok {
		return
	}
	b.setProgress(progress)
}

// Snapshot returns at most tailN of the newest lines for job_id plus the
// latest progress snapshot. tailN <= 0 means "all buffered lines".
func (s *Store) Snapshot(jobID string, tailN int) ([]Line, *executor.Progress, bool) {
	s.mu.Lock()
	b, ok := s.buffers[jobID]
	s.mu.Unlock()
	if !ok {
		return nil, nil, false
	}
	lines, progress := b.snapshot(tailN)
	return lines, progress, true
}

// Follow returns already-buffered lines first, then live lines as they
// arrive, with no duplication between the two. Live lines are delivered
// without blocking the producer: while a follower's 256-line channel is
// full, further lines are not sent to it, so a follower that falls behind
// sees a gap in the live stream. The returned unsubscribe func must be
// called once the caller stops consuming; it is safe to call multiple
// times. ok is false if job_id has no buffer.
func (s *Store) Follow(jobID string) (live <-chan Line, backlog []Line, unsubscribe func(), ok bool) {
	s.mu.Lock()
	b, exists := s.buffers[jobID]
	s.mu.Unlock()
	if !exists {
		return nil, nil, func() {}, false
	}
	live, backlog, unsubscribe = b.subscribe()
	return live, backlog, unsubscribe, true
}

// Clear discards job_id's buffer and disconnects any live followers
// (spec §4.B, used during Manager cleanup).
func (s *Store) Clear(jobID string) {
	s.mu.Lock()
	b, ok := s.buffers[jobID]
	delete(s.buffers, jobID)
	s.mu.Unlock()
	if ok {
		b.close()
	}
}
