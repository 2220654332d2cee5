package events

import (
	"sync"
	"time"
)

// subscriber holds one subscriber's bounded delivery channel. Overflow is
// handled by dropping the oldest buffered event and pushing the new one in
// its place, so a slow consumer loses history rather than stalling the
// publisher (spec §4.C, §5).
type subscriber struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func newSubscriber(bufSize int) *subscriber {
	return &subscriber{ch: make(chan Event, bufSize)}
}

func (s *subscriber) send(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- e:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Broadcaster fans events for a single job out to any number of live
// subscribers (spec §4.C, "Event Broadcaster"). The Manager opens one per
// job when the job is submitted and tears it down at the job's
// auto-cleanup, whether or not followers are still attached.
type Broadcaster struct {
	mu           sync.RWMutex
	subs         map[int64]*subscriber
	nextID       int64
	bufSize      int
	keepalive    time.Duration
	jobID        string
	stopKeepalive chan struct{}

	// onPublish, if set by the owning Registry, additionally fans every
	// event out to that Registry's all-jobs subscribers.
	onPublish func(Event)
}

// New constructs a Broadcaster for jobID. bufSize bounds each subscriber's
// backlog; keepalive is the interval at which a Keepalive event is pushed to
// every subscriber so idle long-poll/SSE connections don't time out
// upstream. A zero keepalive disables the ticker.
func NewBroadcaster(jobID string, bufSize int, keepalive time.Duration) *Broadcaster {
	b := &Broadcaster{
		subs:      make(map[int64]*subscriber),
		bufSize:   bufSize,
		keepalive: keepalive,
		jobID:     jobID,
	}
	if keepalive > 0 {
		b.stopKeepalive = make(chan struct{})
		go b.runKeepalive()
	}
	return b
}

func (b *Broadcaster) runKeepalive() {
	ticker := time.NewTicker(b.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Publish(New(Keepalive, b.jobID))
		case <-b.stopKeepalive:
			return
		}
	}
}

// Subscribe registers a new listener and returns a receive-only channel of
// events plus an unsubscribe func. The channel is closed once Unsubscribe or
// Close runs; callers must drain it to avoid leaking the goroutine feeding
// it (there isn't one here, but symmetry with Close matters for callers that
// range over the channel).
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	sub := newSubscriber(b.bufSize)
	b.subs[id] = sub
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		sub.close()
	}
	return sub.ch, unsubscribe
}

// Publish delivers e to every current subscriber. Never blocks: a
// subscriber that can't keep up drops its oldest buffered event rather than
// stalling the job goroutine calling Publish. If this Broadcaster was
// opened through a Registry, e is also fanned out to that Registry's
// all-jobs subscribers.
func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	for _, sub := range b.subs {
		sub.send(e)
	}
	onPublish := b.onPublish
	b.mu.RUnlock()
	if onPublish != nil {
		onPublish(e)
	}
}

// SubscriberCount reports how many listeners are currently attached.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops the keepalive ticker and closes every subscriber channel. The
// Manager reaches it through Registry.Close when it cleans up a job,
// AutoCleanupDelay after the job reached a terminal status.
func (b *Broadcaster) Close() {
	if b.stopKeepalive != nil {
		close(b.stopKeepalive)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		sub.close()
		delete(b.subs, id)
	}
}
