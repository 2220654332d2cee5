package events

import (
	"sync"
	"time"
)

// Registry owns the live Broadcaster for each job that currently has one.
// The Manager creates an entry when a job is submitted and removes it at
// the job's auto-cleanup, AutoCleanupDelay after the job reached a
// terminal status (spec §4.C, §4.F). It also owns the
// all-jobs fan-in stream every per-job Broadcaster feeds into, the global
// event subscription spec.md's follow_events() (no job_id argument)
// describes for driving a live multi-job dashboard.
type Registry struct {
	mu           sync.RWMutex
	broadcasters map[string]*Broadcaster
	bufSize      int
	keepalive    time.Duration

	globalMu   sync.RWMutex
	globalSubs map[int64]*subscriber
	globalNext int64
}

// NewRegistry constructs an empty Registry. bufSize and keepalive are
// forwarded to every Broadcaster it creates via Open.
func NewRegistry(bufSize int, keepalive time.Duration) *Registry {
	return &Registry{
		broadcasters: make(map[string]*Broadcaster),
		bufSize:      bufSize,
		keepalive:    keepalive,
		globalSubs:   make(map[int64]*subscriber),
	}
}

// Open creates (or returns the existing) Broadcaster for jobID, wiring it
// to also fan its events out to any all-jobs subscriber.
func (r *Registry) Open(jobID string) *Broadcaster {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.broadcasters[jobID]; ok {
		return b
	}
	b := NewBroadcaster(jobID, r.bufSize, r.keepalive)
	b.onPublish = r.fanOut
	r.broadcasters[jobID] = b
	return b
}

// fanOut delivers e to every all-jobs subscriber. Never blocks, for the
// same reason Broadcaster.Publish doesn't: a slow dashboard subscriber
// drops its oldest buffered event instead of stalling the job goroutine
// that published it.
func (r *Registry) fanOut(e Event) {
	r.globalMu.RLock()
	defer r.globalMu.RUnlock()
	for _, sub := range r.globalSubs {
		sub.send(e)
	}
}

// SubscribeAll registers a listener across every job's events, live-only
// (there is no buffered snapshot to replay, since events from jobs that
// finished before this call span every Broadcaster that ever existed, not
// just currently open ones). Mirrors Broadcaster.Subscribe's shape.
func (r *Registry) SubscribeAll() (<-chan Event, func()) {
	r.globalMu.Lock()
	id := r.globalNext
	r.globalNext++
	sub := newSubscriber(r.bufSize)
	r.globalSubs[id] = sub
	r.globalMu.Unlock()

	unsubscribe := func() {
		r.globalMu.Lock()
		delete(r.globalSubs, id)
		r.globalMu.Unlock()
		sub.close()
	}
	return sub.ch, unsubscribe
}

// Lookup returns the Broadcaster for jobID, if one is currently open.
func (r *Registry) Lookup(jobID string) (*Broadcaster, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.broadcasters[jobID]
	return b, ok
}

// Publish is a convenience that opens the job's broadcaster if needed and
// publishes e to it.
func (r *Registry) Publish(jobID string, e Event) {
	r.Open(jobID).Publish(e)
}

// Close tears down and forgets the Broadcaster for jobID, if any.
func (r *Registry) Close(jobID string) {
	r.mu.Lock()
	b, ok := r.broadcasters[jobID]
	delete(r.broadcasters, jobID)
	r.mu.Unlock()
	if ok {
		b.Close()
	}
}
