package manager

import (
	"context"
	"sync"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/mlapaglia/borgitory-go/internal/executor"
	"github.com/mlapaglia/borgitory-go/internal/store"
)

// fakeJournal is an in-memory stand-in for *store.Store, scoped to exactly
// the Journal seam the Manager depends on.
type fakeJournal struct {
	mu        sync.Mutex
	jobs      map[string]store.JobSnapshot
	tasks     map[string]map[int]store.TaskSnapshot
	repos     map[string]store.RepositoryRecord
	configs   map[string]store.ConfigFields
	disabled  map[string]bool
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{
		jobs:     make(map[string]store.JobSnapshot),
		tasks:    make(map[string]map[int]store.TaskSnapshot),
		repos:    make(map[string]store.RepositoryRecord),
		configs:  make(map[string]store.ConfigFields),
		disabled: make(map[string]bool),
	}
}

func (f *fakeJournal) CreateJobRow(j store.JobSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[j.ID] = j
	return nil
}

func (f *fakeJournal) UpdateJobStatus(jobID string, status domain.Status, finishTime *time.Time, returnCode *int, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.jobs[jobID]
	j.Status = status
	f.jobs[jobID] = j
	return nil
}

func (f *fakeJournal) UpdateCurrentTaskIndex(jobID string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.jobs[jobID]
	j.CurrentTaskIndex = index
	f.jobs[jobID] = j
	return nil
}

func (f *fakeJournal) UpsertTaskRow(jobID string, taskIndex int, t store.TaskSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tasks[jobID] == nil {
		f.tasks[jobID] = make(map[int]store.TaskSnapshot)
	}
	f.tasks[jobID][taskIndex] = t
	return nil
}

func (f *fakeJournal) LoadConfig(kind, id string) (store.ConfigFields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := kind + ":" + id
	if f.disabled[key] {
		return nil, domain.ErrNotFound
	}
	fields, ok := f.configs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return fields, nil
}

func (f *fakeJournal) LoadRepository(id string) (*store.RepositoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.repos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// scriptedRun is one canned response for a single Start/Monitor pair.
type scriptedRun struct {
	lines   []string
	code    int
	err     error
	block   chan struct{} // if non-nil, Monitor blocks until it is closed (by the test or Terminate) or ctx is done
}

// fakeRunner hands out scripted responses to Start/Monitor calls in order;
// once exhausted it repeats the last one. Start and Monitor are called in
// strict 1:1 pairs by runAndStream, so the same counter indexes both the
// script and the handle returned to that call's caller.
type fakeRunner struct {
	mu             sync.Mutex
	scripts        []scriptedRun
	ctxs           []context.Context
	handles        []*executor.Handle
	calls          int
	gotArgv        [][]string
	terminateCalls []*executor.Handle
	terminateGrace []time.Duration
}

func (f *fakeRunner) Start(ctx context.Context, command []string, envOverlay map[string]string, cwd string) (*executor.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotArgv = append(f.gotArgv, command)
	f.ctxs = append(f.ctxs, ctx)
	h := &executor.Handle{}
	f.handles = append(f.handles, h)
	return h, nil
}

func (f *fakeRunner) Monitor(h *executor.Handle, onLine executor.LineFunc, onProgress executor.ProgressFunc) executor.Result {
	f.mu.Lock()
	idx := f.calls
	if idx >= len(f.scripts) {
		idx = len(f.scripts) - 1
	}
	s := f.scripts[idx]
	ctx := f.ctxs[idx]
	f.calls++
	f.mu.Unlock()

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return executor.Result{ReturnCode: -1, Err: ctx.Err()}
		}
	}
	for _, l := range s.lines {
		onLine(l, "stdout")
	}
	return executor.Result{ReturnCode: s.code, Err: s.err}
}

// Terminate records the call and, for the scripted run matching h, unblocks
// it the way a real SIGTERM/SIGKILL would stop a blocked child process.
func (f *fakeRunner) Terminate(h *executor.Handle, grace time.Duration) {
	f.mu.Lock()
	f.terminateCalls = append(f.terminateCalls, h)
	f.terminateGrace = append(f.terminateGrace, grace)
	idx := -1
	for i, hh := range f.handles {
		if hh == h {
			idx = i
			break
		}
	}
	f.mu.Unlock()

	if idx < 0 || idx >= len(f.scripts) {
		return
	}
	if b := f.scripts[idx].block; b != nil {
		select {
		case <-b:
		default:
			close(b)
		}
	}
}
