// Package manager is the Job Manager: it composes the Process Executor,
// Output Buffer, Event Broadcaster, Queue & Admission, and Database
// Journal into simple (single-command) and composite (ordered task list)
// jobs, drives the state machine, and emits events (spec §4.F).
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/buffer"
	"github.com/mlapaglia/borgitory-go/internal/config"
	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/mlapaglia/borgitory-go/internal/events"
	"github.com/mlapaglia/borgitory-go/internal/executor"
	"github.com/mlapaglia/borgitory-go/internal/queue"
	"github.com/mlapaglia/borgitory-go/internal/store"
	"github.com/oklog/ulid/v2"
)

// Journal is the narrow persistence seam the Manager depends on
// (spec §4.E). *store.Store satisfies it; tests substitute a fake.
type Journal interface {
	CreateJobRow(store.JobSnapshot) error
	UpdateJobStatus(jobID string, status domain.Status, finishTime *time.Time, returnCode *int, errMsg string) error
	UpdateCurrentTaskIndex(jobID string, index int) error
	UpsertTaskRow(jobID string, taskIndex int, t store.TaskSnapshot) error
	LoadConfig(kind, id string) (store.ConfigFields, error)
	LoadRepository(id string) (*store.RepositoryRecord, error)
}

// runningJob is the Manager's private bookkeeping for a job in flight.
type runningJob struct {
	job         *domain.Job
	cancel      context.CancelFunc
	cancelled   bool
	broadcaster *events.Broadcaster

	// handle is the currently executing task's process handle, set by
	// runAndStream for the duration of that process and cleared once it
	// exits. Cancel uses it to terminate the child directly instead of
	// relying on the job's context teardown.
	handle *executor.Handle
}

// Manager is the orchestrator described by spec §4.F. Exactly one Core
// value owns one Manager (spec §9, "replace global singletons").
type Manager struct {
	cfg      *config.Config
	journal  Journal
	queue    *queue.Queue
	buffers  *buffer.Store
	registry *events.Registry
	runner   executor.Runner

	mu   sync.RWMutex
	jobs map[string]*runningJob
}

// New constructs a Manager wired to its collaborators. The Queue's
// callbacks are registered here, completing the wiring spec §4.D
// describes ("on_job_start_callback, on_job_complete_callback — set once
// by the Manager").
func New(cfg *config.Config, journal Journal, q *queue.Queue, buffers *buffer.Store, registry *events.Registry, runner executor.Runner) *Manager {
	m := &Manager{
		cfg:      cfg,
		journal:  journal,
		queue:    q,
		buffers:  buffers,
		registry: registry,
		runner:   runner,
		jobs:     make(map[string]*runningJob),
	}
	m.queue.SetCallbacks(m.onQueueStart, m.onQueueComplete)
	return m
}

func newJobID() string {
	return ulid.Make().String()
}

// SubmitSimple creates and enqueues a single-task job (spec §4.F,
// "simple" jobs: manual_backup, prune, check, cloud_sync).
func (m *Manager) SubmitSimple(kind domain.Kind, repositoryID string, taskKind domain.TaskKind, params map[string]any) (string, error) {
	if err := domain.ValidateTaskParams(taskKind, params); err != nil {
		return "", err
	}
	return m.submit(kind, repositoryID, "", false, []domain.TaskTemplate{{
		Kind: taskKind, Name: string(taskKind), Params: params,
	}})
}

// SubmitComposite creates and enqueues an ordered pipeline of tasks under
// the given job kind (spec §6, "submit_composite(kind, tasks,
// repository_id, schedule_id?)"). kind is caller-supplied rather than
// fixed to "composite" so a schedule's trigger can submit its pipeline as
// scheduled_backup, which classFor treats as backup-class work, while an
// ad-hoc operator pipeline submits as plain composite.
func (m *Manager) SubmitComposite(kind domain.Kind, repositoryID, scheduleID string, tasks []domain.TaskTemplate) (string, error) {
	if len(tasks) == 0 {
		return "", domain.NewSubmitError("composite job must have at least one task")
	}
	for _, t := range tasks {
		if err := domain.ValidateTaskParams(t.Kind, t.Params); err != nil {
			return "", err
		}
	}
	return m.submit(kind, repositoryID, scheduleID, true, tasks)
}

func (m *Manager) submit(kind domain.Kind, repositoryID, scheduleID string, composite bool, templates []domain.TaskTemplate) (string, error) {
	if repositoryID != "" {
		if _, err := m.journal.LoadRepository(repositoryID); err != nil {
			return "", fmt.Errorf("%w: unknown repository %q", domain.ErrSubmit, repositoryID)
		}
	}

	for _, t := range templates {
		if err := resolveConfigRefs(m.journal, t); err != nil {
			return "", err
		}
	}

	jobID := newJobID()
	now := time.Now()

	tasks := make([]*domain.Task, len(templates))
	for i, t := range templates {
		tasks[i] = &domain.Task{Kind: t.Kind, Name: t.Name, Status: domain.StatusPending, Params: t.Params}
	}

	job := &domain.Job{
		ID:           jobID,
		Kind:         kind,
		Status:       domain.StatusQueued,
		RepositoryID: repositoryID,
		ScheduleID:   scheduleID,
		Composite:    composite,
		Tasks:        tasks,
		CreatedAt:    now,
	}
	if err := job.Validate(); err != nil {
		return "", err
	}

	if err := m.journal.CreateJobRow(store.JobSnapshot{
		ID: jobID, Kind: kind, Status: domain.StatusQueued, RepositoryID: repositoryID,
		ScheduleID: scheduleID, Composite: composite, CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("%w: journal write failed: %v", domain.ErrSubmit, err)
	}

	m.buffers.Create(jobID)
	broadcaster := m.registry.Open(jobID)

	m.mu.Lock()
	m.jobs[jobID] = &runningJob{job: job, broadcaster: broadcaster}
	m.mu.Unlock()

	class := classFor(kind)
	m.queue.Enqueue(jobID, class, 0)

	logger.Printf("job %s submitted (kind=%s, repository=%q, tasks=%d)", jobID, kind, repositoryID, len(tasks))
	return jobID, nil
}

func classFor(kind domain.Kind) queue.Class {
	switch kind {
	case domain.KindManualBackup, domain.KindScheduledBackup:
		return queue.ClassBackup
	default:
		return queue.ClassOperation
	}
}

// resolveConfigRefs expands any *_config_id referenced by a task's params
// into its stored fields, failing submission if the config doesn't exist
// or is disabled (spec §3, Cleanup/CloudSync/Notification/Check config
// invariant).
func resolveConfigRefs(j Journal, t domain.TaskTemplate) error {
	var key string
	switch t.Kind {
	case domain.TaskCloudSync:
		key = "cloud_sync_config_id"
	case domain.TaskNotification:
		key = "notification_config_id"
	default:
		return nil
	}
	id, _ := t.Params[key].(string)
	if id == "" {
		return nil
	}
	fields, err := j.LoadConfig(string(t.Kind), id)
	if err != nil {
		return fmt.Errorf("%w: referenced config %q is unknown or disabled", domain.ErrSubmit, id)
	}
	for k, v := range fields {
		if _, exists := t.Params[k]; !exists {
			t.Params[k] = v
		}
	}
	return nil
}

// Get returns a snapshot of jobID's current state, or false if it is not
// tracked in memory (either never submitted or already cleaned up).
func (m *Manager) Get(jobID string) (*domain.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rj, ok := m.jobs[jobID]
	if !ok {
		return nil, false
	}
	return rj.job.DeepCopy(), true
}

// List returns a snapshot of every job this Manager instance currently
// tracks in memory (spec §4.F debug surface). It never reaches into the
// journal, so jobs submitted by a different process or already evicted by
// AutoCleanupDelay are not included; internal/store's ListJobRows covers
// that cross-process view instead.
func (m *Manager) List() []*domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Job, 0, len(m.jobs))
	for _, rj := range m.jobs {
		out = append(out, rj.job.DeepCopy())
	}
	return out
}

// GetOutput returns the buffered output tail and latest progress for
// jobID (spec §4.B, snapshot).
func (m *Manager) GetOutput(jobID string, tailN int) ([]buffer.Line, *executor.Progress, bool) {
	return m.buffers.Snapshot(jobID, tailN)
}

// FollowOutput streams jobID's output, buffered lines first then live
// (spec §4.B, follow).
func (m *Manager) FollowOutput(jobID string) (<-chan buffer.Line, []buffer.Line, func(), bool) {
	return m.buffers.Follow(jobID)
}

// FollowEvents subscribes to jobID's typed event stream (spec §4.C).
func (m *Manager) FollowEvents(jobID string) (<-chan events.Event, func(), bool) {
	m.mu.RLock()
	rj, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return nil, func() {}, false
	}
	ch, unsubscribe := rj.broadcaster.Subscribe()
	return ch, unsubscribe, true
}

// FollowAllEvents subscribes to every job's event stream at once, the
// job_id-less form of follow_events spec.md describes for a live dashboard
// watching every job in flight rather than one at a time (spec §4.C).
func (m *Manager) FollowAllEvents() (<-chan events.Event, func()) {
	return m.registry.SubscribeAll()
}

// QueueStats reports current queue depth and free capacity (spec §4.D).
func (m *Manager) QueueStats() queue.Stats {
	return m.queue.Stats()
}

// Cancel requests cancellation of jobID. A queued job is removed from the
// FIFO without ever starting; a running job has its current child process
// terminated. Returns domain.ErrJobNotCancellable if jobID is already
// terminal (spec §8, "cancel on an already-terminal job is a no-op
// returning false").
func (m *Manager) Cancel(jobID string) (bool, error) {
	m.mu.Lock()
	rj, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return false, nil
	}
	if rj.job.IsTerminal() {
		m.mu.Unlock()
		return false, domain.ErrJobNotCancellable
	}
	rj.cancelled = true
	wasQueued := rj.job.Status == domain.StatusQueued
	cancelFn := rj.cancel
	handle := rj.handle
	m.mu.Unlock()

	if wasQueued {
		// A job still sitting in the Queue's FIFO was never admitted, so it
		// never incremented the class's in-flight count; removing it here
		// must not call Release, which would free a slot it never held.
		if m.queue.Cancel(jobID) {
			m.finishTerminal(jobID, domain.StatusCancelled, nil, "cancelled before start")
		}
		logger.Printf("job %s cancelled while queued", jobID)
		return true, nil
	}

	if cancelFn != nil {
		cancelFn()
	}
	// The running child, if any, is stopped through the Process Executor's
	// own polite-termination contract (SIGTERM, then SIGKILL after grace)
	// rather than by cancelling its context, which exec.CommandContext
	// would otherwise turn into an immediate SIGKILL. Asynchronous so
	// Cancel returns without waiting out the grace period.
	if handle != nil {
		go m.runner.Terminate(handle, m.cfg.TerminateGrace)
	}
	logger.Printf("job %s cancel requested", jobID)
	return true, nil
}
