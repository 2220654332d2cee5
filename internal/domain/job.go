package domain

import (
	"time"
)

// Status is the lifecycle state shared by jobs and tasks (spec §3).
type Status string

const (
	StatusPending   Status = "pending"
	StatusQueued    Status = "queued" // job-only
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusSkipped   Status = "skipped" // task-only
)

// IsTerminal reports whether status is one from which no further
// transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusSkipped:
		return true
	default:
		return false
	}
}

// Kind enumerates the job kinds spec §3 names.
type Kind string

const (
	KindManualBackup    Kind = "manual_backup"
	KindScheduledBackup Kind = "scheduled_backup"
	KindPrune           Kind = "prune"
	KindCheck           Kind = "check"
	KindCloudSync       Kind = "cloud_sync"
	KindComposite       Kind = "composite"
)

// TaskKind enumerates the task kinds a composite job may contain (spec §4.F).
type TaskKind string

const (
	TaskBackup       TaskKind = "backup"
	TaskPrune        TaskKind = "prune"
	TaskCheck        TaskKind = "check"
	TaskCloudSync    TaskKind = "cloud_sync"
	TaskNotification TaskKind = "notification"
)

// Job is a unit of user-visible work: either a single wrapped command
// (simple) or an ordered list of Tasks (composite). See spec §3.
type Job struct {
	ID        string
	Kind      Kind
	Status    Status
	StartTime time.Time
	FinishTime *time.Time
	ReturnCode *int
	Error      string

	RepositoryID string // empty for pure-utility jobs
	ScheduleID   string // empty unless triggered by a Schedule

	Composite        bool
	Tasks            []*Task
	CurrentTaskIndex int

	// CreatedAt records submission time, independent of StartTime (which
	// is only set once the job transitions to running).
	CreatedAt time.Time
}

// Task is a single step within a composite Job (spec §3).
type Task struct {
	Kind       TaskKind
	Name       string
	Status     Status
	Params     map[string]any
	StartTime  *time.Time
	FinishTime *time.Time
	ReturnCode *int
	Error      string

	// OutputTail is a bounded snapshot of the task's own output, kept
	// after the job's shared Output Buffer entry is cleaned up.
	OutputTail []string
}

// IsRunning reports whether the job is actively executing.
func (j *Job) IsRunning() bool { return j.Status == StatusRunning }

// IsTerminal reports whether the job has reached a sticky terminal state.
func (j *Job) IsTerminal() bool { return j.Status.IsTerminal() }

// CurrentTask returns the task presently executing, or nil if none (job
// not composite, not running, or index out of range).
func (j *Job) CurrentTask() *Task {
	if !j.Composite || j.CurrentTaskIndex < 0 || j.CurrentTaskIndex >= len(j.Tasks) {
		return nil
	}
	return j.Tasks[j.CurrentTaskIndex]
}

// FirstFailedTaskIndex returns the index of the first task with status
// Failed, or -1 if none failed. Used to populate the user-visible
// "index of the first failed task" contract from spec §7.
func (j *Job) FirstFailedTaskIndex() int {
	for i, t := range j.Tasks {
		if t.Status == StatusFailed {
			return i
		}
	}
	return -1
}

// Validate checks the invariants in spec §3 that can be checked without
// external state (class/config lookups happen at the Manager layer).
func (j *Job) Validate() error {
	if j.Composite && len(j.Tasks) == 0 {
		return NewSubmitError("composite job must have at least one task")
	}
	return nil
}

// DeepCopy returns an independent copy safe to hand to readers while the
// Manager continues to mutate the original.
func (j *Job) DeepCopy() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.FinishTime != nil {
		t := *j.FinishTime
		cp.FinishTime = &t
	}
	if j.ReturnCode != nil {
		rc := *j.ReturnCode
		cp.ReturnCode = &rc
	}
	cp.Tasks = make([]*Task, len(j.Tasks))
	for i, t := range j.Tasks {
		cp.Tasks[i] = t.DeepCopy()
	}
	return &cp
}

// DeepCopy returns an independent copy of the task.
func (t *Task) DeepCopy() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.StartTime != nil {
		v := *t.StartTime
		cp.StartTime = &v
	}
	if t.FinishTime != nil {
		v := *t.FinishTime
		cp.FinishTime = &v
	}
	if t.ReturnCode != nil {
		v := *t.ReturnCode
		cp.ReturnCode = &v
	}
	cp.Params = make(map[string]any, len(t.Params))
	for k, v := range t.Params {
		cp.Params[k] = v
	}
	cp.OutputTail = append([]string(nil), t.OutputTail...)
	return &cp
}
