package events

import "time"

// Type identifies an event category (spec §4.C).
type Type string

const (
	JobStarted       Type = "job.started"
	JobProgress      Type = "job.progress"
	JobOutput        Type = "job.output"
	JobStatusChanged Type = "job.status_changed"
	JobCompleted     Type = "job.completed"
	JobFailed        Type = "job.failed"
	JobCancelled     Type = "job.cancelled"
	TaskStarted      Type = "task.started"
	TaskProgress     Type = "task.progress"
	TaskCompleted    Type = "task.completed"
	TaskFailed       Type = "task.failed"
	Keepalive        Type = "keepalive"
)

// Event is a single occurrence broadcast to subscribers.
type Event struct {
	Time time.Time `json:"time"`
	Type Type      `json:"type"`

	JobID     string    `json:"job_id,omitempty"`
	TaskIndex *int      `json:"task_index,omitempty"`
	Line      string    `json:"line,omitempty"`
	StreamTag string    `json:"stream_tag,omitempty"`
	Progress  *Progress `json:"progress,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Progress is the parsed numeric/path snapshot from a Borg progress line
// (spec §4.A).
type Progress struct {
	OriginalBytes     int64
	CompressedBytes   int64
	DeduplicatedBytes int64
	NumFiles          int64
	CurrentPath       string

	ArchiveName        string
	ArchiveFingerprint string
	TimeStart          string
	TimeEnd            string
}

// New builds an Event stamped with the current time.
func New(typ Type, jobID string) Event {
	return Event{Time: time.Now(), Type: typ, JobID: jobID}
}

// WithTask returns a copy of the event tagged with a task index.
func (e Event) WithTask(idx int) Event {
	e.TaskIndex = &idx
	return e
}

// WithLine returns a copy of the event carrying an output line.
func (e Event) WithLine(line, streamTag string) Event {
	e.Line = line
	e.StreamTag = streamTag
	return e
}

// WithProgress returns a copy of the event carrying a progress snapshot.
func (e Event) WithProgress(p *Progress) Event {
	e.Progress = p
	return e
}

// WithStatus returns a copy of the event carrying a status string.
func (e Event) WithStatus(status string) Event {
	e.Status = status
	return e
}

// WithError returns a copy of the event carrying an error message.
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
