// Package tui implements the bubbletea live view `borgctl watch`
// attaches to: a scrolling grid of in-flight jobs, each
// rendered as a task progress bar plus the live file-count/path Borg
// reports on its progress stream (spec §4.A, §4.C).
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlapaglia/borgitory-go/internal/domain"
)

// TaskInfo is the static shape of one task in a job's pipeline, known up
// front from the submission template, plus the status fields the event
// stream fills in as it runs.
type TaskInfo struct {
	Kind   domain.TaskKind
	Name   string
	Status domain.Status
}

// JobState tracks one watched job's displayed progress.
type JobState struct {
	ID               string
	Kind             domain.Kind
	Status           domain.Status
	Tasks            []TaskInfo
	CurrentTaskIndex int
	NumFiles         int64
	CurrentPath      string
	Error            string
}

// completedTasks counts tasks already in a terminal, non-running state.
func (j *JobState) completedTasks() int {
	n := 0
	for _, t := range j.Tasks {
		if t.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// Model is the bubbletea model for the watch view.
type Model struct {
	Styles Styles

	Jobs          map[string]*JobState
	CompletedJobs int
	FailedJobs    int
	StartTime     time.Time

	LogLines []string
	LogLimit int
	ShowLogs bool

	Width  int
	Height int

	Quitting bool
	Done     bool
}

// NewModel creates a watch-view model seeded with the jobs it will track.
func NewModel(jobs map[string]*JobState) *Model {
	return &Model{
		Styles:    DefaultStyles(),
		Jobs:      jobs,
		StartTime: time.Now(),
		LogLimit:  500,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd())
}

// TickMsg is sent every second to advance the elapsed-time display.
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// DoneMsg signals every watched job reached a terminal state.
type DoneMsg struct{}

// QuitMsg signals the operator asked to quit early (q or Ctrl+C).
type QuitMsg struct{}

// JobStartedMsg indicates a watched job transitioned to running.
type JobStartedMsg struct {
	JobID string
}

// JobDoneMsg indicates a watched job reached a terminal status.
type JobDoneMsg struct {
	JobID  string
	Status domain.Status
	Error  string
}

// TaskPhaseMsg indicates the task at Index within JobID changed status.
type TaskPhaseMsg struct {
	JobID  string
	Index  int
	Status domain.Status
}

// ProgressMsg carries a live file-count/path update from a task's Borg
// progress stream.
type ProgressMsg struct {
	JobID       string
	NumFiles    int64
	CurrentPath string
}
