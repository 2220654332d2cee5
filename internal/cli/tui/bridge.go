package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/mlapaglia/borgitory-go/internal/events"
)

// Bridge converts events.Event values from a Manager's Broadcaster into
// tea.Msg values and forwards them to a running program (spec §4.C).
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a new bridge for the given program.
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Handler returns an event handler suitable for draining a FollowEvents
// channel into this bridge's program.
func (b *Bridge) Handler() func(events.Event) {
	return func(evt events.Event) {
		if msg := b.eventToMsg(evt); msg != nil {
			b.program.Send(msg)
		}
	}
}

func (b *Bridge) eventToMsg(evt events.Event) tea.Msg {
	switch evt.Type {
	case events.JobStarted:
		return JobStartedMsg{JobID: evt.JobID}

	case events.JobCompleted, events.JobFailed, events.JobCancelled:
		return JobDoneMsg{JobID: evt.JobID, Status: domain.Status(evt.Status), Error: evt.Error}

	case events.TaskStarted:
		idx := 0
		if evt.TaskIndex != nil {
			idx = *evt.TaskIndex
		}
		return TaskPhaseMsg{JobID: evt.JobID, Index: idx, Status: domain.StatusRunning}

	case events.TaskCompleted:
		idx := 0
		if evt.TaskIndex != nil {
			idx = *evt.TaskIndex
		}
		return TaskPhaseMsg{JobID: evt.JobID, Index: idx, Status: domain.StatusCompleted}

	case events.TaskFailed:
		idx := 0
		if evt.TaskIndex != nil {
			idx = *evt.TaskIndex
		}
		return TaskPhaseMsg{JobID: evt.JobID, Index: idx, Status: domain.StatusFailed}

	case events.JobProgress, events.TaskProgress:
		if evt.Progress == nil {
			return nil
		}
		return ProgressMsg{JobID: evt.JobID, NumFiles: evt.Progress.NumFiles, CurrentPath: evt.Progress.CurrentPath}

	case events.JobOutput:
		return LogMsg{Line: evt.Line}

	default:
		return nil
	}
}

// SendDone sends a DoneMsg to the program.
func (b *Bridge) SendDone() { b.program.Send(DoneMsg{}) }

// SendQuit sends a QuitMsg to the program.
func (b *Bridge) SendQuit() { b.program.Send(QuitMsg{}) }
