package tui

import tea "github.com/charmbracelet/bubbletea"

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Quitting = true
			return m, tea.Quit
		}

	case TickMsg:
		return m, tickCmd()

	case DoneMsg:
		m.Done = true
		return m, tea.Quit

	case QuitMsg:
		m.Quitting = true
		return m, tea.Quit

	case JobStartedMsg:
		if job, ok := m.Jobs[msg.JobID]; ok {
			job.Status = "running"
		}

	case JobDoneMsg:
		if job, ok := m.Jobs[msg.JobID]; ok {
			job.Status = msg.Status
			job.Error = msg.Error
			if msg.Status == "completed" {
				m.CompletedJobs++
			} else {
				m.FailedJobs++
			}
		}
		if m.allJobsTerminal() {
			m.Done = true
			return m, tea.Quit
		}

	case TaskPhaseMsg:
		if job, ok := m.Jobs[msg.JobID]; ok && msg.Index >= 0 && msg.Index < len(job.Tasks) {
			job.Tasks[msg.Index].Status = msg.Status
			job.CurrentTaskIndex = msg.Index
		}

	case ProgressMsg:
		if job, ok := m.Jobs[msg.JobID]; ok {
			job.NumFiles = msg.NumFiles
			job.CurrentPath = msg.CurrentPath
		}

	case LogMsg:
		m.LogLines = append(m.LogLines, msg.Line)
		if m.LogLimit > 0 && len(m.LogLines) > m.LogLimit {
			m.LogLines = m.LogLines[len(m.LogLines)-m.LogLimit:]
		}
	}

	return m, nil
}

// allJobsTerminal reports whether every watched job has reached a
// terminal status, so `borgctl watch` can exit
// on its own rather than waiting on a keypress.
func (m *Model) allJobsTerminal() bool {
	for _, job := range m.Jobs {
		if !job.Status.IsTerminal() {
			return false
		}
	}
	return true
}
