package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// View implements tea.Model
func (m *Model) View() string {
	if m.Done || m.Quitting {
		return ""
	}

	showLogs := m.ShowLogs || len(m.LogLines) > 0
	if m.Height <= 0 || !showLogs {
		return m.renderBaseView()
	}
	logHeight := m.Height / 2
	if logHeight < 3 {
		return m.renderBaseView()
	}
	topHeight := m.Height - logHeight

	top := m.renderTopArea(topHeight)
	logs := m.renderLogArea(logHeight)

	if logs == "" {
		return top
	}

	return top + "\n" + logs
}

func (m *Model) renderBaseView() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderJobs())
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderTopArea(height int) string {
	if height <= 0 {
		return ""
	}

	header := m.renderHeader()
	status := m.renderStatusLine()
	footer := m.renderFooter()
	active := strings.TrimRight(m.renderJobs(), "\n")
	activeLines := []string{}
	if active != "" {
		activeLines = strings.Split(active, "\n")
	}

	lines := []string{header}
	if height >= 4 {
		lines = append(lines, "")
	}

	reserved := 2
	remaining := height - len(lines) - reserved
	if remaining < 0 {
		remaining = 0
	}
	if len(activeLines) > remaining {
		activeLines = activeLines[:remaining]
	}
	lines = append(lines, activeLines...)
	lines = append(lines, status)
	lines = append(lines, footer)

	return padOrTrim(lines, height)
}

func (m *Model) renderLogArea(height int) string {
	if height <= 0 {
		return ""
	}

	lines := make([]string, 0, height)
	lines = append(lines, m.renderLogHeader())

	visible := height - 1
	logLines := m.tailLogLines(visible)
	for _, line := range logLines {
		lines = append(lines, m.Styles.LogLine.Render(m.truncateLine(line)))
	}

	return padOrTrim(lines, height)
}

func (m *Model) renderLogHeader() string {
	width := m.Width
	if width <= 0 {
		return m.Styles.LogTitle.Render("Output")
	}
	title := " Output "
	if len(title) >= width {
		return m.Styles.LogTitle.Render(title)
	}
	left := (width - len(title)) / 2
	right := width - len(title) - left
	return m.Styles.LogTitle.Render(strings.Repeat("─", left) + title + strings.Repeat("─", right))
}

func (m *Model) tailLogLines(max int) []string {
	if max <= 0 {
		return nil
	}
	if len(m.LogLines) == 0 {
		return []string{"(no output yet)"}
	}
	if len(m.LogLines) <= max {
		return m.LogLines
	}
	return m.LogLines[len(m.LogLines)-max:]
}

func (m *Model) truncateLine(line string) string {
	if m.Width <= 0 {
		return line
	}
	if len(line) <= m.Width {
		return line
	}
	if m.Width <= 3 {
		return line[:m.Width]
	}
	return line[:m.Width-3] + "..."
}

func padOrTrim(lines []string, height int) string {
	if height <= 0 {
		return ""
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderHeader renders the title line with the elapsed timer.
func (m *Model) renderHeader() string {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	timer := fmt.Sprintf("[%s]", formatDuration(elapsed))

	return fmt.Sprintf("%s  %s",
		m.Styles.Title.Render("Borgitory Job Monitor"),
		m.Styles.Timer.Render(timer),
	)
}

// renderJobs renders every watched job's task progress.
func (m *Model) renderJobs() string {
	if len(m.Jobs) == 0 {
		return "  No jobs being watched\n\n"
	}

	var b strings.Builder

	ids := make([]string, 0, len(m.Jobs))
	for id := range m.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		b.WriteString(m.renderJob(m.Jobs[id]))
		b.WriteString("\n")
	}

	return b.String()
}

// renderJob renders a single job's task progress bar and current-task line.
func (m *Model) renderJob(job *JobState) string {
	var b strings.Builder

	icon := m.iconForJobStatus(job)
	name := m.Styles.JobName.Render(job.ID)
	completed := job.completedTasks()
	progress := m.renderProgressBar(completed, len(job.Tasks), 20)
	taskCount := fmt.Sprintf("%d/%d tasks", completed, len(job.Tasks))

	fmt.Fprintf(&b, "  %s %s %s %s\n", icon, name, progress, taskCount)

	if current := job.currentTask(); current != nil {
		phaseIcon := m.Styles.PhaseIcon.Render(iconForTaskKind(string(current.Kind)))
		phaseText := m.Styles.PhaseText.Render(fmt.Sprintf("#%d %s: %s", job.CurrentTaskIndex, current.Name, current.Status))
		fmt.Fprintf(&b, "      %s %s\n", phaseIcon, phaseText)
		if job.NumFiles > 0 || job.CurrentPath != "" {
			detail := fmt.Sprintf("%d files", job.NumFiles)
			if job.CurrentPath != "" {
				detail += "  " + job.CurrentPath
			}
			fmt.Fprintf(&b, "      %s\n", m.Styles.PhaseText.Render(detail))
		}
	}
	if job.Error != "" {
		fmt.Fprintf(&b, "      %s\n", m.Styles.JobFailed.Render(job.Error))
	}

	return b.String()
}

func (j *JobState) currentTask() *TaskInfo {
	if j.CurrentTaskIndex < 0 || j.CurrentTaskIndex >= len(j.Tasks) {
		return nil
	}
	return &j.Tasks[j.CurrentTaskIndex]
}

func (m *Model) iconForJobStatus(job *JobState) string {
	switch job.Status {
	case "completed":
		return m.Styles.JobComplete.Render(IconComplete)
	case "failed", "cancelled":
		return m.Styles.JobFailed.Render(IconFailed)
	default:
		return m.Styles.JobActive.Render(IconActive)
	}
}

// renderProgressBar creates a progress bar of the given width
func (m *Model) renderProgressBar(completed, total, width int) string {
	if total == 0 {
		total = 1
	}

	filled := min((completed*width)/total, width)

	filledStr := strings.Repeat("█", filled)
	emptyStr := strings.Repeat("░", width-filled)

	return "[" +
		m.Styles.ProgressFilled.Render(filledStr) +
		m.Styles.ProgressEmpty.Render(emptyStr) +
		"]"
}

// renderStatusLine renders the summary status line
func (m *Model) renderStatusLine() string {
	activeCount := 0
	for _, j := range m.Jobs {
		if !j.Status.IsTerminal() {
			activeCount++
		}
	}

	complete := m.Styles.StatusComplete.Render(fmt.Sprintf("%d complete", m.CompletedJobs))
	failed := m.Styles.StatusFailed.Render(fmt.Sprintf("%d failed", m.FailedJobs))
	active := m.Styles.StatusActive.Render(fmt.Sprintf("%d active", activeCount))

	return fmt.Sprintf("  Jobs: %d/%d %s | %s | %s",
		m.CompletedJobs+m.FailedJobs,
		len(m.Jobs),
		complete,
		failed,
		active,
	)
}

// renderFooter renders the help text
func (m *Model) renderFooter() string {
	key := m.Styles.FooterKey.Render("q")
	return m.Styles.Footer.Render(fmt.Sprintf("  Press %s to quit", key))
}

// formatDuration formats a duration as HH:MM:SS
func formatDuration(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
