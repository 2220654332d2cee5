package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the watch view.
type Styles struct {
	Title lipgloss.Style
	Timer lipgloss.Style

	JobActive   lipgloss.Style
	JobComplete lipgloss.Style
	JobFailed   lipgloss.Style
	JobName     lipgloss.Style

	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style

	PhaseIcon lipgloss.Style
	PhaseText lipgloss.Style

	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	StatusComplete lipgloss.Style
	StatusFailed   lipgloss.Style
	StatusActive   lipgloss.Style

	LogTitle lipgloss.Style
	LogLine  lipgloss.Style
}

// DefaultStyles returns the default watch-view styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		JobActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		JobComplete: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		JobFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		JobName:     lipgloss.NewStyle().Bold(true),

		ProgressFilled: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		ProgressEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),

		PhaseIcon: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		PhaseText: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),

		StatusComplete: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		StatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		StatusActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),

		LogTitle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true),
		LogLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Icons used in the watch view.
const (
	IconActive   = "●"
	IconComplete = "✓"
	IconFailed   = "✗"
	IconWaiting  = "⏳"

	IconBackup       = "📦"
	IconPrune        = "✂"
	IconCheck        = "🔍"
	IconCloudSync    = "☁"
	IconNotification = "🔔"
)

// iconForTaskKind maps a task kind to the glyph shown next to its phase
// line; unrecognized kinds (there are none today, but ValidateTaskParams
// rejects those before a job reaches this view) fall back to IconWaiting.
func iconForTaskKind(kind string) string {
	switch kind {
	case "backup":
		return IconBackup
	case "prune":
		return IconPrune
	case "check":
		return IconCheck
	case "cloud_sync":
		return IconCloudSync
	case "notification":
		return IconNotification
	default:
		return IconWaiting
	}
}
