package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/autoops/sentinel-dash/internal/timeline"
)

var (
	Title     = lipgloss.NewStyle().Bold(true)
	TabActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7DCE13"))
	Tab       = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	Header    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	Footer    = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	Box       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	Danger    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	Warn      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	Good      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7AF"))
	Info      = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF"))
	Incident  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D787FF"))
	Faint     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	Stale     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")).Italic(true)
	Synthetic = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
	Line      = lipgloss.NewStyle().Foreground(lipgloss.Color("#0F9D58"))
	Band      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A6EA5"))
)

// ForTone picks the timeline row colour.
func ForTone(t timeline.Tone) lipgloss.Style {
	switch t {
	case timeline.ToneGood:
		return Good
	case timeline.ToneWarn:
		return Warn
	case timeline.ToneDanger:
		return Danger
	case timeline.ToneIncident:
		return Incident
	}
	return Info
}

