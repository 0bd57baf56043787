package theme

import "github.com/charmbracelet/lipgloss"

var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface  = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext  = lipgloss.Color("#a6adc8")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")
	Blue     = lipgloss.Color("#89b4fa")
	Overlay  = lipgloss.Color("#6c7086")
	Sapphire = lipgloss.Color("#74c7ec")

	App = lipgloss.NewStyle().
		Foreground(Text).
		Padding(1, 2)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface).
		Padding(0, 1)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext)
	Stale = lipgloss.NewStyle().Foreground(Overlay).Italic(true)
)

var stateStyles = map[string]lipgloss.Style{
	"online":     lipgloss.NewStyle().Foreground(Green).Bold(true),
	"idle":       lipgloss.NewStyle().Foreground(Yellow),
	"idle_busy":  lipgloss.NewStyle().Foreground(Peach),
	"permission": lipgloss.NewStyle().Foreground(Red).Bold(true),
	"approved":   lipgloss.NewStyle().Foreground(Blue),
	"offline":    lipgloss.NewStyle().Foreground(Overlay),
}

// StateStyle returns the accent style for a lifecycle state name, defaulting
// to the plain text style.
func StateStyle(state string) lipgloss.Style {
	if style, ok := stateStyles[state]; ok {
		return style
	}
	return lipgloss.NewStyle().Foreground(Text)
}
