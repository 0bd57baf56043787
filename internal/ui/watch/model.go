package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	statusdto "statusrelay/internal/modules/status/dto"
	"statusrelay/internal/ui/theme"
)

const pollInterval = 2 * time.Second

// statusPort is the minimal surface this view needs from the status module.
type statusPort interface {
	ListProjects(ctx context.Context) ([]statusdto.ProjectStatus, error)
}

type tickMsg time.Time

type loadedMsg struct {
	statuses []statusdto.ProjectStatus
	err      error
}

type Model struct {
	status   statusPort
	statuses []statusdto.ProjectStatus
	err      error
	width    int
}

func NewModel(status statusPort) Model {
	return Model{status: status}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load, tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) load() tea.Msg {
	statuses, err := m.status.ListProjects(context.Background())
	return loadedMsg{statuses: statuses, err: err}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.load
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.load, tick())
	case loadedMsg:
		m.statuses = msg.statuses
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("statusrelay · tracked projects"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(theme.Muted.Render("load failed: " + m.err.Error()))
		return theme.App.Render(b.String())
	}
	if len(m.statuses) == 0 {
		b.WriteString(theme.Muted.Render("no tracked projects"))
		return theme.App.Render(b.String())
	}

	rows := make([]string, 0, len(m.statuses))
	for _, s := range m.statuses {
		rows = append(rows, renderRow(s))
	}
	b.WriteString(theme.Pane.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")
	b.WriteString(theme.Muted.Render("r refresh · q quit"))
	return theme.App.Render(b.String())
}

func renderRow(s statusdto.ProjectStatus) string {
	state := theme.StateStyle(s.State).Render(fmt.Sprintf("%-11s", s.State))
	line := fmt.Sprintf("%s %-24s tools %-4d", state, s.Project, s.ToolCount)
	if s.Subagents > 0 {
		line += fmt.Sprintf(" subagents %d", s.Subagents)
	}
	if !s.LastTransition.IsZero() {
		line += theme.Muted.Render("  " + s.LastTransition.Local().Format("15:04:05"))
	}
	if s.Stale {
		line += " " + theme.Stale.Render("stale")
	}
	return line
}
