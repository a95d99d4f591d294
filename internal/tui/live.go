package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const historyLimit = 240

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// ProgressMsg reports one objective evaluation.
type ProgressMsg struct {
	Eval int
	Loss float64
}

// DoneMsg reports the end of the optimization run.
type DoneMsg struct {
	Loss      float64
	Converged bool
	Err       error
}

// Model renders a live loss curve while the solver runs.
type Model struct {
	losses []float64
	eval   int
	last   float64

	done      bool
	converged bool
	err       error
}

func New() Model {
	return Model{losses: make([]float64, 0, historyLimit)}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.eval = msg.Eval
		m.last = msg.Loss
		m.losses = append(m.losses, msg.Loss)
		if len(m.losses) > historyLimit {
			m.losses = m.losses[len(m.losses)-historyLimit:]
		}
		return m, nil
	case DoneMsg:
		m.done = true
		m.converged = msg.Converged
		m.err = msg.Err
		m.last = msg.Loss
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("trajopt") + "\n\n")

	if len(m.losses) > 1 {
		b.WriteString(asciigraph.Plot(m.losses,
			asciigraph.Height(12), asciigraph.Width(64)))
		b.WriteString("\n\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(fmt.Sprintf("aborted: %v", m.err)))
	case m.done && m.converged:
		b.WriteString(doneStyle.Render(fmt.Sprintf("converged, loss %.6g", m.last)))
	case m.done:
		b.WriteString(doneStyle.Render(fmt.Sprintf("stopped, loss %.6g", m.last)))
	default:
		b.WriteString(statusStyle.Render(
			fmt.Sprintf("eval %d  loss %.6g  (q to quit)", m.eval, m.last)))
	}
	b.WriteString("\n")
	return b.String()
}
