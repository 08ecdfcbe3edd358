package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/asynkron/easypatch/pkg/patch"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Summary describes a completed apply run.
type Summary struct {
	Results []patch.Result
	DryRun  bool
}

// --- Messages ---
type summaryMsg struct {
	Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// Model drives the spinner-then-summary program around a single apply run.
type Model struct {
	run     func() (Summary, error)
	spinner spinner.Model
	state   state
	summary summaryMsg
	err     error
}

type state int

const (
	stateApplying state = iota
	stateSummary
	stateError
)

// New builds a Model that executes run once the program starts.
func New(run func() (Summary, error)) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		run:     run,
		spinner: s,
		state:   stateApplying,
	}
}

// Failed reports whether the run ended in an error once the program exits.
func (m Model) Failed() bool { return m.state == stateError }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApply)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateApplying {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateApplying:
		return fmt.Sprintf("%s Applying patch...", m.spinner.View())
	case stateError:
		return errorStyle.Render(renderError(m.err)) + "\n"
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) renderSummary() string {
	var b strings.Builder

	if len(m.summary.Results) == 0 {
		b.WriteString(faintStyle.Render("Nothing to do."))
		b.WriteString("\n")
		return b.String()
	}

	header := "Modified:"
	if m.summary.DryRun {
		header = "Would modify:"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	for _, result := range m.summary.Results {
		b.WriteString(successStyle.Render(fmt.Sprintf("  %s ", result.Status)))
		b.WriteString(pathStyle.Render(result.Path))
		b.WriteString("\n")
	}
	return b.String()
}

func renderError(err error) string {
	var pe *patch.Error
	if errors.As(err, &pe) {
		return patch.FormatError(pe)
	}
	return "Error: " + err.Error()
}

func (m *Model) runApply() tea.Msg {
	summary, err := m.run()
	if err != nil {
		return errorMsg{err}
	}
	return summaryMsg{Summary: summary}
}
