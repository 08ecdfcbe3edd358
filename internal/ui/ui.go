package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/easypatch/pkg/patch"
)

// Printer writes styled status output. Styles degrade to plain text when
// color is disabled or the terminal does not support it.
type Printer struct {
	out     io.Writer
	header  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	path    lipgloss.Style
	faint   lipgloss.Style
}

// NewPrinter builds a Printer for out. color=false forces plain output; a
// dumb terminal disables styling as well.
func NewPrinter(out io.Writer, color bool) *Printer {
	if color && termenv.EnvColorProfile() == termenv.Ascii {
		color = false
	}
	p := &Printer{out: out}
	if !color {
		plain := lipgloss.NewStyle()
		p.header, p.success, p.warning, p.failure, p.path, p.faint = plain, plain, plain, plain, plain, plain
		return p
	}
	p.header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	p.success = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	p.warning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	p.failure = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	p.path = lipgloss.NewStyle()
	p.faint = lipgloss.NewStyle().Faint(true)
	return p
}

func (p *Printer) Header(format string, a ...any) {
	fmt.Fprintln(p.out, p.header.Render(fmt.Sprintf(format, a...)))
}

func (p *Printer) Warning(format string, a ...any) {
	fmt.Fprintln(p.out, p.warning.Render(fmt.Sprintf(format, a...)))
}

func (p *Printer) Error(format string, a ...any) {
	fmt.Fprintln(p.out, p.failure.Render(fmt.Sprintf(format, a...)))
}

// Summary prints the per-file results of a successful apply.
func (p *Printer) Summary(results []patch.Result, dryRun bool) {
	if len(results) == 0 {
		fmt.Fprintln(p.out, p.faint.Render("Nothing to do."))
		return
	}
	label := "Modified %d file(s):"
	if dryRun {
		label = "Would modify %d file(s):"
	}
	fmt.Fprintln(p.out, p.success.Render(fmt.Sprintf(label, len(results))))
	for _, result := range results {
		line := fmt.Sprintf("  %s %s", result.Status, p.path.Render(result.Path))
		fmt.Fprintln(p.out, strings.TrimRight(line, " "))
	}
}
