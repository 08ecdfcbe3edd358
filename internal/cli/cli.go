package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/asynkron/easypatch/internal/source"
	"github.com/asynkron/easypatch/internal/tui"
	"github.com/asynkron/easypatch/internal/ui"
	"github.com/asynkron/easypatch/pkg/patch"
)

// Run executes the easypatch CLI using the provided arguments and streams.
// It returns a POSIX-style exit code: 0 on success, 1 when the patch fails
// to parse or apply, 2 on flag errors.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	defaultDir := os.Getenv("EASYPATCH_DIR")

	flagSet := pflag.NewFlagSet("easypatch", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	dir := flagSet.StringP("dir", "C", defaultDir, "apply patches relative to this directory (default: current directory)")
	inputPath := flagSet.StringP("file", "f", "", "read the patch from a file instead of stdin or the clipboard")
	dryRun := flagSet.BoolP("dry-run", "n", false, "parse and apply in memory without writing any file")
	noColor := flagSet.Bool("no-color", false, "disable styled output")
	useTUI := flagSet.Bool("tui", false, "show progress and the summary in a terminal UI")
	flagSet.Usage = func() {
		fmt.Fprintln(stderr, "Usage: easypatch [flags]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Reads a FILE:/FIND: patch document from stdin (pipe), a file or the")
		fmt.Fprintln(stderr, "clipboard and applies it to the files it names.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Example: pbpaste | easypatch -n")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fmt.Fprint(stderr, flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	printer := ui.NewPrinter(stderr, !*noColor)

	raw, err := source.Read(stdin, *inputPath)
	if err != nil {
		printer.Error("%v", err)
		return 1
	}
	if strings.TrimSpace(raw) == "" {
		printer.Warning("No patch content found. Nothing to do.")
		return 0
	}

	blocks, err := patch.Parse(raw)
	if err != nil {
		var perr *patch.ParseError
		if errors.As(err, &perr) {
			printer.Error("patch parse error: %v", perr)
		} else {
			printer.Error("patch parse error: %v", err)
		}
		return 1
	}

	opts := patch.FilesystemOptions{
		Options:    patch.Options{DryRun: *dryRun},
		WorkingDir: *dir,
	}

	if *useTUI {
		return runTUI(ctx, blocks, opts, stdout)
	}

	results, err := patch.ApplyFilesystem(ctx, blocks, opts)
	if err != nil {
		var pe *patch.Error
		if errors.As(err, &pe) {
			printer.Error("%s", patch.FormatError(pe))
		} else {
			printer.Error("%v", err)
		}
		return 1
	}

	printer.Summary(results, *dryRun)
	return 0
}

func runTUI(ctx context.Context, blocks []patch.FileBlock, opts patch.FilesystemOptions, stdout io.Writer) int {
	model := tui.New(func() (tui.Summary, error) {
		results, err := patch.ApplyFilesystem(ctx, blocks, opts)
		if err != nil {
			return tui.Summary{}, err
		}
		return tui.Summary{Results: results, DryRun: opts.DryRun}, nil
	})

	program := tea.NewProgram(model, tea.WithOutput(stdout))
	final, err := program.Run()
	if err != nil {
		return 1
	}
	if m, ok := final.(tui.Model); ok && m.Failed() {
		return 1
	}
	return 0
}
