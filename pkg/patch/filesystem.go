package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ApplyFilesystem applies file blocks to the OS filesystem. Nothing is
// written to disk until every block has applied cleanly.
func ApplyFilesystem(ctx context.Context, blocks []FileBlock, opts FilesystemOptions) ([]Result, error) {
	ws, err := newFilesystemWorkspace(opts)
	if err != nil {
		return nil, err
	}
	return apply(ctx, blocks, ws)
}

// ApplyFilesystemPatch parses a raw patch document and applies it to the filesystem.
func ApplyFilesystemPatch(ctx context.Context, patchBody string, opts FilesystemOptions) ([]Result, error) {
	blocks, err := Parse(patchBody)
	if err != nil {
		return nil, err
	}
	return ApplyFilesystem(ctx, blocks, opts)
}

type filesystemWorkspace struct {
	options    Options
	workingDir string
	states     map[string]*state
	order      []string
}

func newFilesystemWorkspace(opts FilesystemOptions) (*filesystemWorkspace, error) {
	workingDir := strings.TrimSpace(opts.WorkingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workingDir = wd
	}
	if abs, err := filepath.Abs(workingDir); err == nil {
		workingDir = abs
	}
	return &filesystemWorkspace{
		options:    opts.Options,
		workingDir: workingDir,
		states:     make(map[string]*state),
	}, nil
}

func (ws *filesystemWorkspace) Ensure(path string) (*state, error) {
	abs, rel, err := ws.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if state, ok := ws.states[abs]; ok {
		return state, nil
	}

	info, err := os.Stat(abs)
	switch {
	case err == nil:
		if info.IsDir() {
			return nil, fmt.Errorf("cannot patch directory %s", rel)
		}
		content, readErr := os.ReadFile(abs)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %v", rel, readErr)
		}
		normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
		normalized = strings.ReplaceAll(normalized, "\r", "\n")
		ends := strings.HasSuffix(normalized, "\n")
		state := &state{
			path:                    abs,
			relativePath:            rel,
			lines:                   strings.Split(normalized, "\n"),
			originalContent:         string(content),
			originalEndsWithNewline: &ends,
			originalMode:            info.Mode(),
		}
		ws.states[abs] = state
		ws.order = append(ws.order, abs)
		return state, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: file does not exist", rel)
	default:
		return nil, fmt.Errorf("failed to stat %s: %v", rel, err)
	}
}

func (ws *filesystemWorkspace) Commit() ([]Result, error) {
	var results []Result
	for _, key := range ws.order {
		state := ws.states[key]
		if !state.touched {
			continue
		}
		newContent := finalizeContent(state)

		if !ws.options.DryRun {
			perm := state.originalMode & fs.ModePerm
			if perm == 0 {
				perm = 0o644
			}
			if err := os.WriteFile(state.path, []byte(newContent), perm); err != nil {
				return nil, &Error{Message: fmt.Sprintf("failed to write %s: %v", state.relativePath, err)}
			}
		}

		results = append(results, Result{Status: "M", Path: state.relativePath})
	}
	return results, nil
}

func (ws *filesystemWorkspace) resolvePath(relative string) (string, string, error) {
	rel := strings.TrimSpace(relative)
	if rel == "" {
		return "", "", fmt.Errorf("invalid patch path")
	}
	cleaned := filepath.Clean(rel)
	var abs string
	if filepath.IsAbs(cleaned) {
		abs = filepath.Clean(cleaned)
	} else {
		abs = filepath.Clean(filepath.Join(ws.workingDir, cleaned))
	}
	return abs, cleaned, nil
}
