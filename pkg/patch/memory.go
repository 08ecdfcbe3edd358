package patch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// ApplyToMemory applies file blocks to an in-memory document store
// represented by a map. The provided map is copied before mutation and the
// updated snapshot is returned.
func ApplyToMemory(ctx context.Context, blocks []FileBlock, files map[string]string, opts Options) (map[string]string, []Result, error) {
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		snapshot[k] = v
	}
	ws := newMemoryWorkspace(snapshot, opts)
	results, err := apply(ctx, blocks, ws)
	if err != nil {
		return nil, nil, err
	}
	return ws.files, results, nil
}

// ApplyMemoryPatch parses a raw patch document and applies it to an in-memory map of files.
func ApplyMemoryPatch(ctx context.Context, patchBody string, files map[string]string, opts Options) (map[string]string, []Result, error) {
	blocks, err := Parse(patchBody)
	if err != nil {
		return nil, nil, err
	}
	return ApplyToMemory(ctx, blocks, files, opts)
}

type memoryWorkspace struct {
	options Options
	files   map[string]string
	states  map[string]*state
	order   []string
}

func newMemoryWorkspace(files map[string]string, opts Options) *memoryWorkspace {
	return &memoryWorkspace{
		options: opts,
		files:   files,
		states:  make(map[string]*state),
	}
}

func (ws *memoryWorkspace) Ensure(path string) (*state, error) {
	rel := filepath.Clean(strings.TrimSpace(path))
	if rel == "" || rel == "." {
		return nil, fmt.Errorf("invalid patch path")
	}
	if state, ok := ws.states[rel]; ok {
		return state, nil
	}

	content, ok := ws.files[rel]
	if !ok {
		return nil, fmt.Errorf("failed to read %s: file does not exist", rel)
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	ends := strings.HasSuffix(normalized, "\n")
	state := &state{
		path:                    rel,
		relativePath:            rel,
		lines:                   strings.Split(normalized, "\n"),
		originalContent:         content,
		originalEndsWithNewline: &ends,
	}
	ws.states[rel] = state
	ws.order = append(ws.order, rel)
	return state, nil
}

func (ws *memoryWorkspace) Commit() ([]Result, error) {
	var results []Result
	for _, key := range ws.order {
		state := ws.states[key]
		if !state.touched {
			continue
		}
		if !ws.options.DryRun {
			ws.files[key] = finalizeContent(state)
		}
		results = append(results, Result{Status: "M", Path: state.relativePath})
	}
	return results, nil
}
