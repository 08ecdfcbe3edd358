package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadPrefersExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changes.patch")
	require.NoError(t, os.WriteFile(path, []byte("FILE: a.txt\n"), 0o644))

	content, err := Read(strings.NewReader("ignored stdin"), path)
	require.NoError(t, err)
	require.Equal(t, "FILE: a.txt\n", content)
}

func TestReadMissingFileFails(t *testing.T) {
	_, err := Read(nil, filepath.Join(t.TempDir(), "missing.patch"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read patch file")
}

func TestReadConsumesPipedStdin(t *testing.T) {
	content, err := Read(strings.NewReader("FILE: b.txt\nFIND:\nx\nDELETE\n"), "")
	require.NoError(t, err)
	require.Contains(t, content, "FILE: b.txt")
}
