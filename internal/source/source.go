package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// Read retrieves the raw patch text. An explicit file path wins; otherwise
// piped stdin is consumed; otherwise the system clipboard is used. An empty
// clipboard yields an empty string so the caller can report "nothing to do".
func Read(stdin io.Reader, path string) (string, error) {
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read patch file: %w", err)
		}
		return string(content), nil
	}

	if isPiped(stdin) {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	content, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	return content, nil
}

// isPiped reports whether stdin carries piped data. Non-file readers (as
// used in tests) always count as piped.
func isPiped(stdin io.Reader) bool {
	if stdin == nil {
		return false
	}
	f, ok := stdin.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
