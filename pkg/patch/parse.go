package patch

import (
	"fmt"
	"strings"
)

// OperationType identifies the kind of change described by a patch operation.
type OperationType string

const (
	// OperationReplace represents a "REPLACE WITH:" action.
	OperationReplace OperationType = "replace"
	// OperationAddBefore represents an "ADD BEFORE:" action.
	OperationAddBefore OperationType = "add-before"
	// OperationAddAfter represents an "ADD AFTER:" action.
	OperationAddAfter OperationType = "add-after"
	// OperationDelete represents a "DELETE" action.
	OperationDelete OperationType = "delete"
)

// Marker lines of the patch format. Each occupies a line of its own except
// the file directive, which carries the target path on the same line.
const (
	fileMarker      = "FILE: "
	findMarker      = "FIND:"
	replaceMarker   = "REPLACE WITH:"
	addBeforeMarker = "ADD BEFORE:"
	addAfterMarker  = "ADD AFTER:"
	deleteMarker    = "DELETE"
)

// Operation describes a single edit located by an exact FIND block.
//
// Find and Content hold verbatim lines of the patch document, including
// indentation and interior blank lines. Content is nil for delete
// operations.
type Operation struct {
	Type    OperationType
	Find    []string
	Content []string
}

// FileBlock groups the operations declared under one FILE directive. The
// same path may appear in several blocks; each block is an independent edit
// pass applied in document order.
type FileBlock struct {
	Path       string
	Operations []Operation
}

// ParseError codes returned while reading a patch document.
const (
	CodeMissingFileHeader     = "MISSING_FILE_HEADER"
	CodeUnterminatedOperation = "UNTERMINATED_OPERATION"
	CodeEmptyFind             = "EMPTY_FIND"
	CodeUnexpectedLine        = "UNEXPECTED_LINE"
)

// ParseError reports a malformed patch document. Parsing stops at the first
// error; no partial result is returned alongside it.
type ParseError struct {
	Code    string
	Line    int // 1-based line in the patch document
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Parse converts the textual representation of a patch into an ordered slice
// of file blocks that can later be applied.
func Parse(input string) ([]FileBlock, error) {
	lines := splitLines(input)
	var blocks []FileBlock

	i := 0
	for i < len(lines) {
		line := lines[i]

		if rest, ok := strings.CutPrefix(line, fileMarker); ok {
			path := strings.TrimSpace(rest)
			if path == "" {
				return nil, &ParseError{Code: CodeUnexpectedLine, Line: i + 1, Message: "FILE directive is missing a path"}
			}
			// Windows-style separators are accepted and normalized.
			path = strings.ReplaceAll(path, "\\", "/")
			blocks = append(blocks, FileBlock{Path: path})
			i++
			continue
		}

		if line == findMarker {
			if len(blocks) == 0 {
				return nil, &ParseError{Code: CodeMissingFileHeader, Line: i + 1, Message: "FIND block before any FILE directive"}
			}
			op, next, err := parseOperation(lines, i)
			if err != nil {
				return nil, err
			}
			current := &blocks[len(blocks)-1]
			current.Operations = append(current.Operations, op)
			i = next
			continue
		}

		if strings.TrimSpace(line) == "" {
			i++
			continue
		}

		return nil, &ParseError{Code: CodeUnexpectedLine, Line: i + 1, Message: fmt.Sprintf("unexpected line outside any operation: %q", line)}
	}

	return blocks, nil
}

// parseOperation consumes one FIND block plus its action starting at the
// FIND marker and returns the operation along with the index of the first
// unconsumed line.
func parseOperation(lines []string, start int) (Operation, int, error) {
	var (
		find   []string
		opType OperationType
	)

	i := start + 1
accumulate:
	for {
		if i >= len(lines) {
			return Operation{}, 0, &ParseError{Code: CodeUnterminatedOperation, Line: start + 1, Message: "FIND block is never followed by an action marker"}
		}
		switch lines[i] {
		case replaceMarker:
			opType = OperationReplace
		case addBeforeMarker:
			opType = OperationAddBefore
		case addAfterMarker:
			opType = OperationAddAfter
		case deleteMarker:
			opType = OperationDelete
		default:
			find = append(find, lines[i])
			i++
			continue
		}
		i++ // the action marker line is consumed, never part of any text
		break accumulate
	}

	find = trimTrailingBlank(find)
	if len(find) == 0 {
		return Operation{}, 0, &ParseError{Code: CodeEmptyFind, Line: start + 1, Message: "FIND block is empty"}
	}

	op := Operation{Type: opType, Find: find}
	if opType == OperationDelete {
		return op, i, nil
	}

	// The action body runs until a blank line immediately followed by a
	// FIND or FILE marker, or until end of input. The separator blank line
	// belongs to neither text block.
	var body []string
	for i < len(lines) {
		line := lines[i]
		if strings.TrimSpace(line) == "" && i+1 < len(lines) {
			next := lines[i+1]
			if next == findMarker || strings.HasPrefix(next, fileMarker) {
				i++
				break
			}
		}
		body = append(body, line)
		i++
	}
	op.Content = trimTrailingBlank(body)
	return op, i, nil
}

// trimTrailingBlank strips exactly one trailing empty line, undoing the
// newline introduced by the block separator. Interior blank lines are kept.
func trimTrailingBlank(block []string) []string {
	if n := len(block); n > 0 && block[n-1] == "" {
		return block[:n-1]
	}
	return block
}

func splitLines(input string) []string {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}
