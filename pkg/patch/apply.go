package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Apply error codes. Both abort the file block they occur in.
const (
	CodeFindNotFound  = "FIND_NOT_FOUND"
	CodeAmbiguousFind = "AMBIGUOUS_FIND"
)

// OpStatus tracks how an operation fared while processing a file block.
type OpStatus struct {
	Number int    `json:"number"`
	Status string `json:"status"`
}

// FailedOperation stores the offending FIND block of the operation that
// could not be applied.
type FailedOperation struct {
	Number int           `json:"number"`
	Type   OperationType `json:"type"`
	Find   []string      `json:"find"`
}

// Error represents a structured failure while applying a patch. It satisfies
// the error interface so it can be returned directly from Apply* helpers.
type Error struct {
	Message         string
	Code            string
	RelativePath    string
	MatchCount      int // populated for AMBIGUOUS_FIND
	OriginalContent string
	OpStatuses      []OpStatus
	FailedOp        *FailedOperation
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return "patch error"
}

// Options configure how patch application behaves for both filesystem and
// in-memory operation.
type Options struct {
	// DryRun applies every block in memory but skips the final commit
	// writes, leaving the target files untouched.
	DryRun bool
}

// FilesystemOptions augments Options with a working directory used to
// resolve relative paths when touching the local filesystem.
type FilesystemOptions struct {
	Options
	WorkingDir string
}

// Result describes the outcome for a single file when applying a patch.
type Result struct {
	Status string
	Path   string
}

type workspace interface {
	Ensure(path string) (*state, error)
	Commit() ([]Result, error)
}

type state struct {
	path                    string
	relativePath            string
	lines                   []string
	originalContent         string
	originalEndsWithNewline *bool
	originalMode            fs.FileMode
	touched                 bool
	opStatuses              []OpStatus
}

func apply(ctx context.Context, blocks []FileBlock, ws workspace) ([]Result, error) {
	if ws == nil {
		return nil, errors.New("nil workspace")
	}
	for _, block := range blocks {
		if ctx.Err() != nil {
			return nil, &Error{Message: ctx.Err().Error()}
		}
		state, err := ws.Ensure(block.Path)
		if err != nil {
			var pe *Error
			if errors.As(err, &pe) {
				return nil, pe
			}
			return nil, &Error{Message: err.Error()}
		}
		state.opStatuses = nil
		for index, op := range block.Operations {
			if ctx.Err() != nil {
				return nil, &Error{Message: ctx.Err().Error()}
			}
			number := index + 1
			if err := applyOperation(state, op); err != nil {
				return nil, enhanceOperationError(err, state, op, number)
			}
			state.opStatuses = append(state.opStatuses, OpStatus{Number: number, Status: "applied"})
			state.touched = true
		}
	}
	results, err := ws.Commit()
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, &Error{Message: err.Error()}
	}
	return results, nil
}

// Apply runs the operations of one file block against content and returns
// the rewritten text. The search for each FIND block happens on the output
// of the previous operation, so order matters.
//
// Content is split on bare newlines without any normalization, so applying
// an empty operation list returns the input byte for byte. Callers that
// load files from disk and want CRLF tolerance should go through the
// filesystem or memory workspaces instead.
func Apply(content string, operations []Operation) (string, error) {
	ends := strings.HasSuffix(content, "\n")
	state := &state{
		lines:                   strings.Split(content, "\n"),
		originalContent:         content,
		originalEndsWithNewline: &ends,
	}
	for index, op := range operations {
		number := index + 1
		if err := applyOperation(state, op); err != nil {
			return "", enhanceOperationError(err, state, op, number)
		}
		state.opStatuses = append(state.opStatuses, OpStatus{Number: number, Status: "applied"})
	}
	return finalizeContent(state), nil
}

func applyOperation(state *state, op Operation) error {
	if state == nil {
		return errors.New("missing file state")
	}
	if len(op.Find) == 0 {
		return &Error{Message: "operation has an empty FIND block", Code: CodeFindNotFound, RelativePath: state.relativePath}
	}

	matches := findOccurrences(state.lines, op.Find)
	switch {
	case len(matches) == 0:
		return &Error{
			Message:         fmt.Sprintf("FIND block not found%s.", describeTarget(state)),
			Code:            CodeFindNotFound,
			RelativePath:    state.relativePath,
			OriginalContent: currentContent(state),
		}
	case len(matches) > 1:
		return &Error{
			Message:         fmt.Sprintf("FIND block matches %d locations%s.", len(matches), describeTarget(state)),
			Code:            CodeAmbiguousFind,
			RelativePath:    state.relativePath,
			MatchCount:      len(matches),
			OriginalContent: currentContent(state),
		}
	}

	index := matches[0]
	switch op.Type {
	case OperationReplace:
		state.lines = splice(state.lines, index, len(op.Find), op.Content)
	case OperationAddBefore:
		state.lines = splice(state.lines, index, 0, op.Content)
	case OperationAddAfter:
		state.lines = splice(state.lines, index+len(op.Find), 0, op.Content)
	case OperationDelete:
		state.lines = splice(state.lines, index, len(op.Find), nil)
	default:
		return &Error{Message: fmt.Sprintf("unsupported patch operation: %s", op.Type)}
	}
	return nil
}

func splice(target []string, index, deleteCount int, replacement []string) []string {
	if deleteCount == 0 && len(replacement) == 0 {
		return target
	}
	result := make([]string, 0, len(target)-deleteCount+len(replacement))
	result = append(result, target[:index]...)
	result = append(result, replacement...)
	result = append(result, target[index+deleteCount:]...)
	return result
}

// findOccurrences returns the starting index of every contiguous line-window
// match of needle within haystack. The full count is needed to enforce the
// uniqueness rule, so the scan never stops at the first hit.
func findOccurrences(haystack, needle []string) []int {
	if len(needle) == 0 {
		return nil
	}
	var matches []int
	for i := 0; i <= len(haystack)-len(needle); i++ {
		matched := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				matched = false
				break
			}
		}
		if matched {
			matches = append(matches, i)
		}
	}
	return matches
}

// finalizeContent joins the working lines back into file text, keeping a
// trailing newline iff the original content ended with one.
func finalizeContent(state *state) string {
	content := strings.Join(state.lines, "\n")
	if state.originalEndsWithNewline != nil {
		if *state.originalEndsWithNewline && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if !*state.originalEndsWithNewline && strings.HasSuffix(content, "\n") {
			content = strings.TrimSuffix(content, "\n")
		}
	}
	return content
}

func describeTarget(state *state) string {
	if state == nil || state.relativePath == "" {
		return ""
	}
	return " in " + state.relativePath
}

func currentContent(state *state) string {
	if state.originalContent != "" {
		return state.originalContent
	}
	return strings.Join(state.lines, "\n")
}

func enhanceOperationError(err error, state *state, op Operation, number int) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		// Use existing instance to preserve metadata.
	} else {
		pe = &Error{Message: err.Error()}
	}

	status := "no-match"
	if pe.Code == CodeAmbiguousFind {
		status = "ambiguous"
	}
	statuses := append([]OpStatus{}, state.opStatuses...)
	statuses = append(statuses, OpStatus{Number: number, Status: status})
	pe.OpStatuses = statuses

	if pe.Code == "" {
		pe.Code = CodeFindNotFound
	}
	if pe.RelativePath == "" && state != nil {
		pe.RelativePath = state.relativePath
	}
	if pe.OriginalContent == "" && state != nil {
		pe.OriginalContent = currentContent(state)
	}
	if pe.FailedOp == nil {
		find := append([]string(nil), op.Find...)
		pe.FailedOp = &FailedOperation{Number: number, Type: op.Type, Find: find}
	}
	return pe
}

func describeOpStatuses(statuses []OpStatus) string {
	if len(statuses) == 0 {
		return ""
	}
	var applied []string
	var failed string
	for _, status := range statuses {
		if status.Status == "applied" {
			applied = append(applied, fmt.Sprintf("%d", status.Number))
			continue
		}
		if failed == "" {
			switch status.Status {
			case "ambiguous":
				failed = fmt.Sprintf("Operation %d matched more than one location.", status.Number)
			default:
				failed = fmt.Sprintf("No match for operation %d.", status.Number)
			}
		}
	}

	parts := make([]string, 0, 2)
	if len(applied) > 0 {
		parts = append(parts, fmt.Sprintf("Operations applied: %s.", strings.Join(applied, ", ")))
	}
	if failed != "" {
		parts = append(parts, failed)
	}
	return strings.Join(parts, "\n")
}

// FormatError renders Error values into a human readable message suitable
// for surfacing to the patch author so the document can be corrected and
// resubmitted.
func FormatError(err *Error) string {
	if err == nil {
		return "Unknown error occurred."
	}
	message := err.Message
	if message == "" {
		message = "Unknown error occurred."
	}
	if err.Code != CodeFindNotFound && err.Code != CodeAmbiguousFind {
		return message
	}

	relativePath := err.RelativePath
	if relativePath == "" {
		relativePath = "unknown file"
	}
	displayPath := relativePath
	if !strings.HasPrefix(displayPath, "./") {
		displayPath = "./" + displayPath
	}
	var parts []string
	parts = append(parts, message)
	if summary := describeOpStatuses(err.OpStatuses); summary != "" {
		parts = append(parts, "", summary)
	}
	if err.FailedOp != nil && len(err.FailedOp.Find) > 0 {
		parts = append(parts, "", "Offending FIND block:")
		parts = append(parts, strings.Join(err.FailedOp.Find, "\n"))
	}
	if err.OriginalContent != "" {
		parts = append(parts, "", fmt.Sprintf("Current content of file %s:", displayPath), err.OriginalContent)
	}
	return strings.Join(parts, "\n")
}
