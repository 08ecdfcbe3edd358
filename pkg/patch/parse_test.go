package patch

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSimpleReplace(t *testing.T) {
	t.Parallel()

	document := strings.Join([]string{
		"FILE: test.py",
		"FIND:",
		"def old_function():",
		"    pass",
		"",
		"REPLACE WITH:",
		"def new_function():",
		"    return True",
		"",
	}, "\n")

	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	if blocks[0].Path != "test.py" {
		t.Fatalf("unexpected path: %q", blocks[0].Path)
	}
	if len(blocks[0].Operations) != 1 {
		t.Fatalf("expected one operation, got %d", len(blocks[0].Operations))
	}
	op := blocks[0].Operations[0]
	if op.Type != OperationReplace {
		t.Fatalf("unexpected operation type: %q", op.Type)
	}
	if got, want := strings.Join(op.Find, "\n"), "def old_function():\n    pass"; got != want {
		t.Fatalf("find mismatch: got %q want %q", got, want)
	}
	if got, want := strings.Join(op.Content, "\n"), "def new_function():\n    return True"; got != want {
		t.Fatalf("content mismatch: got %q want %q", got, want)
	}
}

func TestParseMultipleOperations(t *testing.T) {
	t.Parallel()

	document := strings.Join([]string{
		"FILE: test.py",
		"FIND:",
		"import os",
		"",
		"ADD BEFORE:",
		"import sys",
		"",
		"FIND:",
		"def main():",
		"",
		"REPLACE WITH:",
		"def main() -> None:",
		"",
	}, "\n")

	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(blocks) != 1 || len(blocks[0].Operations) != 2 {
		t.Fatalf("unexpected structure: %#v", blocks)
	}
	first, second := blocks[0].Operations[0], blocks[0].Operations[1]
	if first.Type != OperationAddBefore || first.Find[0] != "import os" || first.Content[0] != "import sys" {
		t.Fatalf("unexpected first operation: %#v", first)
	}
	if second.Type != OperationReplace || second.Find[0] != "def main():" || second.Content[0] != "def main() -> None:" {
		t.Fatalf("unexpected second operation: %#v", second)
	}
}

func TestParseDeleteTakesNoContent(t *testing.T) {
	t.Parallel()

	document := "FILE: test.py\nFIND:\n# TODO: drop\nprint(\"debug\")\n\nDELETE\n"
	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	op := blocks[0].Operations[0]
	if op.Type != OperationDelete {
		t.Fatalf("unexpected type: %q", op.Type)
	}
	if op.Content != nil {
		t.Fatalf("delete should carry no content: %#v", op.Content)
	}
	if len(op.Find) != 2 {
		t.Fatalf("unexpected find lines: %#v", op.Find)
	}
}

func TestParseMultipleFiles(t *testing.T) {
	t.Parallel()

	document := strings.Join([]string{
		"FILE: one.py",
		"FIND:",
		"old1",
		"REPLACE WITH:",
		"new1",
		"",
		"FILE: two.py",
		"FIND:",
		"old2",
		"REPLACE WITH:",
		"new2",
		"",
	}, "\n")

	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(blocks) != 2 || blocks[0].Path != "one.py" || blocks[1].Path != "two.py" {
		t.Fatalf("unexpected blocks: %#v", blocks)
	}
}

func TestParseRepeatedFileDirectiveStartsNewBlock(t *testing.T) {
	t.Parallel()

	document := strings.Join([]string{
		"FILE: x.py",
		"FIND:",
		"alpha",
		"REPLACE WITH:",
		"beta",
		"",
		"FILE: x.py",
		"FIND:",
		"beta",
		"REPLACE WITH:",
		"gamma",
		"",
	}, "\n")

	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("repeated FILE directives must not merge: %#v", blocks)
	}
	if blocks[0].Path != "x.py" || blocks[1].Path != "x.py" {
		t.Fatalf("unexpected paths: %q %q", blocks[0].Path, blocks[1].Path)
	}
}

func TestParseNormalizesWindowsPaths(t *testing.T) {
	t.Parallel()

	document := "FILE: src\\pkg\\file.py\nFIND:\nold\nREPLACE WITH:\nnew"
	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if blocks[0].Path != "src/pkg/file.py" {
		t.Fatalf("unexpected path: %q", blocks[0].Path)
	}
}

func TestParseMissingFileHeader(t *testing.T) {
	t.Parallel()

	blocks, err := Parse("FIND:\nfoo\nREPLACE WITH:\nbar\n")
	if err == nil {
		t.Fatalf("expected error")
	}
	if blocks != nil {
		t.Fatalf("no partial patch should be returned: %#v", blocks)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Code != CodeMissingFileHeader {
		t.Fatalf("unexpected code: %q", perr.Code)
	}
	if perr.Line != 1 {
		t.Fatalf("unexpected line: %d", perr.Line)
	}
}

func TestParseUnterminatedOperation(t *testing.T) {
	t.Parallel()

	_, err := Parse("FILE: test.py\nFIND:\nsome context\n")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Code != CodeUnterminatedOperation {
		t.Fatalf("unexpected code: %q", perr.Code)
	}
}

func TestParseEmptyFind(t *testing.T) {
	t.Parallel()

	cases := []string{
		"FILE: test.py\nFIND:\nREPLACE WITH:\nnew\n",
		"FILE: test.py\nFIND:\n\nREPLACE WITH:\nnew\n",
	}
	for _, document := range cases {
		_, err := Parse(document)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected *ParseError for %q, got %v", document, err)
		}
		if perr.Code != CodeEmptyFind {
			t.Fatalf("unexpected code for %q: %q", document, perr.Code)
		}
	}
}

func TestParseUnexpectedLine(t *testing.T) {
	t.Parallel()

	_, err := Parse("FILE: test.py\nINVALID\n")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Code != CodeUnexpectedLine {
		t.Fatalf("unexpected code: %q", perr.Code)
	}
	if perr.Line != 2 {
		t.Fatalf("unexpected line: %d", perr.Line)
	}
}

func TestParseRejectsEmptyFilePath(t *testing.T) {
	t.Parallel()

	_, err := Parse("FILE: \nFIND:\nold\nREPLACE WITH:\nnew\n")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Code != CodeUnexpectedLine {
		t.Fatalf("unexpected code: %q", perr.Code)
	}
}

func TestParsePreservesInteriorBlankLines(t *testing.T) {
	t.Parallel()

	// The blank line inside the replacement is followed by a plain line, so
	// it belongs to the body rather than terminating it.
	document := strings.Join([]string{
		"FILE: test.py",
		"FIND:",
		"placeholder",
		"REPLACE WITH:",
		"first",
		"",
		"second",
		"",
	}, "\n")

	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	op := blocks[0].Operations[0]
	if got, want := strings.Join(op.Content, "\n"), "first\n\nsecond"; got != want {
		t.Fatalf("content mismatch: got %q want %q", got, want)
	}
}

func TestParseStripsOneTrailingBlankLine(t *testing.T) {
	t.Parallel()

	// Two blank lines before the next FIND: the second is the separator and
	// the first is the body's single trailing blank, which gets stripped.
	document := strings.Join([]string{
		"FILE: test.py",
		"FIND:",
		"old",
		"REPLACE WITH:",
		"new",
		"",
		"",
		"FIND:",
		"other",
		"DELETE",
		"",
	}, "\n")

	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	ops := blocks[0].Operations
	if len(ops) != 2 {
		t.Fatalf("expected two operations, got %d", len(ops))
	}
	if got, want := strings.Join(ops[0].Content, "\n"), "new"; got != want {
		t.Fatalf("content mismatch: got %q want %q", got, want)
	}
}

func TestParseBodyRunsToEndOfInput(t *testing.T) {
	t.Parallel()

	blocks, err := Parse("FILE: test.py\nFIND:\nold\nREPLACE WITH:\nnew")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	op := blocks[0].Operations[0]
	if len(op.Content) != 1 || op.Content[0] != "new" {
		t.Fatalf("unexpected content: %#v", op.Content)
	}
}

func TestParseAcceptsCRLFInput(t *testing.T) {
	t.Parallel()

	document := "FILE: test.py\r\nFIND:\r\nold\r\nREPLACE WITH:\r\nnew\r\n"
	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	op := blocks[0].Operations[0]
	if op.Find[0] != "old" || op.Content[0] != "new" {
		t.Fatalf("unexpected operation: %#v", op)
	}
}

func TestParseMarkerLinesInsideBodyAreVerbatim(t *testing.T) {
	t.Parallel()

	// A FILE directive not preceded by a blank line is body text.
	document := strings.Join([]string{
		"FILE: test.py",
		"FIND:",
		"old",
		"REPLACE WITH:",
		"new",
		"FILE: trap.py",
		"",
	}, "\n")

	blocks, err := Parse(document)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	op := blocks[0].Operations[0]
	if got, want := strings.Join(op.Content, "\n"), "new\nFILE: trap.py"; got != want {
		t.Fatalf("content mismatch: got %q want %q", got, want)
	}
}
