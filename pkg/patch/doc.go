// Package patch parses the FILE/FIND patch format and applies the described
// edits with exact-match semantics.
//
// A patch document names target files with "FILE: <path>" directives, each
// followed by one or more operations. An operation gives a FIND block (the
// verbatim lines locating the edit site) and an action: "REPLACE WITH:",
// "ADD BEFORE:", "ADD AFTER:" or "DELETE". A FIND block must match exactly
// one location in the file at the moment its operation runs; zero or
// multiple matches abort the whole file block with a structured error.
//
// The package exposes primitives to parse patch documents, apply them to the
// filesystem, or operate on in-memory documents which makes it
// straightforward to embed in editors and testing utilities.
package patch
