// Package lexscan implements spec.md §4.B: cheap, compiler-free lexical
// helpers used to pre-qualify expensive operations before the Compiler
// Facade is ever invoked. Every function here is pure — no FileStore or
// other shared state is threaded in, per the design note "keep utility
// functions... pure".
package lexscan

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var packageDeclRe = regexp.MustCompile(`(?m)^\s*package\s+([A-Za-z_][A-Za-z0-9_.]*)\s*;`)

// PackageName streams tokens until the first `package X.Y.Z;` declaration
// and returns the dotted name, or "" if the file has none (the default
// package, per spec.md §3 "empty string allowed for the default
// package").
func PackageName(r io.Reader) string {
	// A package declaration, if present, is always the first non-comment,
	// non-annotation statement; bound the scan to a generous prefix so a
	// pathological file can't force an unbounded read.
	const scanLimit = 64 * 1024
	buf := make([]byte, 0, scanLimit)
	br := bufio.NewReader(io.LimitReader(r, scanLimit))
	chunk, _ := io.ReadAll(br)
	buf = append(buf, chunk...)

	m := packageDeclRe.FindSubmatch(buf)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// PackageNameOfSource is a convenience wrapper over PackageName for
// already-materialized source text.
func PackageNameOfSource(src string) string {
	return PackageName(strings.NewReader(src))
}

var classDeclTemplate = `(?m)\b(class|interface|enum|@interface)\s+%s\b`

// ContainsClass scans the whole of src for the word-boundary pattern
// `(class|interface|enum|@interface) <name>`, used as the declaration
// navigation fast path ahead of a full parse (spec.md §4.B).
func ContainsClass(src, name string) bool {
	if name == "" {
		return false
	}
	re, err := regexp.Compile(`(?m)\b(class|interface|enum|@interface)\s+` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(src)
}

// FileName returns the final path segment of a URI or path string.
func FileName(uriOrPath string) string {
	uriOrPath = strings.TrimSuffix(uriOrPath, "/")
	if i := strings.LastIndexAny(uriOrPath, "/\\"); i >= 0 {
		return uriOrPath[i+1:]
	}
	return uriOrPath
}

// LastName returns the segment of a dotted qualified name after the
// final dot ("java.util.List" -> "List").
func LastName(q string) string {
	if i := strings.LastIndex(q, "."); i >= 0 {
		return q[i+1:]
	}
	return q
}

// MostName returns everything before the final dot of a qualified name
// ("java.util.List" -> "java.util"), or "" if there is no dot.
func MostName(q string) string {
	if i := strings.LastIndex(q, "."); i >= 0 {
		return q[:i]
	}
	return ""
}

// MatchesPartialName is the case-sensitive character-prefix match rule
// spec.md §4.B defines for completion filtering. It is the single source
// of truth for "is this candidate admissible" — ranking layers (see
// internal/completion) may reorder admitted candidates but must never use
// a different admission rule.
func MatchesPartialName(candidate, prefix string) bool {
	return strings.HasPrefix(candidate, prefix)
}
