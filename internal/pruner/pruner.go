// Package pruner implements spec.md §4.C: given a parsed file and a
// cursor, produce a source of identical length where everything outside
// a minimal neighborhood of the cursor is blanked, so the Compiler
// Facade can typecheck a tiny region quickly while every diagnostic
// position still lines up with the original file.
package pruner

import (
	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jtypes"
)

func isIdentChar(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Prune returns a new source string, identical in length to tree.Source,
// in which every token on the cursor's statement and within its
// enclosing block up to the cursor is preserved, and every other token
// is blanked to whitespace while every newline byte is kept in place
// (spec.md §4.C, §8's length/newline invariant).
func Prune(tree *facade.ParseTree, pos jtypes.Position) (string, error) {
	source := tree.Source
	cursor := facade.OffsetAt(source, pos)

	smallest := tree.Root.SmallestContaining(pos)
	if smallest == nil {
		smallest = tree.Root
	}

	block := smallest.EnclosingOfKind(facade.NodeBlock)
	preserveStart := 0
	if block != nil {
		preserveStart = block.Span.StartByte
	}
	// Edge case (§4.C): block not identifiable (top level) prunes to the
	// compilation unit boundary, i.e. preserveStart stays 0.

	preserveEnd := cursor
	// Edge case (§4.C): a member-access chain's receiver must be kept in
	// full, because the receiver type is the whole point of the query.
	// Walking to the enclosing statement/expression-statement keeps the
	// full chain regardless of how deep the cursor sits inside it, since
	// the statement's span always starts at the beginning of the chain.
	if stmt := smallest.EnclosingOfKind(facade.NodeExprStatement, facade.NodeStatement); stmt != nil {
		if stmt.Span.EndByte > preserveEnd {
			preserveEnd = stmt.Span.EndByte
		}
		if stmt.Span.StartByte < preserveStart {
			// A statement that starts before the nominal block boundary
			// (can happen at the top level where block == nil) still
			// anchors the preserved region at its own start.
			preserveStart = stmt.Span.StartByte
		}
	}
	if preserveEnd < preserveStart {
		preserveEnd = preserveStart
	}
	if preserveEnd > len(source) {
		preserveEnd = len(source)
	}

	out := make([]byte, len(source))
	copy(out, source)
	for i := 0; i < len(out); i++ {
		if i >= preserveStart && i < preserveEnd {
			continue
		}
		if out[i] != '\n' {
			out[i] = ' '
		}
	}
	return string(out), nil
}

// PruneWord operates on a literal identifier: every token of source
// equal to word is preserved verbatim; every other token (including
// punctuation and other identifiers) is blanked, newlines excepted
// (spec.md §4.C "A separate word-mode prune").
func PruneWord(source, word string) string {
	out := []byte(source)
	i := 0
	for i < len(out) {
		if isIdentChar(out[i]) {
			start := i
			for i < len(out) && isIdentChar(out[i]) {
				i++
			}
			if string(out[start:i]) != word {
				blank(out, start, i)
			}
			continue
		}
		if out[i] != '\n' {
			out[i] = ' '
		}
		i++
	}
	return string(out)
}

func blank(b []byte, start, end int) {
	for i := start; i < end; i++ {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
}
