package pruner

import (
	"strings"
	"testing"

	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/facade/tsfacade"
	"github.com/javaintel/jcore/internal/jtypes"
)

const pruneSource = `package com.acme;

public class Greeter {
    private String name;

    public String greet() {
        return name.trim();
    }
}
`

func parseFixture(t *testing.T) *facade.ParseTree {
	t.Helper()
	f, err := tsfacade.New()
	if err != nil {
		t.Fatalf("tsfacade.New: %v", err)
	}
	pt, err := f.ParseFile(jtypes.URI("file:///Greeter.java"), pruneSource)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return pt
}

// lines splits s on "\n" without dropping empty trailing entries, so
// line indices line up with jtypes.Position.Line.
func lines(s string) []string {
	return strings.Split(s, "\n")
}

func TestPrune_OutputIsIdenticalLength(t *testing.T) {
	pt := parseFixture(t)
	// Right after "name." on the "return name.trim();" line.
	out, err := Prune(pt, jtypes.Position{Line: 6, Character: 20})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(out) != len(pt.Source) {
		t.Fatalf("pruned length %d != source length %d", len(out), len(pt.Source))
	}
}

func TestPrune_PreservesNewlinePositions(t *testing.T) {
	pt := parseFixture(t)
	out, err := Prune(pt, jtypes.Position{Line: 6, Character: 20})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	for i := 0; i < len(pt.Source); i++ {
		if pt.Source[i] == '\n' && out[i] != '\n' {
			t.Fatalf("newline at byte %d was not preserved (got %q)", i, out[i])
		}
		if pt.Source[i] != '\n' && out[i] == '\n' {
			t.Fatalf("byte %d gained a newline it didn't have in source", i)
		}
	}
}

// TestPrune_RetainsMemberAccessChainRegardlessOfCursorDepth covers the
// §4.C edge case: the cursor sits mid-chain (right after "name.") yet
// the whole "name.trim()" receiver chain and its enclosing statement
// must survive un-blanked, since the receiver's type is the whole point
// of the query.
func TestPrune_RetainsMemberAccessChainRegardlessOfCursorDepth(t *testing.T) {
	pt := parseFixture(t)
	out, err := Prune(pt, jtypes.Position{Line: 6, Character: 20})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	gotLine := lines(out)[6]
	wantLine := lines(pt.Source)[6]
	if gotLine != wantLine {
		t.Fatalf("expected the cursor's statement line untouched, got %q want %q", gotLine, wantLine)
	}
	if !strings.Contains(gotLine, "name.trim()") {
		t.Fatalf("expected the full receiver chain preserved, got %q", gotLine)
	}
}

// TestPrune_BlanksOutsideTheStatementAndItsBlock checks that a field
// declaration outside the cursor's enclosing block is blanked to
// whitespace, not merely left alone.
func TestPrune_BlanksOutsideTheStatementAndItsBlock(t *testing.T) {
	pt := parseFixture(t)
	out, err := Prune(pt, jtypes.Position{Line: 6, Character: 20})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	fieldLine := lines(out)[3]
	if strings.TrimSpace(fieldLine) != "" {
		t.Fatalf("expected the field declaration line blanked, got %q", fieldLine)
	}
}

func TestPrune_TopLevelCursorPrunesToCompilationUnitBoundary(t *testing.T) {
	pt := parseFixture(t)
	// Mid "com" in "package com.acme;" — outside any block, and the
	// package declaration has no enclosing statement node either, so
	// §4.C's "block not identifiable" edge case applies: only the bytes
	// up to the cursor are preserved.
	pos := jtypes.Position{Line: 0, Character: 10}
	out, err := Prune(pt, pos)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(out) != len(pt.Source) {
		t.Fatalf("pruned length %d != source length %d", len(out), len(pt.Source))
	}
	cursor := facade.OffsetAt(pt.Source, pos)
	if out[:cursor] != pt.Source[:cursor] {
		t.Fatalf("expected everything up to the cursor preserved, got %q want %q", out[:cursor], pt.Source[:cursor])
	}
	if strings.Contains(lines(out)[2], "Greeter") {
		t.Fatalf("expected the unrelated class declaration line blanked, got %q", lines(out)[2])
	}
}

func TestPruneWord_PreservesOnlyMatchingWord(t *testing.T) {
	const source = "int total = total + delta;"
	out := PruneWord(source, "total")
	if len(out) != len(source) {
		t.Fatalf("pruned length %d != source length %d", len(out), len(source))
	}
	if strings.Contains(out, "int") || strings.Contains(out, "delta") {
		t.Fatalf("expected every non-matching identifier blanked, got %q", out)
	}
	if strings.Count(out, "total") != 2 {
		t.Fatalf("expected both occurrences of the target word preserved, got %q", out)
	}
}

func TestPruneWord_PreservesNewlines(t *testing.T) {
	const source = "total\ndelta\ntotal"
	out := PruneWord(source, "total")
	if strings.Count(out, "\n") != strings.Count(source, "\n") {
		t.Fatalf("expected newline count preserved, got %q", out)
	}
	if strings.Contains(out, "delta") {
		t.Fatalf("expected 'delta' blanked, got %q", out)
	}
}
