// Package jtypes holds the small value types shared across jcore's
// packages: document identity, positions, and the completion data model
// from spec.md §3.
package jtypes

import "fmt"

// URI identifies a document the way the editor protocol does: an
// absolute, scheme-qualified string. jcore never parses the scheme; it
// treats URI as an opaque comparable key.
type URI string

// Path returns the filesystem path backing a "file://" URI, stripping the
// scheme. Non-file URIs are returned unchanged.
func (u URI) Path() string {
	const prefix = "file://"
	if len(u) > len(prefix) && string(u[:len(prefix)]) == prefix {
		return string(u[len(prefix):])
	}
	return string(u)
}

// Version is the editor-protocol document version (§3: "monotonically
// nondecreasing per URI").
type Version int64

// Position is a zero-based (line, character) pair, matching the editor
// protocol's coordinate system used throughout spec.md's §4 operations.
type Position struct {
	Line      int
	Character int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Less orders positions in document order.
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

// Range is a half-open [Start, End) span of positions.
type Range struct {
	Start, End Position
}

// ContentChange is one entry of a didChange edit list (spec §4.A
// "change"). A nil Range means a full-document replacement; a non-nil
// Range means a range patch of RangeLength UTF-16 code units.
type ContentChange struct {
	Range       *Range
	RangeLength int
	Text        string
}

// CompletionContextFlags mirrors the flag set in spec.md §3's
// "Completion context" value type.
type CompletionContextFlags struct {
	InsideClass       bool
	InsideMethod      bool
	AddParens         bool
	AddSemicolon      bool
	IsAnnotation      bool
	IsCaseLabel       bool
	IsImport          bool
	IsMemberReference bool
}

// CompletionContext is the value type produced by the Parser for a
// cursor (spec.md §3).
type CompletionContext struct {
	Prefix   string
	Position Position
	Flags    CompletionContextFlags
}

// CandidateKind tags the variant of a Candidate (spec.md §3).
type CandidateKind int

const (
	CandidateElement CandidateKind = iota
	CandidateSnippet
	CandidateKeyword
	CandidateClassName
	CandidatePackagePart
)

func (k CandidateKind) String() string {
	switch k {
	case CandidateElement:
		return "Element"
	case CandidateSnippet:
		return "Snippet"
	case CandidateKeyword:
		return "Keyword"
	case CandidateClassName:
		return "ClassName"
	case CandidatePackagePart:
		return "PackagePart"
	default:
		return "Unknown"
	}
}

// Candidate is one entry of a completion result (spec.md §3): a tagged
// variant over {Element, Snippet, Keyword, ClassName, PackagePart}.
//
// Only the fields relevant to Kind are populated; callers switch on Kind
// before reading them, matching the Java reference's sealed-variant style
// translated into Go's explicit-field tagged-struct idiom.
type Candidate struct {
	Kind CandidateKind

	// Element: a reference into a resolved program element. ElementName is
	// its simple name, used for the dedup-by-simple-name rule in §4.E.
	ElementName string
	ElementRef  any

	// Snippet
	SnippetLabel string
	SnippetBody  string

	// Keyword
	Keyword string

	// ClassName
	Qualified  string
	IsImported bool

	// PackagePart
	PackagePrefix string
	PackageLast   string

	// SortKey is populated by the completion engine's ranking pass
	// (go-edlib + porter2, see SPEC_FULL.md §2); it is not part of the
	// spec's data model and callers may ignore it.
	SortKey float64
}

// SimpleName returns the string used for the dedup-by-simple-name rule
// (the completion builder applies that rule to every kind but snippets).
func (c Candidate) SimpleName() string {
	switch c.Kind {
	case CandidateElement:
		return c.ElementName
	case CandidateSnippet:
		return c.SnippetLabel
	case CandidateKeyword:
		return c.Keyword
	case CandidateClassName:
		if i := lastDot(c.Qualified); i >= 0 {
			return c.Qualified[i+1:]
		}
		return c.Qualified
	case CandidatePackagePart:
		return c.PackageLast
	default:
		return ""
	}
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
