// Package jerrors defines the typed error kinds of spec.md §7. Each
// query-facing failure is classified as one of a fixed set of Kinds so
// callers (and internal/query's orchestration) can apply the
// recoverable-vs-fatal propagation policy uniformly instead of string
// matching.
package jerrors

import (
	"fmt"
	"time"
)

// Kind enumerates the error categories of spec.md §7.
type Kind string

const (
	// KindIO: file missing, read error. Fatal to the query (§7).
	KindIO Kind = "io"
	// KindVersionConflict: a stale change event. Logged and dropped,
	// never surfaced to the query caller (§7).
	KindVersionConflict Kind = "version_conflict"
	// KindResolution: symbol not found, type unreachable. Non-fatal;
	// the engine returns an empty/partial result (§7).
	KindResolution Kind = "resolution"
	// KindTooManyCandidates: non-fatal; list truncated, one warning
	// emitted per query (§7).
	KindTooManyCandidates Kind = "too_many_candidates"
	// KindCancelled: not an error; a dedicated cancelled outcome (§7).
	KindCancelled Kind = "cancelled"
	// KindFacadeInternal: caught at each Compiler Facade call site; the
	// query returns an empty list and logs a warning (§7).
	KindFacadeInternal Kind = "facade_internal"
)

// QueryError is the error type returned along jcore's query path. It
// chains context the way the teacher's *IndexingError does
// (.WithFile/.WithRecoverable), but the Kind itself (not a mutable flag)
// determines recoverability — see Recoverable().
type QueryError struct {
	Kind       Kind
	URI        string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// New creates a QueryError of the given kind for the named operation.
func New(kind Kind, op string, err error) *QueryError {
	return &QueryError{
		Kind:       kind,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithURI attaches the document URI this error concerns.
func (e *QueryError) WithURI(uri string) *QueryError {
	e.URI = uri
	return e
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Kind, e.Operation, e.URI, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.Operation, e.Underlying)
}

// Unwrap supports errors.Is/As against the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Underlying
}

// Recoverable reports whether the engine should keep assembling a partial
// result (true) or abort the query outright (false), per §7's
// propagation policy. Only IO failures are fatal; everything else —
// including version conflicts, which are dropped before a query begins —
// is recoverable from the orchestrator's point of view.
func (e *QueryError) Recoverable() bool {
	return e.Kind != KindIO
}
