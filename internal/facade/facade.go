package facade

import (
	"context"

	"github.com/javaintel/jcore/internal/jtypes"
)

// ElementKind classifies what a Scope binding or a member lookup result
// names.
type ElementKind int

const (
	ElementUnknown ElementKind = iota
	ElementLocal
	ElementParam
	ElementField
	ElementMethod
	ElementClass
	ElementPackage
)

// Type is the facade's view of a resolved type. It is deliberately small:
// only what the partial checker (§4.D) and Completion engine (§4.E) need
// to recover identifier/member/invocation/array/conditional results and
// to enumerate a switch's enum constants.
type Type interface {
	// Name returns the type's simple or qualified name.
	Name() string
	// IsVoid reports whether this is the "void sentinel" result the
	// partial checker returns on an unresolved expression (spec.md §3,
	// §9's "nullable sentinel" design note — callers test IsVoid instead
	// of comparing against a magic value).
	IsVoid() bool
	// IsArray / ComponentType support the array-access rule of §4.D.
	IsArray() bool
	ComponentType() Type
	// IsEnum / EnumConstants support case-label completion (§4.E.1).
	IsEnum() bool
	EnumConstants() []string
}

// Element is a resolved program element: a local, a field, a method, or
// a type. Method elements additionally expose Params/ReturnType for
// overload resolution (§4.D "Method invocation").
type Element interface {
	Name() string
	Kind() ElementKind
	// DeclaredType is the element's declared type for
	// locals/params/fields; for methods it is the same as ReturnType().
	DeclaredType() Type
	IsStatic() bool
	IsPrivate() bool
	// Params/ReturnType are only meaningful when Kind() == ElementMethod.
	Params() []Type
	ReturnType() Type
}

// Scope is an ordered chain of lexical environments at a program point
// (GLOSSARY). Lookup searches only this level; callers walk Parent() to
// search enclosing scopes, matching §4.D's "first enclosing scope
// containing a local element with this name".
type Scope interface {
	// Lookup returns every binding at this scope level with the given
	// name (a type can have multiple methods with one name — overloads —
	// but at most one non-method binding).
	Lookup(name string) []Element
	// All enumerates every binding visible at this scope level, for the
	// Completion engine's identifier dispatch (§4.E.5.a), which needs
	// every local whose name matches a prefix rather than an exact name.
	All() []Element
	Parent() Scope
	This() (Element, bool)
	Super() (Element, bool)
	IsStatic() bool
}

// Diagnostic is one compiler-reported error or warning (spec.md §6
// "reportErrors() → Diagnostics").
type Diagnostic struct {
	URI      jtypes.URI
	Position jtypes.Position
	Message  string
	Severity string
}

// SignatureHelp is the result of FocusSession.signatureHelp — one entry
// per overload visible at the call site (spec.md §6, exercised by the §8
// scenario 4 "Overload signature help").
type SignatureHelp struct {
	Label      string
	Parameters []string
}

// FocusSession is a compilation scoped to one cursor location, typically
// operating on pruned source (GLOSSARY "Focus session"). It is a scoped
// resource: acquired at the start of a query and released on every exit
// path including cancellation (spec.md §5).
type FocusSession interface {
	Scope(pos jtypes.Position) (Scope, error)
	Element(uri jtypes.URI, pos jtypes.Position) (Element, bool)
	TypeMirror(pos jtypes.Position) (Type, bool)
	SignatureHelp(uri jtypes.URI, pos jtypes.Position) ([]SignatureHelp, error)
	CompleteIdentifiers(prefix string) ([]Element, error)
	CompleteMembers(receiver Type, prefix string) ([]Element, error)
	Close() error
}

// BatchSession compiles a set of files together (spec.md §6).
type BatchSession interface {
	ReportErrors() []Diagnostic
	FixImports(uri jtypes.URI) ([]string, error)
	Close() error
}

// CompilerFacade is the abstract boundary named in spec.md §6. jcore's
// own packages (pruner, check, completion, query) depend only on this
// interface; internal/facade/tsfacade is the single concrete
// implementation this module ships.
type CompilerFacade interface {
	ParseFile(uri jtypes.URI, source string) (*ParseTree, error)
	CompileFocus(ctx context.Context, uri jtypes.URI, pos jtypes.Position, source string) (FocusSession, error)
	CompileBatch(ctx context.Context, files map[jtypes.URI]string) (BatchSession, error)

	GetAllMembers(t Type) ([]Element, error)
	DirectSupertypes(t Type) ([]Type, error)
	IsAssignable(from, to Type) bool
	IsAccessible(scope Scope, el Element, owner Type) bool
	GetTypeElement(qualifiedName string) (Type, bool)
}

// VoidType is the shared sentinel instance returned wherever spec.md §3/
// §4.D call for "fall back to void-type sentinel".
var VoidType Type = voidType{}

type voidType struct{}

func (voidType) Name() string           { return "void" }
func (voidType) IsVoid() bool           { return true }
func (voidType) IsArray() bool          { return false }
func (voidType) ComponentType() Type    { return VoidType }
func (voidType) IsEnum() bool           { return false }
func (voidType) EnumConstants() []string { return nil }
