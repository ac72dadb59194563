package check

import (
	"context"
	"testing"

	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jtypes"
)

// fakeType is a minimal facade.Type for exercising Check without a real
// compiler.
type fakeType struct {
	name      string
	void      bool
	array     bool
	component facade.Type
	enum      bool
	constants []string
}

func (t *fakeType) Name() string             { return t.name }
func (t *fakeType) IsVoid() bool             { return t.void }
func (t *fakeType) IsArray() bool            { return t.array }
func (t *fakeType) ComponentType() facade.Type { return t.component }
func (t *fakeType) IsEnum() bool             { return t.enum }
func (t *fakeType) EnumConstants() []string  { return t.constants }

var stringType = &fakeType{name: "String"}
var intType = &fakeType{name: "int"}

type fakeElement struct {
	name    string
	kind    facade.ElementKind
	typ     facade.Type
	static  bool
	private bool
	params  []facade.Type
	ret     facade.Type
}

func (e *fakeElement) Name() string               { return e.name }
func (e *fakeElement) Kind() facade.ElementKind    { return e.kind }
func (e *fakeElement) DeclaredType() facade.Type   { return e.typ }
func (e *fakeElement) IsStatic() bool              { return e.static }
func (e *fakeElement) IsPrivate() bool             { return e.private }
func (e *fakeElement) Params() []facade.Type       { return e.params }
func (e *fakeElement) ReturnType() facade.Type     { return e.ret }

type fakeScope struct {
	bindings map[string][]facade.Element
	parent   facade.Scope
}

func (s *fakeScope) Lookup(name string) []facade.Element { return s.bindings[name] }
func (s *fakeScope) All() []facade.Element {
	var out []facade.Element
	for _, els := range s.bindings {
		out = append(out, els...)
	}
	return out
}
func (s *fakeScope) Parent() facade.Scope { return s.parent }
func (s *fakeScope) This() (facade.Element, bool)         { return nil, false }
func (s *fakeScope) Super() (facade.Element, bool)        { return nil, false }
func (s *fakeScope) IsStatic() bool                       { return false }

type fakeFacade struct {
	members map[string][]facade.Element // keyed by type name
}

func (f *fakeFacade) ParseFile(uri jtypes.URI, source string) (*facade.ParseTree, error) {
	return nil, nil
}
func (f *fakeFacade) CompileFocus(ctx context.Context, uri jtypes.URI, pos jtypes.Position, source string) (facade.FocusSession, error) {
	return nil, nil
}
func (f *fakeFacade) CompileBatch(ctx context.Context, files map[jtypes.URI]string) (facade.BatchSession, error) {
	return nil, nil
}
func (f *fakeFacade) GetAllMembers(t facade.Type) ([]facade.Element, error) {
	return f.members[t.Name()], nil
}
func (f *fakeFacade) DirectSupertypes(t facade.Type) ([]facade.Type, error) { return nil, nil }
func (f *fakeFacade) IsAssignable(from, to facade.Type) bool                { return from.Name() == to.Name() }
func (f *fakeFacade) IsAccessible(scope facade.Scope, el facade.Element, owner facade.Type) bool {
	return true
}
func (f *fakeFacade) GetTypeElement(qualifiedName string) (facade.Type, bool) { return nil, false }

func TestCheckIdentifier_PrefersNonMethodBinding(t *testing.T) {
	methodEl := &fakeElement{name: "x", kind: facade.ElementMethod, ret: intType}
	fieldEl := &fakeElement{name: "x", kind: facade.ElementField, typ: stringType}
	scope := &fakeScope{bindings: map[string][]facade.Element{"x": {methodEl, fieldEl}}}

	expr := &Expr{Kind: ExprIdentifier, Name: "x"}
	got := Check(scope, &fakeFacade{}, expr, nil)
	if got.Name() != "String" {
		t.Fatalf("expected non-method binding String, got %v", got.Name())
	}
}

func TestCheckIdentifier_FallsBackToOuterScope(t *testing.T) {
	outer := &fakeScope{bindings: map[string][]facade.Element{
		"outerField": {&fakeElement{name: "outerField", kind: facade.ElementField, typ: intType}},
	}}
	inner := &fakeScope{bindings: map[string][]facade.Element{}, parent: outer}

	expr := &Expr{Kind: ExprIdentifier, Name: "outerField"}
	got := Check(inner, &fakeFacade{}, expr, nil)
	if got.Name() != "int" {
		t.Fatalf("expected int from enclosing scope, got %v", got.Name())
	}
}

func TestCheckIdentifier_UnresolvedYieldsVoid(t *testing.T) {
	scope := &fakeScope{bindings: map[string][]facade.Element{}}
	expr := &Expr{Kind: ExprIdentifier, Name: "nope"}
	got := Check(scope, &fakeFacade{}, expr, nil)
	if !got.IsVoid() {
		t.Fatalf("expected void sentinel for unresolved identifier, got %v", got.Name())
	}
}

func TestCheckIdentifier_IrrelevantDeclarationsDontChangeResult(t *testing.T) {
	fieldEl := &fakeElement{name: "x", kind: facade.ElementField, typ: stringType}
	scope := &fakeScope{bindings: map[string][]facade.Element{"x": {fieldEl}}}
	expr := &Expr{Kind: ExprIdentifier, Name: "x"}
	before := Check(scope, &fakeFacade{}, expr, nil)

	scope.bindings["unrelated"] = []facade.Element{&fakeElement{name: "unrelated", kind: facade.ElementField, typ: intType}}
	after := Check(scope, &fakeFacade{}, expr, nil)

	if before.Name() != after.Name() {
		t.Fatalf("adding an irrelevant declaration changed the result: %v -> %v", before.Name(), after.Name())
	}
}

func TestCheckMemberSelect(t *testing.T) {
	lengthField := &fakeElement{name: "length", kind: facade.ElementField, typ: intType}
	fac := &fakeFacade{members: map[string][]facade.Element{"String": {lengthField}}}
	scope := &fakeScope{bindings: map[string][]facade.Element{"s": {&fakeElement{name: "s", kind: facade.ElementField, typ: stringType}}}}

	expr := &Expr{Kind: ExprMemberSelect, Receiver: &Expr{Kind: ExprIdentifier, Name: "s"}, Name: "length"}
	got := Check(scope, fac, expr, nil)
	if got.Name() != "int" {
		t.Fatalf("expected int, got %v", got.Name())
	}
}

func TestCheckMemberSelect_VoidReceiverPropagates(t *testing.T) {
	scope := &fakeScope{bindings: map[string][]facade.Element{}}
	expr := &Expr{Kind: ExprMemberSelect, Receiver: &Expr{Kind: ExprIdentifier, Name: "missing"}, Name: "length"}
	got := Check(scope, &fakeFacade{}, expr, nil)
	if !got.IsVoid() {
		t.Fatalf("expected void, got %v", got.Name())
	}
}

func TestCheckInvocation_SingleOverloadUnconditional(t *testing.T) {
	printMethod := &fakeElement{name: "print", kind: facade.ElementMethod, params: []facade.Type{stringType}, ret: &fakeType{name: "void", void: true}}
	scope := &fakeScope{bindings: map[string][]facade.Element{"print": {printMethod}}}

	expr := &Expr{Kind: ExprInvocation, Name: "print", Args: []*Expr{{Kind: ExprIdentifier, Name: "missingArg"}}}
	got := Check(scope, &fakeFacade{}, expr, nil)
	if got.Name() != "void" {
		t.Fatalf("single overload should return unconditionally even if args don't resolve, got %v", got.Name())
	}
}

func TestCheckInvocation_PicksMatchingOverload(t *testing.T) {
	printInt := &fakeElement{name: "print", kind: facade.ElementMethod, params: []facade.Type{intType}, ret: intType}
	printStr := &fakeElement{name: "print", kind: facade.ElementMethod, params: []facade.Type{stringType}, ret: stringType}
	scope := &fakeScope{bindings: map[string][]facade.Element{
		"print": {printInt, printStr},
		"s":     {&fakeElement{name: "s", kind: facade.ElementField, typ: stringType}},
	}}

	expr := &Expr{Kind: ExprInvocation, Name: "print", Args: []*Expr{{Kind: ExprIdentifier, Name: "s"}}}
	got := Check(scope, &fakeFacade{}, expr, nil)
	if got.Name() != "String" {
		t.Fatalf("expected overload matching String argument, got %v", got.Name())
	}
}

func TestCheckArrayAccess(t *testing.T) {
	arrType := &fakeType{name: "int[]", array: true, component: intType}
	scope := &fakeScope{bindings: map[string][]facade.Element{"arr": {&fakeElement{name: "arr", kind: facade.ElementField, typ: arrType}}}}
	expr := &Expr{Kind: ExprArrayAccess, Receiver: &Expr{Kind: ExprIdentifier, Name: "arr"}, Index: &Expr{Kind: ExprIdentifier, Name: "i"}}
	got := Check(scope, &fakeFacade{}, expr, nil)
	if got.Name() != "int" {
		t.Fatalf("expected int component type, got %v", got.Name())
	}
}

func TestCheckConditional_AlwaysReturnsTrueBranch(t *testing.T) {
	scope := &fakeScope{bindings: map[string][]facade.Element{
		"a": {&fakeElement{name: "a", kind: facade.ElementField, typ: stringType}},
		"b": {&fakeElement{name: "b", kind: facade.ElementField, typ: intType}},
	}}
	expr := &Expr{
		Kind: ExprConditional,
		Cond: &Expr{Kind: ExprIdentifier, Name: "cond"},
		Then: &Expr{Kind: ExprIdentifier, Name: "a"},
		Else: &Expr{Kind: ExprIdentifier, Name: "b"},
	}
	got := Check(scope, &fakeFacade{}, expr, nil)
	if got.Name() != "String" {
		t.Fatalf("expected true-branch type String regardless of branches, got %v", got.Name())
	}
}

func TestCheckParenthesized_PassThrough(t *testing.T) {
	scope := &fakeScope{bindings: map[string][]facade.Element{"a": {&fakeElement{name: "a", kind: facade.ElementField, typ: stringType}}}}
	expr := &Expr{Kind: ExprParenthesized, Inner: &Expr{Kind: ExprIdentifier, Name: "a"}}
	got := Check(scope, &fakeFacade{}, expr, nil)
	if got.Name() != "String" {
		t.Fatalf("expected pass-through String, got %v", got.Name())
	}
}

func TestCheck_RetainedPairOverridesSubtree(t *testing.T) {
	scope := &fakeScope{bindings: map[string][]facade.Element{}}
	node := &facade.Node{Kind: facade.NodeIdentifier, Text: "complex"}
	expr := &Expr{Kind: ExprIdentifier, Name: "complex", Node: node}

	retained := &Retained{Node: node, Type: stringType}
	got := Check(scope, &fakeFacade{}, expr, retained)
	if got.Name() != "String" {
		t.Fatalf("expected retained type to win, got %v", got.Name())
	}
}
