package completion

import (
	"context"
	"testing"

	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jtypes"
)

type fakeType struct {
	name      string
	void      bool
	array     bool
	component facade.Type
	enum      bool
	constants []string
}

func (t *fakeType) Name() string               { return t.name }
func (t *fakeType) IsVoid() bool                { return t.void }
func (t *fakeType) IsArray() bool               { return t.array }
func (t *fakeType) ComponentType() facade.Type  { return t.component }
func (t *fakeType) IsEnum() bool                { return t.enum }
func (t *fakeType) EnumConstants() []string     { return t.constants }

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

func (e *fakeElement) Name() string             { return e.name }
func (e *fakeElement) Kind() facade.ElementKind  { return e.kind }
func (e *fakeElement) DeclaredType() facade.Type { return e.typ }
func (e *fakeElement) IsStatic() bool            { return e.static }
func (e *fakeElement) IsPrivate() bool           { return e.private }
func (e *fakeElement) Params() []facade.Type     { return e.params }
func (e *fakeElement) ReturnType() facade.Type   { return e.ret }

type fakeScope struct {
	all    []facade.Element
	parent facade.Scope
	this   facade.Element
	static bool
}

func (s *fakeScope) Lookup(name string) []facade.Element {
	var out []facade.Element
	for _, e := range s.all {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}
func (s *fakeScope) All() []facade.Element { return s.all }
func (s *fakeScope) Parent() facade.Scope  { return s.parent }
func (s *fakeScope) This() (facade.Element, bool) {
	if s.this == nil {
		return nil, false
	}
	return s.this, true
}
func (s *fakeScope) Super() (facade.Element, bool) { return nil, false }
func (s *fakeScope) IsStatic() bool                { return s.static }

type fakeFacade struct {
	members map[string][]facade.Element
	supers  map[string][]facade.Type
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
func (f *fakeFacade) DirectSupertypes(t facade.Type) ([]facade.Type, error) {
	return f.supers[t.Name()], nil
}
func (f *fakeFacade) IsAssignable(from, to facade.Type) bool { return from.Name() == to.Name() }
func (f *fakeFacade) IsAccessible(scope facade.Scope, el facade.Element, owner facade.Type) bool {
	return true
}
func (f *fakeFacade) GetTypeElement(qualifiedName string) (facade.Type, bool) { return nil, false }

type fakeCatalog struct {
	jdk []string
	cp  []string
}

func (c *fakeCatalog) JDKClasses() []string       { return c.jdk }
func (c *fakeCatalog) ClassPathClasses() []string { return c.cp }

func ctxFlags(f jtypes.CompletionContextFlags, prefix string) jtypes.CompletionContext {
	return jtypes.CompletionContext{Prefix: prefix, Flags: f}
}

func names(cs []jtypes.Candidate) map[string]bool {
	out := make(map[string]bool, len(cs))
	for _, c := range cs {
		out[c.SimpleName()] = true
	}
	return out
}

func TestCompleteCaseLabel_EnumConstants(t *testing.T) {
	dayType := &fakeType{name: "Day", enum: true, constants: []string{"MONDAY", "TUESDAY", "WEDNESDAY"}}
	e := New(&fakeFacade{}, &fakeCatalog{}, nil, 0)

	req := Request{
		Context:      ctxFlags(jtypes.CompletionContextFlags{IsCaseLabel: true}, "T"),
		Scope:        &fakeScope{},
		SwitchedType: dayType,
	}
	got := names(e.Complete(context.Background(), req))
	if !got["TUESDAY"] || got["MONDAY"] || got["WEDNESDAY"] {
		t.Fatalf("expected only TUESDAY to match prefix T, got %v", got)
	}
}

func TestCompleteCaseLabel_FallsThroughWhenNotEnum(t *testing.T) {
	e := New(&fakeFacade{}, &fakeCatalog{}, nil, 0)
	scope := &fakeScope{all: []facade.Element{&fakeElement{name: "xyz", kind: facade.ElementLocal, typ: intType}}}

	req := Request{
		Context:      ctxFlags(jtypes.CompletionContextFlags{IsCaseLabel: true}, "xy"),
		Scope:        scope,
		SwitchedType: &fakeType{name: "int"},
	}
	got := names(e.Complete(context.Background(), req))
	if !got["xyz"] {
		t.Fatalf("expected fallback to identifier completion to surface local xyz, got %v", got)
	}
}

func TestCompleteStaticMembers_IncludesKeywords(t *testing.T) {
	staticField := &fakeElement{name: "EMPTY", kind: facade.ElementField, static: true, typ: &fakeType{name: "String"}}
	fac := &fakeFacade{members: map[string][]facade.Element{"String": {staticField}}}
	e := New(fac, &fakeCatalog{}, nil, 0)

	req := Request{
		Context:      ctxFlags(jtypes.CompletionContextFlags{}, ""),
		Scope:        &fakeScope{},
		Receiver:     &fakeType{name: "String"},
		ReceiverKind: facade.ElementClass,
	}
	got := names(e.Complete(context.Background(), req))
	if !got["EMPTY"] || !got["class"] || !got["this"] || !got["super"] {
		t.Fatalf("expected static member and class/this/super keywords, got %v", got)
	}
}

func TestCompleteInstanceMembers_ArrayLengthKeyword(t *testing.T) {
	arrType := &fakeType{name: "int[]", array: true, component: intType}
	e := New(&fakeFacade{}, &fakeCatalog{}, nil, 0)

	req := Request{
		Context:  ctxFlags(jtypes.CompletionContextFlags{}, ""),
		Scope:    &fakeScope{},
		Receiver: arrType,
	}
	got := names(e.Complete(context.Background(), req))
	if !got["length"] {
		t.Fatalf("expected length keyword for array receiver, got %v", got)
	}
}

func TestCompleteInstanceMembers_WalksSupertypesAndDedups(t *testing.T) {
	baseMethod := &fakeElement{name: "toString", kind: facade.ElementMethod}
	derivedMethod := &fakeElement{name: "toString", kind: facade.ElementMethod} // overridden, same simple name
	objectType := &fakeType{name: "Object"}
	widgetType := &fakeType{name: "Widget"}

	fac := &fakeFacade{
		members: map[string][]facade.Element{
			"Widget": {derivedMethod},
			"Object": {baseMethod},
		},
		supers: map[string][]facade.Type{
			"Widget": {objectType},
		},
	}
	e := New(fac, &fakeCatalog{}, nil, 0)

	req := Request{
		Context:  ctxFlags(jtypes.CompletionContextFlags{}, ""),
		Scope:    &fakeScope{},
		Receiver: widgetType,
	}
	got := e.Complete(context.Background(), req)
	count := 0
	for _, c := range got {
		if c.SimpleName() == "toString" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected toString deduplicated across supertypes, got %d occurrences", count)
	}
}

func TestCompleteIdentifier_ScopeLocalMatchesPrefix(t *testing.T) {
	local := &fakeElement{name: "counter", kind: facade.ElementLocal, typ: intType}
	staticImport := &fakeElement{name: "assertTrue", kind: facade.ElementMethod}
	scope := &fakeScope{all: []facade.Element{local}}
	cat := &fakeCatalog{jdk: []string{"java.util.List"}}
	e := New(&fakeFacade{}, cat, nil, 0)

	req := Request{
		Context:        ctxFlags(jtypes.CompletionContextFlags{}, "c"),
		Scope:          scope,
		StaticImports:  []facade.Element{staticImport},
		HasPackageDecl: true,
		HasTypeDecl:    true,
	}
	got := names(e.Complete(context.Background(), req))
	if !got["counter"] {
		t.Fatalf("expected local counter, got %v", got)
	}
}

func TestCompleteIdentifier_UppercasePrefixMatchesClassNames(t *testing.T) {
	cat := &fakeCatalog{jdk: []string{"java.util.List"}, cp: []string{"com.acme.Lister"}}
	e := New(&fakeFacade{}, cat, nil, 0)

	req := Request{
		Context:        ctxFlags(jtypes.CompletionContextFlags{}, "List"),
		Scope:          &fakeScope{},
		HasPackageDecl: true,
		HasTypeDecl:    true,
	}
	got := names(e.Complete(context.Background(), req))
	if !got["List"] {
		t.Fatalf("expected class name List admitted for uppercase prefix, got %v", got)
	}
}

func TestCompleteIdentifier_ClassNameCandidatesReflectActualImports(t *testing.T) {
	cat := &fakeCatalog{jdk: []string{"java.util.List", "java.util.Locale"}}
	e := New(&fakeFacade{}, cat, nil, 0)

	baseReq := Request{
		Context:        ctxFlags(jtypes.CompletionContextFlags{}, "L"),
		Scope:          &fakeScope{},
		HasPackageDecl: true,
		HasTypeDecl:    true,
	}

	withImport := baseReq
	withImport.Imports = []string{"java.util.List"}
	got := e.Complete(context.Background(), withImport)
	var sawList, sawLocale bool
	for _, c := range got {
		switch c.Qualified {
		case "java.util.List":
			sawList = true
			if !c.IsImported {
				t.Fatalf("expected java.util.List marked imported, got %+v", c)
			}
		case "java.util.Locale":
			sawLocale = true
			if c.IsImported {
				t.Fatalf("expected java.util.Locale marked not imported, got %+v", c)
			}
		}
	}
	if !sawList || !sawLocale {
		t.Fatalf("expected both class names as candidates, got %v", names(got))
	}

	withoutImport := baseReq
	got = e.Complete(context.Background(), withoutImport)
	for _, c := range got {
		if c.Qualified == "java.util.List" && c.IsImported {
			t.Fatalf("expected java.util.List not marked imported absent an import decl, got %+v", c)
		}
	}
}

func TestCompleteIdentifier_LowercasePrefixExcludesClassNames(t *testing.T) {
	cat := &fakeCatalog{jdk: []string{"java.util.List"}}
	e := New(&fakeFacade{}, cat, nil, 0)

	req := Request{
		Context:        ctxFlags(jtypes.CompletionContextFlags{}, "list"),
		Scope:          &fakeScope{},
		HasPackageDecl: true,
		HasTypeDecl:    true,
	}
	got := names(e.Complete(context.Background(), req))
	if got["List"] {
		t.Fatalf("expected class names excluded for lowercase prefix, got %v", got)
	}
}

func TestCompleteIdentifier_MissingPackageAndTypeDeclSnippets(t *testing.T) {
	e := New(&fakeFacade{}, &fakeCatalog{}, nil, 0)

	req := Request{
		Context:          ctxFlags(jtypes.CompletionContextFlags{}, ""),
		Scope:            &fakeScope{},
		HasPackageDecl:   false,
		HasTypeDecl:      false,
		SuggestedPackage: "com.acme",
		FileName:         "Widget.java",
	}
	got := e.Complete(context.Background(), req)
	var sawPackage, sawClass bool
	for _, c := range got {
		if c.Kind == jtypes.CandidateSnippet && c.SnippetLabel == "package" {
			sawPackage = true
		}
		if c.Kind == jtypes.CandidateSnippet && c.SnippetLabel == "class" && c.SnippetBody == "class Widget {\n}\n" {
			sawClass = true
		}
	}
	if !sawPackage || !sawClass {
		t.Fatalf("expected package and class snippets, got %+v", got)
	}
}

func TestBounding_TruncatesAndStopsAdding(t *testing.T) {
	var els []facade.Element
	for i := 0; i < 10; i++ {
		els = append(els, &fakeElement{name: string(rune('a' + i)), kind: facade.ElementLocal, typ: intType})
	}
	e := New(&fakeFacade{}, &fakeCatalog{}, nil, 3)

	req := Request{
		Context: ctxFlags(jtypes.CompletionContextFlags{}, ""),
		Scope:   &fakeScope{all: els},
	}
	got := e.Complete(context.Background(), req)
	if len(got) > 3 {
		t.Fatalf("expected bound of 3 candidates, got %d", len(got))
	}
}

func TestIrrelevantDeclarationsDontChangeResult(t *testing.T) {
	local := &fakeElement{name: "x", kind: facade.ElementLocal, typ: intType}
	scope := &fakeScope{all: []facade.Element{local}}
	e := New(&fakeFacade{}, &fakeCatalog{}, nil, 0)

	req := Request{Context: ctxFlags(jtypes.CompletionContextFlags{}, "x"), Scope: scope}
	before := names(e.Complete(context.Background(), req))

	scope.all = append(scope.all, &fakeElement{name: "unrelated", kind: facade.ElementLocal, typ: intType})
	after := names(e.Complete(context.Background(), req))

	if !before["x"] || !after["x"] {
		t.Fatalf("expected x present before and after, got before=%v after=%v", before, after)
	}
}
