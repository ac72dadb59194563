package tsfacade

import (
	"github.com/javaintel/jcore/internal/facade"
)

// semType is tsfacade's in-memory stand-in for a resolved Java type: a
// bag of members plus declared supertype names, harvested by a single
// lexical scan of one class/interface/enum body (no separate-compilation
// classpath resolution — spec.md §1 Non-goals).
type semType struct {
	name        string
	array       bool
	component   *semType
	enum        bool
	constants   []string
	members     []facade.Element
	superNames  []string
}

func (t *semType) Name() string              { return t.name }
func (t *semType) IsVoid() bool              { return false }
func (t *semType) IsArray() bool             { return t.array }
func (t *semType) ComponentType() facade.Type {
	if t.component == nil {
		return facade.VoidType
	}
	return t.component
}
func (t *semType) IsEnum() bool            { return t.enum }
func (t *semType) EnumConstants() []string { return t.constants }

// arrayOf wraps an element semType as its array form. Nothing in
// tsfacade calls it, so no indexed type is an array type.
func arrayOf(component *semType) *semType {
	return &semType{name: component.name + "[]", array: true, component: component}
}

// semElement is tsfacade's facade.Element: a field, method, local, or
// nested-type binding discovered while indexing a class body or scope.
type semElement struct {
	name       string
	kind       facade.ElementKind
	declared   facade.Type
	static     bool
	private    bool
	params     []facade.Type
	returnType facade.Type
}

func (e *semElement) Name() string              { return e.name }
func (e *semElement) Kind() facade.ElementKind   { return e.kind }
func (e *semElement) DeclaredType() facade.Type  { return e.declared }
func (e *semElement) IsStatic() bool             { return e.static }
func (e *semElement) IsPrivate() bool            { return e.private }
func (e *semElement) Params() []facade.Type      { return e.params }
func (e *semElement) ReturnType() facade.Type    { return e.returnType }

// semScope is a flat facade.Scope level: one set of bindings (a class
// body, a method body, a block) chained to its lexical parent.
type semScope struct {
	bindings map[string][]facade.Element
	order    []string
	parent   facade.Scope
	this     facade.Element
	super    facade.Element
	static   bool
}

func newSemScope(parent facade.Scope) *semScope {
	return &semScope{bindings: make(map[string][]facade.Element), parent: parent}
}

func (s *semScope) define(el facade.Element) {
	if _, ok := s.bindings[el.Name()]; !ok {
		s.order = append(s.order, el.Name())
	}
	s.bindings[el.Name()] = append(s.bindings[el.Name()], el)
}

func (s *semScope) Lookup(name string) []facade.Element { return s.bindings[name] }

func (s *semScope) All() []facade.Element {
	var out []facade.Element
	for _, name := range s.order {
		out = append(out, s.bindings[name]...)
	}
	return out
}

func (s *semScope) Parent() facade.Scope { return s.parent }

func (s *semScope) This() (facade.Element, bool) {
	if s.this != nil {
		return s.this, true
	}
	return nil, false
}

func (s *semScope) Super() (facade.Element, bool) {
	if s.super != nil {
		return s.super, true
	}
	return nil, false
}

func (s *semScope) IsStatic() bool { return s.static }

// indexTypes scans pt's declaration nodes (class/interface/enum) and
// populates f.types, the way the teacher's TreeSitterParser extracts
// symbols by walking declaration nodes and reading their "name"/
// "superclass"/"interfaces" fields. It is intentionally one flat pass:
// nested types are indexed under their own simple name, same as the
// top-level ones, since tsfacade never needs qualified nesting to
// satisfy GetTypeElement lookups in the §8 scenarios.
func (f *Facade) indexTypes(pt *facade.ParseTree) {
	if pt == nil || pt.Root == nil {
		return
	}
	pt.Root.Walk(func(n *facade.Node) bool {
		switch n.Kind {
		case facade.NodeClassDecl, facade.NodeInterfaceDecl, facade.NodeEnumDecl, facade.NodeAnnotationDecl:
			f.indexDecl(n)
		}
		return true
	})
}

func (f *Facade) indexDecl(n *facade.Node) {
	name := declName(n)
	if name == "" {
		return
	}
	st := &semType{name: name, enum: n.Kind == facade.NodeEnumDecl}

	var body *facade.Node
	for _, c := range n.Children {
		if c.Kind == facade.NodeBlock {
			body = c
		}
	}
	if body != nil {
		for _, c := range body.Children {
			switch c.Kind {
			case facade.NodeFieldDecl:
				st.members = append(st.members, fieldElements(c)...)
			case facade.NodeMethodDecl:
				if el := methodElement(c); el != nil {
					st.members = append(st.members, el)
				}
			case facade.NodeIdentifier:
				if st.enum {
					st.constants = append(st.constants, c.Text)
				}
			}
		}
	}

	st.superNames = superNames(n)

	f.semMu.Lock()
	f.types[name] = st
	f.semMu.Unlock()
}

// declName finds the identifier or type_identifier child that names a
// declaration node (tree-sitter-java's "class_declaration" etc. carry
// the name as a direct named child rather than a field, across several
// of its node kinds, so this takes the first identifier child).
func declName(n *facade.Node) string {
	for _, c := range n.Children {
		if c.Kind == facade.NodeIdentifier && c.Text != "" {
			return c.Text
		}
	}
	return ""
}

// superNames is a best-effort scan for extends/implements targets.
// tsfacade does not keep the raw tree-sitter node around after
// conversion, so instead of reading the "superclass"/"interfaces"
// fields directly it collects every type_identifier that is a direct
// child of the declaration and not also the declaration's own name.
func superNames(n *facade.Node) []string {
	var out []string
	seenName := false
	for _, c := range n.Children {
		if c.Kind == facade.NodeIdentifier {
			if !seenName {
				seenName = true
				continue
			}
			out = append(out, c.Text)
		}
	}
	return out
}

func fieldElements(n *facade.Node) []facade.Element {
	var out []facade.Element
	private := hasModifier(n, "private")
	static := hasModifier(n, "static")
	for _, c := range n.Children {
		if c.Kind == facade.NodeIdentifier {
			out = append(out, &semElement{
				name:     c.Text,
				kind:     facade.ElementField,
				declared: facade.VoidType,
				static:   static,
				private:  private,
			})
		}
	}
	return out
}

func methodElement(n *facade.Node) facade.Element {
	name := declName(n)
	if name == "" {
		return nil
	}
	return &semElement{
		name:       name,
		kind:       facade.ElementMethod,
		declared:   facade.VoidType,
		static:     hasModifier(n, "static"),
		private:    hasModifier(n, "private"),
		returnType: facade.VoidType,
	}
}

// hasModifier reports whether n's subtree contains a leaf token matching
// word (e.g. "private", "static"), which is how convertNode represents
// tree-sitter-java's modifier keywords since it does not special-case
// the "modifiers" node.
func hasModifier(n *facade.Node, word string) bool {
	found := false
	n.Walk(func(c *facade.Node) bool {
		if found {
			return false
		}
		if c.Kind == facade.NodeBlock {
			return false
		}
		if c.Text == word {
			found = true
			return false
		}
		return true
	})
	return found
}
