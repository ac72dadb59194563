package tsfacade

import (
	"sort"
	"strings"

	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jtypes"
)

// focusSession is the facade.FocusSession tsfacade hands back from
// CompileFocus: a single parsed file plus the scope chain recovered by
// walking from the root down to whatever node contains the query
// position (spec.md §6 "a compilation scoped to one cursor location").
type focusSession struct {
	facade *Facade
	tree   *facade.ParseTree
}

// Scope rebuilds the lexical chain enclosing pos: one semScope per
// enclosing class/method/block, innermost first, each chained to its
// Parent(). This mirrors how the teacher's symbol-table builder nests
// scopes one level per enclosing block rather than flattening them.
func (s *focusSession) Scope(pos jtypes.Position) (facade.Scope, error) {
	if s.tree == nil || s.tree.Root == nil {
		return newSemScope(nil), nil
	}
	target := s.tree.Root.SmallestContaining(pos)
	if target == nil {
		target = s.tree.Root
	}

	var chain []*facade.Node
	for cur := target; cur != nil; cur = cur.Parent {
		switch cur.Kind {
		case facade.NodeClassDecl, facade.NodeInterfaceDecl, facade.NodeEnumDecl, facade.NodeMethodDecl, facade.NodeBlock:
			chain = append(chain, cur)
		}
	}

	var parent facade.Scope
	for i := len(chain) - 1; i >= 0; i-- {
		parent = scopeForNode(s.facade, chain[i], parent)
	}
	if parent == nil {
		parent = newSemScope(nil)
	}
	return parent, nil
}

// scopeForNode builds one scope level for an enclosing declaration or
// block node, reusing the semantic index entry when the node is a type
// declaration so This()/members line up with GetAllMembers.
func scopeForNode(f *Facade, n *facade.Node, parent facade.Scope) *semScope {
	sc := newSemScope(parent)
	sc.static = parent != nil && parent.IsStatic()

	switch n.Kind {
	case facade.NodeClassDecl, facade.NodeInterfaceDecl, facade.NodeEnumDecl:
		name := declName(n)
		f.semMu.RLock()
		st, ok := f.types[name]
		f.semMu.RUnlock()
		if ok {
			for _, m := range st.members {
				sc.define(m)
			}
			sc.this = &semElement{name: "this", kind: facade.ElementField, declared: st}
		}
	case facade.NodeMethodDecl:
		sc.static = sc.static || hasModifier(n, "static")
		for _, p := range methodParams(n) {
			sc.define(p)
		}
	case facade.NodeBlock:
		for _, c := range n.Children {
			if c.Kind == facade.NodeStatement || c.Kind == facade.NodeExprStatement {
				for _, local := range localsIn(c) {
					sc.define(local)
				}
			}
		}
	}
	return sc
}

// methodParams collects the formal parameter names out of a method
// declaration's argument-list-shaped children (tree-sitter-java keeps
// "formal_parameters" as an unnamed node kind here, so convertNode
// falls through to the default case and this walks every identifier
// between the method name and its body).
func methodParams(n *facade.Node) []facade.Element {
	var out []facade.Element
	sawName := false
	for _, c := range n.Children {
		if c.Kind == facade.NodeIdentifier {
			if !sawName {
				sawName = true
				continue
			}
			out = append(out, &semElement{name: c.Text, kind: facade.ElementParam, declared: facade.VoidType})
		}
		if c.Kind == facade.NodeBlock {
			break
		}
	}
	return out
}

// localsIn extracts locals declared by one statement node. Only the
// variable's name is recorded; its declared type is the void sentinel,
// so checking a local identifier yields void.
func localsIn(n *facade.Node) []facade.Element {
	var out []facade.Element
	skippedType := false
	for _, c := range n.Children {
		if c.Kind == facade.NodeIdentifier {
			if !skippedType {
				skippedType = true
				continue
			}
			out = append(out, &semElement{name: c.Text, kind: facade.ElementLocal, declared: facade.VoidType})
		}
	}
	return out
}

// Element resolves the identifier under pos against the scope chain.
func (s *focusSession) Element(uri jtypes.URI, pos jtypes.Position) (facade.Element, bool) {
	if s.tree == nil || s.tree.Root == nil {
		return nil, false
	}
	target := s.tree.Root.SmallestContaining(pos)
	if target == nil || target.Kind != facade.NodeIdentifier {
		return nil, false
	}
	scope, err := s.Scope(pos)
	if err != nil {
		return nil, false
	}
	for cur := scope; cur != nil; cur = cur.Parent() {
		if els := cur.Lookup(target.Text); len(els) > 0 {
			return els[0], true
		}
	}
	return nil, false
}

// TypeMirror reports the declared type of the element at pos, if any.
func (s *focusSession) TypeMirror(pos jtypes.Position) (facade.Type, bool) {
	el, ok := s.Element(s.tree.URI, pos)
	if !ok || el.DeclaredType() == nil {
		return nil, false
	}
	return el.DeclaredType(), true
}

// SignatureHelp returns one entry per overload of the method named at
// the invocation enclosing pos.
func (s *focusSession) SignatureHelp(uri jtypes.URI, pos jtypes.Position) ([]facade.SignatureHelp, error) {
	if s.tree == nil || s.tree.Root == nil {
		return nil, nil
	}
	target := s.tree.Root.SmallestContaining(pos)
	if target == nil {
		return nil, nil
	}
	invocation := target.EnclosingOfKind(facade.NodeMethodInvocation)
	if invocation == nil || len(invocation.Children) < 2 {
		return nil, nil
	}
	name := invocation.Children[1]
	scope, err := s.Scope(pos)
	if err != nil {
		return nil, err
	}
	var help []facade.SignatureHelp
	for cur := scope; cur != nil; cur = cur.Parent() {
		for _, el := range cur.Lookup(name.Text) {
			if el.Kind() != facade.ElementMethod {
				continue
			}
			params := make([]string, 0, len(el.Params()))
			for _, p := range el.Params() {
				params = append(params, p.Name())
			}
			help = append(help, facade.SignatureHelp{Label: el.Name(), Parameters: params})
		}
	}
	return help, nil
}

// CompleteIdentifiers enumerates every scope binding whose name starts
// with prefix, walking outward through Parent() from the scope at the
// start of the file (position 0:0). internal/completion does not call it;
// its identifier dispatch reads Request.Scope directly.
func (s *focusSession) CompleteIdentifiers(prefix string) ([]facade.Element, error) {
	scope, err := s.Scope(jtypes.Position{})
	if err != nil {
		return nil, err
	}
	var out []facade.Element
	seen := map[string]bool{}
	for cur := scope; cur != nil; cur = cur.Parent() {
		for _, el := range cur.All() {
			if seen[el.Name()] {
				continue
			}
			if prefix == "" || strings.HasPrefix(el.Name(), prefix) {
				out = append(out, el)
				seen[el.Name()] = true
			}
		}
	}
	return out, nil
}

// CompleteMembers enumerates receiver's own members matching prefix,
// via the facade's GetAllMembers (transitive supertype walking is a
// caller concern, as GetAllMembers' doc comment notes).
func (s *focusSession) CompleteMembers(receiver facade.Type, prefix string) ([]facade.Element, error) {
	members, err := s.facade.GetAllMembers(receiver)
	if err != nil {
		return nil, err
	}
	var out []facade.Element
	for _, m := range members {
		if prefix == "" || strings.HasPrefix(m.Name(), prefix) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Close releases the focus session. tsfacade holds no per-session
// resources beyond the parsed tree (already closed in ParseFile), so
// Close is a no-op satisfying the interface's scoped-resource contract.
func (s *focusSession) Close() error { return nil }

// batchSession is the facade.BatchSession CompileBatch returns: every
// file in the batch is already indexed into f.types by the time this
// is constructed. classes/sourcepath are a snapshot of whatever the
// owning Facade had wired via SetCatalogs at CompileBatch time.
type batchSession struct {
	facade     *Facade
	trees      map[jtypes.URI]*facade.ParseTree
	classes    ClassCatalog
	sourcepath SourcepathIndex
}

// ReportErrors always returns no diagnostics: tsfacade is a best-effort
// syntactic index, not a real compiler front-end (spec.md §1
// Non-goals), so it has no error-reporting pass to run.
func (b *batchSession) ReportErrors() []facade.Diagnostic { return nil }

// FixImports suggests a fully-qualified name for every unresolved
// identifier in uri's source that has no matching import declaration:
// names already in the facade's type index (b.facade.types, which holds
// every type parsed so far, not only this batch's) need no import, so
// only names the JDK/classpath/sourcepath catalogs resolve
// are suggested, each already carrying its full classpath name (spec.md
// :179's "fixImports returns a set containing java.util.List" scenario).
func (b *batchSession) FixImports(uri jtypes.URI) ([]string, error) {
	tree, ok := b.trees[uri]
	if !ok || tree.Root == nil {
		return nil, nil
	}
	pkg := packageNameOf(tree.Root)

	imported := map[string]bool{}
	tree.Root.Walk(func(n *facade.Node) bool {
		if n.Kind != facade.NodeImportDecl {
			return true
		}
		n.Walk(func(c *facade.Node) bool {
			if c.Kind == facade.NodeIdentifier && c.Text != "" {
				imported[c.Text] = true
			}
			return true
		})
		return true
	})

	b.facade.semMu.RLock()
	defer b.facade.semMu.RUnlock()

	seen := map[string]bool{}
	var suggestions []string
	tree.Root.Walk(func(n *facade.Node) bool {
		if n.Kind != facade.NodeIdentifier || n.Text == "" {
			return true
		}
		if imported[n.Text] || seen[n.Text] {
			return true
		}
		if _, ok := b.facade.types[n.Text]; ok {
			return true // already in the type index; no import needed
		}
		if qualified, ok := resolveQualifiedName(n.Text, pkg, b.classes, b.sourcepath); ok {
			suggestions = append(suggestions, qualified)
			seen[n.Text] = true
		}
		return true
	})
	sort.Strings(suggestions)
	return suggestions, nil
}

// packageNameOf reconstructs the file's own package declaration as a
// dotted name, needed to ask the sourcepath index for same-package /
// public classes with the right exclusion.
func packageNameOf(root *facade.Node) string {
	for _, c := range root.Children {
		if c.Kind != facade.NodePackageDecl {
			continue
		}
		var parts []string
		c.Walk(func(n *facade.Node) bool {
			if n.Kind == facade.NodeIdentifier && n.Text != "" {
				parts = append(parts, n.Text)
			}
			return true
		})
		return strings.Join(parts, ".")
	}
	return ""
}

// resolveQualifiedName looks up simple across the JDK, classpath, and
// sourcepath catalogs (in that order) and returns the first
// fully-qualified name whose last segment matches.
func resolveQualifiedName(simple, pkg string, classes ClassCatalog, sourcepath SourcepathIndex) (string, bool) {
	if classes != nil {
		if qn, ok := findBySimpleName(simple, classes.JDKClasses()); ok {
			return qn, true
		}
		if qn, ok := findBySimpleName(simple, classes.ClassPathClasses()); ok {
			return qn, true
		}
	}
	if sourcepath != nil {
		if qn, ok := findBySimpleName(simple, sourcepath.SamePackageClasses(pkg)); ok {
			return qn, true
		}
		if qn, ok := findBySimpleName(simple, sourcepath.PublicClasses(pkg)); ok {
			return qn, true
		}
	}
	return "", false
}

func findBySimpleName(simple string, qualifiedNames []string) (string, bool) {
	for _, qn := range qualifiedNames {
		if lastSegment(qn) == simple {
			return qn, true
		}
	}
	return "", false
}

func lastSegment(qn string) string {
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[i+1:]
	}
	return qn
}

// Close releases the batch session. No resources to release: every
// member tree was already closed by ParseFile.
func (b *batchSession) Close() error { return nil }
