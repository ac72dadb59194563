// Package tsfacade is the one concrete facade.CompilerFacade this module
// ships, backed by tree-sitter-java (SPEC_FULL.md §3.F). spec.md treats
// the Compiler Facade as an external collaborator; tsfacade exists so the
// rest of the engine (pruner, check, completion) is testable end-to-end
// against real parse trees instead of hand-built fixtures, and so the §8
// scenarios are runnable.
//
// Grounded on the teacher's internal/parser.TreeSitterParser: one
// tree_sitter.Parser per language (here, always Java), Parse producing a
// tree_sitter.Tree, and node-kind switches walking ChildByFieldName the
// way parser_parse_methods.go does for its symbol extraction.
package tsfacade

import (
	"context"
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jtypes"
)

// ClassCatalog is the subset of internal/catalog.Catalog that FixImports
// needs to resolve a bare simple name to its fully-qualified form —
// the same accept-an-interface shape internal/completion.ClassCatalog
// uses for the identical catalog.
type ClassCatalog interface {
	JDKClasses() []string
	ClassPathClasses() []string
}

// SourcepathIndex is the subset of internal/catalog.SourcepathIndex
// FixImports needs for same-package / public sourcepath classes.
type SourcepathIndex interface {
	PublicClasses(excludePackage string) []string
	SamePackageClasses(pkg string) []string
}

// Facade is a facade.CompilerFacade backed by a single tree-sitter Java
// grammar instance plus a small in-memory semantic index built by
// scanning parsed class/interface/enum bodies (not a real type checker —
// spec.md §1 Non-goals explicitly excludes building one).
type Facade struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser

	semMu sync.RWMutex
	types map[string]*semType // simple name -> type

	catalogMu  sync.RWMutex
	classes    ClassCatalog
	sourcepath SourcepathIndex
}

// New creates a Facade with its tree-sitter parser configured for Java.
func New() (*Facade, error) {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_java.Language())
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("tsfacade: set language: %w", err)
	}
	return &Facade{parser: parser, types: make(map[string]*semType)}, nil
}

// SetCatalogs wires the JDK/classpath/sourcepath catalogs FixImports
// consults to resolve a bare simple name (e.g. "List") into its
// fully-qualified form (e.g. "java.util.List"), per spec.md:179's
// fixImports scenario. Either argument may be nil.
func (f *Facade) SetCatalogs(classes ClassCatalog, sourcepath SourcepathIndex) {
	f.catalogMu.Lock()
	f.classes, f.sourcepath = classes, sourcepath
	f.catalogMu.Unlock()
}

// catalogsSnapshot returns the catalogs currently wired, for a
// batchSession to capture at construction time.
func (f *Facade) catalogsSnapshot() (ClassCatalog, SourcepathIndex) {
	f.catalogMu.RLock()
	defer f.catalogMu.RUnlock()
	return f.classes, f.sourcepath
}

// ParseFile parses source with tree-sitter and converts the concrete
// syntax tree into the small facade.Node grammar (spec.md §6).
func (f *Facade) ParseFile(uri jtypes.URI, source string) (*facade.ParseTree, error) {
	f.mu.Lock()
	tree := f.parser.Parse([]byte(source), nil)
	f.mu.Unlock()
	if tree == nil {
		return nil, fmt.Errorf("tsfacade: parse failed for %s", uri)
	}
	defer tree.Close()

	content := []byte(source)
	root := convertNode(tree.RootNode(), content, nil)

	pt := &facade.ParseTree{URI: uri, Source: source, Root: root}
	f.indexTypes(pt)
	return pt, nil
}

// CompileFocus compiles a pruned neighborhood around pos and returns a
// FocusSession scoped to that compilation (spec.md §6).
func (f *Facade) CompileFocus(ctx context.Context, uri jtypes.URI, pos jtypes.Position, source string) (facade.FocusSession, error) {
	tree, err := f.ParseFile(uri, source)
	if err != nil {
		return nil, err
	}
	return &focusSession{facade: f, tree: tree}, nil
}

// CompileBatch compiles a set of files together and indexes their types,
// then returns a BatchSession (spec.md §6).
func (f *Facade) CompileBatch(ctx context.Context, files map[jtypes.URI]string) (facade.BatchSession, error) {
	trees := make(map[jtypes.URI]*facade.ParseTree, len(files))
	for uri, src := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pt, err := f.ParseFile(uri, src)
		if err != nil {
			continue
		}
		trees[uri] = pt
	}
	classes, sourcepath := f.catalogsSnapshot()
	return &batchSession{facade: f, trees: trees, classes: classes, sourcepath: sourcepath}, nil
}

// GetAllMembers returns only the members of t's own declaration; members
// inherited from supertypes are not included. internal/completion walks
// DirectSupertypes itself to collect them, while internal/check looks
// members up on the receiver type alone.
func (f *Facade) GetAllMembers(t facade.Type) ([]facade.Element, error) {
	st, ok := t.(*semType)
	if !ok {
		return nil, nil
	}
	f.semMu.RLock()
	defer f.semMu.RUnlock()
	return st.members, nil
}

// DirectSupertypes returns t's declared extends/implements list, resolved
// against the semantic index (unresolved names are silently dropped —
// this is a best-effort index, not a classpath-complete resolver).
func (f *Facade) DirectSupertypes(t facade.Type) ([]facade.Type, error) {
	st, ok := t.(*semType)
	if !ok {
		return nil, nil
	}
	f.semMu.RLock()
	defer f.semMu.RUnlock()
	var out []facade.Type
	for _, name := range st.superNames {
		if super, ok := f.types[name]; ok {
			out = append(out, super)
		}
	}
	return out, nil
}

// IsAssignable reports whether from can be assigned to a variable of
// type to: identity, or to reachable somewhere in from's transitive
// supertype closure.
func (f *Facade) IsAssignable(from, to facade.Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from.Name() == to.Name() {
		return true
	}
	visited := map[string]bool{}
	queue := []facade.Type{from}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if t == nil || visited[t.Name()] {
			continue
		}
		visited[t.Name()] = true
		if t.Name() == to.Name() {
			return true
		}
		supers, _ := f.DirectSupertypes(t)
		queue = append(queue, supers...)
	}
	return false
}

// IsAccessible implements a simplified Java visibility rule: public
// members are always accessible; private members only from within the
// declaring type itself (approximated by scope.This() matching owner);
// package/protected default to accessible, since tsfacade does not track
// cross-package compilation units precisely enough to reject them safely.
func (f *Facade) IsAccessible(scope facade.Scope, el facade.Element, owner facade.Type) bool {
	if el == nil {
		return false
	}
	if !el.IsPrivate() {
		return true
	}
	if scope == nil {
		return false
	}
	this, ok := scope.This()
	if !ok || owner == nil {
		return false
	}
	return this.DeclaredType() != nil && this.DeclaredType().Name() == owner.Name()
}

// GetTypeElement resolves a simple type name against the semantic index
// built from every ParseFile/CompileBatch call so far. The index is keyed
// by simple name, so a qualified name finds nothing.
func (f *Facade) GetTypeElement(qualifiedName string) (facade.Type, bool) {
	f.semMu.RLock()
	defer f.semMu.RUnlock()
	t, ok := f.types[qualifiedName]
	return t, ok
}
