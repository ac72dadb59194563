// Package query implements spec.md §5: one Session per workspace,
// orchestrating the Prune → Compile → Check → Completion pipeline behind
// a single exclusive lock and a cooperative cancellation context.
package query

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/javaintel/jcore/internal/catalog"
	"github.com/javaintel/jcore/internal/check"
	"github.com/javaintel/jcore/internal/completion"
	"github.com/javaintel/jcore/internal/config"
	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jerrors"
	"github.com/javaintel/jcore/internal/jlog"
	"github.com/javaintel/jcore/internal/jtypes"
	"github.com/javaintel/jcore/internal/lexscan"
	"github.com/javaintel/jcore/internal/pruner"
	"github.com/javaintel/jcore/internal/workspace"
)

// Session is the single per-workspace orchestrator named in spec.md §5:
// "a single exclusive lock guards the span of a query that touches the
// FileStore". It owns every long-lived collaborator a query needs so
// cmd/jcored has one object to construct.
type Session struct {
	Store      *workspace.FileStore
	Facade     facade.CompilerFacade
	Config     *config.Config
	Classes    *catalog.Catalog
	Sourcepath *catalog.SourcepathIndex
	Engine     *completion.Engine

	mu sync.Mutex
}

// New wires one Session's collaborators together, matching
// SPEC_FULL.md §3.H's component list.
func New(store *workspace.FileStore, fac facade.CompilerFacade, cfg *config.Config, classes *catalog.Catalog, sourcepath *catalog.SourcepathIndex) *Session {
	if cfg == nil {
		cfg = &config.Config{MaxCandidates: config.DefaultMaxCandidates}
	}
	if classes == nil {
		// Engine.Complete calls Classes.JDKClasses() without a nil check
		// (package-member completion always, class-name completion for an
		// uppercase prefix), so an empty-manifest Catalog stands in rather
		// than a nil one.
		classes = catalog.New("")
	}
	if sourcepath == nil {
		// A nil *catalog.SourcepathIndex would still satisfy
		// completion.SourcepathIndex as a non-nil interface value (the
		// classic typed-nil trap), tripping Engine's own "!= nil" guard;
		// an empty concrete index sidesteps that entirely.
		sourcepath = catalog.NewSourcepathIndex()
	}
	return &Session{
		Store:      store,
		Facade:     fac,
		Config:     cfg,
		Classes:    classes,
		Sourcepath: sourcepath,
		Engine:     completion.New(fac, classes, sourcepath, cfg.MaxCandidates),
	}
}

// Complete runs the full §4 pipeline for one cursor: derive completion
// context (§4.B), prune (§4.C), compile a focus session, resolve the
// expression to the cursor's left when the dispatch needs it (§4.D), and
// assemble candidates (§4.E). It checks ctx before every expensive step,
// per §5's cancellation contract, and releases the workspace lock on
// every exit path including cancellation.
func (s *Session) Complete(ctx context.Context, uri jtypes.URI, pos jtypes.Position) ([]jtypes.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := uri.Path()
	source, err := s.Store.ContentsByURI(uri)
	if err != nil {
		// KindIO is the one fatal category in §7's propagation policy: a
		// missing or unreadable file aborts the query outright.
		return nil, jerrors.New(jerrors.KindIO, "complete", err).WithURI(string(uri))
	}

	pt, err := s.Facade.ParseFile(uri, source)
	if err != nil {
		// Every other Compiler Facade call site is recoverable (§7): log
		// and return an empty result rather than failing the query.
		qerr := jerrors.New(jerrors.KindFacadeInternal, "parse", err).WithURI(string(uri))
		jlog.Warn("query", "%v", qerr)
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cctx := lexscan.CompletionContext(pt, pos)
	req := completion.Request{
		Context:        cctx,
		CurrentPackage: lexscan.PackageNameOfSource(source),
		FileName:       lexscan.FileName(path),
		Imports:        importedClassNames(pt.Root),
	}

	for _, c := range pt.Root.Children {
		switch c.Kind {
		case facade.NodePackageDecl:
			req.HasPackageDecl = true
		case facade.NodeClassDecl, facade.NodeInterfaceDecl, facade.NodeEnumDecl, facade.NodeAnnotationDecl:
			req.HasTypeDecl = true
		}
	}
	if !req.HasPackageDecl {
		if suggested, ok := s.Store.SuggestedPackageName(path); ok {
			req.SuggestedPackage = suggested
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pruned, err := pruner.Prune(pt, pos)
	if err != nil {
		qerr := jerrors.New(jerrors.KindFacadeInternal, "prune", err).WithURI(string(uri))
		jlog.Warn("query", "%v", qerr)
		return nil, nil
	}

	focus, err := s.Facade.CompileFocus(ctx, uri, pos, pruned)
	if err != nil {
		qerr := jerrors.New(jerrors.KindFacadeInternal, "compile_focus", err).WithURI(string(uri))
		jlog.Warn("query", "%v", qerr)
		return nil, nil
	}
	defer focus.Close()

	scope, err := focus.Scope(pos)
	if err != nil {
		qerr := jerrors.New(jerrors.KindResolution, "scope", err).WithURI(string(uri))
		jlog.Warn("query", "%v", qerr)
		return nil, nil
	}
	req.Scope = scope

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.resolveDispatchContext(pt, pos, scope, &req)

	if s.Classes != nil || s.Sourcepath != nil {
		if err := s.refreshCatalogs(ctx); err != nil {
			jlog.Warn("query", "catalog refresh failed: %v", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.Engine.Complete(ctx, req), nil
}

// refreshCatalogs runs the JDK/classpath manifest load and the
// sourcepath scan concurrently via errgroup (SPEC_FULL.md §3.H). Complete
// calls it before every dispatch, whichever branch the dispatch takes.
func (s *Session) refreshCatalogs(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if s.Classes != nil {
		g.Go(func() error {
			return s.Classes.Load(gctx)
		})
	}
	if s.Sourcepath != nil && s.Store != nil {
		roots := s.Store.SourceRoots()
		g.Go(func() error {
			return s.Sourcepath.Scan(gctx, roots)
		})
	}
	return g.Wait()
}

// resolveDispatchContext fills in the dispatch-specific Request fields
// (§4.E's branch selectors) by resolving the expression immediately to
// the left of the cursor through the partial checker (§4.D), so
// Engine.Complete can pick the right branch without re-deriving any of
// this itself.
func (s *Session) resolveDispatchContext(pt *facade.ParseTree, pos jtypes.Position, scope facade.Scope, req *completion.Request) {
	target := pt.Root.SmallestContaining(pos)
	if target == nil {
		return
	}

	if req.Context.Flags.IsCaseLabel {
		if sw := target.EnclosingOfKind(facade.NodeSwitchStatement); sw != nil {
			if cond := switchCondition(sw); cond != nil {
				req.SwitchedType = check.Check(scope, s.Facade, check.BuildExpr(cond), nil)
			}
		}
		return
	}

	recv := receiverOf(target)
	if recv == nil {
		return
	}

	if recv.Kind == facade.NodeIdentifier && looksLikePackageSegment(recv.Text) {
		bound := false
		for sc := scope; sc != nil && !bound; sc = sc.Parent() {
			bound = len(sc.Lookup(recv.Text)) > 0
		}
		if _, ok := s.Facade.GetTypeElement(recv.Text); !ok && !bound {
			req.ReceiverIsPackage = true
			req.ReceiverPackage = recv.Text
			return
		}
	}

	if t, ok := s.Facade.GetTypeElement(qualifiedReceiverText(recv)); ok {
		req.Receiver = t
		req.ReceiverKind = facade.ElementClass
		return
	}

	t := check.Check(scope, s.Facade, check.BuildExpr(recv), nil)
	if !t.IsVoid() {
		req.Receiver = t
	}
}

// importedClassNames reconstructs each import declaration's dotted name
// by joining the identifier leaves of its subtree. tsfacade.FixImports
// walks the same identifier leaves but keeps them as a set of simple
// names rather than joining them.
func importedClassNames(root *facade.Node) []string {
	var out []string
	for _, c := range root.Children {
		if c.Kind != facade.NodeImportDecl {
			continue
		}
		var parts []string
		c.Walk(func(n *facade.Node) bool {
			if n.Kind == facade.NodeIdentifier && n.Text != "" {
				parts = append(parts, n.Text)
			}
			return true
		})
		if len(parts) > 0 {
			out = append(out, strings.Join(parts, "."))
		}
	}
	return out
}

// switchCondition finds a switch statement's parenthesized governing
// expression among its converted children (convertNode does not
// special-case switch nodes, so the condition surfaces as an ordinary
// NodeParenthesized child).
func switchCondition(sw *facade.Node) *facade.Node {
	for _, c := range sw.Children {
		if c.Kind == facade.NodeParenthesized {
			return c
		}
	}
	return nil
}

// receiverOf climbs from n to the nearest enclosing MemberSelect or
// MethodInvocation and returns its receiver child (nil for an
// unqualified invocation), matching the child-ordering convention
// internal/check.BuildExpr documents.
func receiverOf(n *facade.Node) *facade.Node {
	enclosing := n.EnclosingOfKind(facade.NodeMemberSelect, facade.NodeMethodInvocation)
	if enclosing == nil || len(enclosing.Children) == 0 {
		return nil
	}
	return enclosing.Children[0]
}

// qualifiedReceiverText reconstructs a dotted name from a chain of
// MemberSelect nodes (e.g. "java.util" from a field_access chain), since
// GetTypeElement and package-prefix checks both key on the full dotted
// text rather than just the last segment.
func qualifiedReceiverText(n *facade.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case facade.NodeIdentifier:
		return n.Text
	case facade.NodeMemberSelect:
		if len(n.Children) != 2 {
			return ""
		}
		prefix := qualifiedReceiverText(n.Children[0])
		if prefix == "" {
			return n.Children[1].Text
		}
		return prefix + "." + n.Children[1].Text
	default:
		return ""
	}
}

// looksLikePackageSegment applies the Java naming convention (package
// segments are lowercase) as a cheap heuristic ahead of an actual
// GetTypeElement miss, matching how the teacher's symbol resolver
// prefers a fast lexical check before falling back to the index.
func looksLikePackageSegment(name string) bool {
	if name == "" {
		return false
	}
	return strings.ToLower(name) == name
}

// CheckExpression resolves the type of the expression ending at pos,
// honoring the §4.D "retained pair" hand-off: if the expression climbs
// outside the supported grammar, CantCheck identifies the subtree a
// caller would need a full recompilation for. tsfacade's own
// TypeMirror already covers that full-compilation path, so
// CheckExpression simply prefers it over partial-check when available.
func (s *Session) CheckExpression(ctx context.Context, uri jtypes.URI, pos jtypes.Position) (facade.Type, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := s.Store.ContentsByURI(uri)
	if err != nil {
		return nil, jerrors.New(jerrors.KindIO, "check", err).WithURI(string(uri))
	}
	pt, err := s.Facade.ParseFile(uri, source)
	if err != nil {
		qerr := jerrors.New(jerrors.KindFacadeInternal, "parse", err).WithURI(string(uri))
		jlog.Warn("query", "%v", qerr)
		return facade.VoidType, nil
	}

	pruned, err := pruner.Prune(pt, pos)
	if err != nil {
		qerr := jerrors.New(jerrors.KindFacadeInternal, "prune", err).WithURI(string(uri))
		jlog.Warn("query", "%v", qerr)
		return facade.VoidType, nil
	}
	focus, err := s.Facade.CompileFocus(ctx, uri, pos, pruned)
	if err != nil {
		qerr := jerrors.New(jerrors.KindFacadeInternal, "compile_focus", err).WithURI(string(uri))
		jlog.Warn("query", "%v", qerr)
		return facade.VoidType, nil
	}
	defer focus.Close()

	scope, err := focus.Scope(pos)
	if err != nil {
		qerr := jerrors.New(jerrors.KindResolution, "scope", err).WithURI(string(uri))
		jlog.Warn("query", "%v", qerr)
		return facade.VoidType, nil
	}

	if gap := check.CantCheck(pt.Root, pos); gap != nil {
		if t, ok := focus.TypeMirror(pos); ok {
			return t, nil
		}
		jlog.Warn("query", "expression at %s falls outside the partial checker's grammar", pos)
	}

	target := pt.Root.SmallestContaining(pos)
	if target == nil {
		return facade.VoidType, nil
	}
	expr := check.BuildExpr(target)
	return check.Check(scope, s.Facade, expr, nil), nil
}
