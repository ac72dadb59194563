// Package completion implements spec.md §4.E: the Completion engine. It
// dispatches on a completion context and assembles a bounded,
// deduplicated candidate list from scope, supertypes, static imports, and
// the JDK/classpath/sourcepath class catalogs.
package completion

import (
	"context"
	"sort"
	"strings"

	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jlog"
	"github.com/javaintel/jcore/internal/jtypes"
	"github.com/javaintel/jcore/internal/lexscan"
)

// ClassCatalog is the subset of internal/catalog.Catalog the engine
// needs (spec.md §6 "Class catalogs").
type ClassCatalog interface {
	JDKClasses() []string
	ClassPathClasses() []string
}

// SourcepathIndex is the subset of internal/catalog.SourcepathIndex the
// engine needs for same-package / public-class visibility (§4.E.5.c).
type SourcepathIndex interface {
	PublicClasses(excludePackage string) []string
	SamePackageClasses(pkg string) []string
}

// Request carries everything one completion dispatch needs. Most fields
// are populated only by the caller that knows which of §4.E's five
// branches applies; the zero value of a branch's fields means "not
// applicable" (e.g. Receiver == nil means this is not a member-access
// dispatch).
type Request struct {
	Context        jtypes.CompletionContext
	Scope          facade.Scope
	CurrentPackage string
	FileName       string
	HasPackageDecl bool
	HasTypeDecl    bool
	SuggestedPackage string

	// Member access / import dispatch (§4.E.3, §4.E.4).
	ReceiverIsPackage bool
	ReceiverPackage   string
	Receiver          facade.Type
	ReceiverKind      facade.ElementKind // facade.ElementClass => type reference; else a value

	// Case-label dispatch (§4.E.1).
	SwitchedType facade.Type

	// Identifier dispatch (§4.E.5).
	StaticImports []facade.Element

	// Imports holds the fully-qualified names from the file's own import
	// declarations, so completeClassNames can annotate each class-name
	// candidate with whether the file already imports it (spec.md §4.E.5.c
	// "isImported").
	Imports []string
}

// Engine is the Completion engine of spec.md §4.E.
type Engine struct {
	Facade        facade.CompilerFacade
	Classes       ClassCatalog
	Sourcepath    SourcepathIndex
	MaxCandidates int
	Rank          *Ranker
}

// New constructs an Engine. maxCandidates <= 0 falls back to the
// Completion engine's documented default bound (config.DefaultMaxCandidates).
func New(fac facade.CompilerFacade, classes ClassCatalog, sp SourcepathIndex, maxCandidates int) *Engine {
	if maxCandidates <= 0 {
		maxCandidates = 200
	}
	return &Engine{Facade: fac, Classes: classes, Sourcepath: sp, MaxCandidates: maxCandidates, Rank: NewRanker()}
}

// builder accumulates candidates under the bounding and dedup-by-
// simple-name rules of §4.E ("Bounding", "Sorting/deduplication").
// Snippets are not deduplicated, so the "package"/"class" snippets
// survive alongside the keywords of the same name.
type builder struct {
	out    []jtypes.Candidate
	seen   map[string]bool
	max    int
	warned bool
}

func newBuilder(max int) *builder {
	return &builder{seen: make(map[string]bool), max: max}
}

// add reports whether the caller should keep assembling: false means the
// bound was hit (or just was) and the caller should stop.
func (b *builder) add(c jtypes.Candidate) bool {
	if len(b.out) >= b.max {
		if !b.warned {
			jlog.Warn("completion", "candidate list truncated at %d", b.max)
			b.warned = true
		}
		return false
	}
	if name := c.SimpleName(); name != "" && c.Kind != jtypes.CandidateSnippet {
		if b.seen[name] {
			return true
		}
		b.seen[name] = true
	}
	b.out = append(b.out, c)
	return len(b.out) < b.max
}

// Complete dispatches req per §4.E's priority order and returns a
// ranked, bounded, deduplicated candidate list.
func (e *Engine) Complete(ctx context.Context, req Request) []jtypes.Candidate {
	b := newBuilder(e.MaxCandidates)

	switch {
	case req.Context.Flags.IsCaseLabel:
		e.completeCaseLabel(ctx, req, b)
	case req.Context.Flags.IsAnnotation:
		e.completeAnnotation(ctx, req, b)
	case req.Context.Flags.IsImport:
		e.completePackageMembers(ctx, req.ReceiverPackage, req, b)
	case req.ReceiverIsPackage, req.Receiver != nil:
		e.completeMemberAccess(ctx, req, b)
	default:
		e.completeIdentifier(ctx, req, b)
	}

	return e.Rank.Order(b.out, req.Context.Prefix)
}

// completeCaseLabel implements §4.E.1: enumerate enum constants of the
// switched expression's type, falling through to identifier completion
// if the type has no definition.
func (e *Engine) completeCaseLabel(ctx context.Context, req Request, b *builder) {
	if req.SwitchedType == nil || req.SwitchedType.IsVoid() || !req.SwitchedType.IsEnum() {
		e.completeIdentifier(ctx, req, b)
		return
	}
	for _, c := range req.SwitchedType.EnumConstants() {
		if ctx.Err() != nil {
			return
		}
		if !lexscan.MatchesPartialName(c, req.Context.Prefix) {
			continue
		}
		if !b.add(jtypes.Candidate{Kind: jtypes.CandidateElement, ElementName: c}) {
			return
		}
	}
}

// completeAnnotation implements §4.E.2: an Override snippet expanding
// into an inherited-method-body template, plus scope-visible identifiers.
func (e *Engine) completeAnnotation(ctx context.Context, req Request, b *builder) {
	if lexscan.MatchesPartialName("Override", req.Context.Prefix) {
		if this, ok := req.Scope.This(); ok {
			for _, snip := range e.overrideSnippets(ctx, this.DeclaredType()) {
				if ctx.Err() != nil {
					return
				}
				if !b.add(snip) {
					return
				}
			}
		} else {
			b.add(jtypes.Candidate{Kind: jtypes.CandidateSnippet, SnippetLabel: "Override", SnippetBody: "@Override\n"})
		}
	}
	e.scopeIdentifiers(ctx, req, b)
}

// overrideSnippets walks the transitive supertype closure of owner,
// collecting non-static, non-private methods (spec.md §4.E.2 "scanning
// transitive supertypes and skipping static/private members").
func (e *Engine) overrideSnippets(ctx context.Context, owner facade.Type) []jtypes.Candidate {
	var out []jtypes.Candidate
	seenMethod := make(map[string]bool)
	visitedType := make(map[string]bool)
	queue := []facade.Type{owner}

	for len(queue) > 0 {
		if ctx.Err() != nil {
			return out
		}
		t := queue[0]
		queue = queue[1:]
		if t == nil || t.IsVoid() || visitedType[t.Name()] {
			continue
		}
		visitedType[t.Name()] = true

		members, err := e.Facade.GetAllMembers(t)
		if err == nil {
			for _, m := range members {
				if m.Kind() != facade.ElementMethod || m.IsStatic() || m.IsPrivate() {
					continue
				}
				if seenMethod[m.Name()] {
					continue
				}
				seenMethod[m.Name()] = true
				out = append(out, jtypes.Candidate{
					Kind:         jtypes.CandidateSnippet,
					SnippetLabel: m.Name(),
					SnippetBody:  overrideBody(m),
				})
			}
		}
		if supers, err := e.Facade.DirectSupertypes(t); err == nil {
			queue = append(queue, supers...)
		}
	}
	return out
}

func overrideBody(m facade.Element) string {
	var b strings.Builder
	b.WriteString("@Override\n")
	b.WriteString(m.ReturnType().Name())
	b.WriteString(" ")
	b.WriteString(m.Name())
	b.WriteString("(...) {\n}\n")
	return b.String()
}

// completeMemberAccess implements §4.E.4's package/type/value dispatch.
func (e *Engine) completeMemberAccess(ctx context.Context, req Request, b *builder) {
	if req.ReceiverIsPackage {
		e.completePackageMembers(ctx, req.ReceiverPackage, req, b)
		return
	}
	if req.Receiver == nil || req.Receiver.IsVoid() {
		return
	}
	if req.ReceiverKind == facade.ElementClass {
		if req.Context.Flags.IsMemberReference {
			e.completeMethodReference(ctx, req, b)
		} else {
			e.completeStaticMembers(ctx, req, b)
		}
		return
	}
	e.completeInstanceMembers(ctx, req, b)
}

// completePackageMembers implements the Package branch of §4.E.4: visible
// type members plus synthesized PackagePart sub-package candidates.
func (e *Engine) completePackageMembers(ctx context.Context, pkg string, req Request, b *builder) {
	allClasses := append(append([]string{}, e.Classes.JDKClasses()...), e.Classes.ClassPathClasses()...)
	if e.Sourcepath != nil {
		allClasses = append(allClasses, e.Sourcepath.PublicClasses(req.CurrentPackage)...)
		allClasses = append(allClasses, e.Sourcepath.SamePackageClasses(req.CurrentPackage)...)
	}

	subs := make(map[string]bool)
	for _, qn := range allClasses {
		if ctx.Err() != nil {
			return
		}
		qualPkg := lexscan.MostName(qn)
		if qualPkg == pkg {
			simple := lexscan.LastName(qn)
			if lexscan.MatchesPartialName(simple, req.Context.Prefix) {
				if !b.add(jtypes.Candidate{Kind: jtypes.CandidateClassName, Qualified: qn}) {
					return
				}
			}
			continue
		}
		prefix := pkg + "."
		if !strings.HasPrefix(qualPkg, prefix) {
			continue
		}
		rest := qualPkg[len(prefix):]
		sub := firstSegment(rest)
		if sub != "" && lexscan.MatchesPartialName(sub, req.Context.Prefix) {
			subs[sub] = true
		}
	}

	var names []string
	for n := range subs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if ctx.Err() != nil {
			return
		}
		if !b.add(jtypes.Candidate{Kind: jtypes.CandidatePackagePart, PackagePrefix: pkg, PackageLast: n}) {
			return
		}
	}
}

func firstSegment(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// completeStaticMembers implements the "Type, value position" branch of
// §4.E.4: accessible static members plus the class/this/super keywords.
func (e *Engine) completeStaticMembers(ctx context.Context, req Request, b *builder) {
	members, err := e.Facade.GetAllMembers(req.Receiver)
	if err == nil {
		for _, m := range members {
			if ctx.Err() != nil {
				return
			}
			if !m.IsStatic() || !lexscan.MatchesPartialName(m.Name(), req.Context.Prefix) {
				continue
			}
			if !e.Facade.IsAccessible(req.Scope, m, req.Receiver) {
				continue
			}
			if !b.add(jtypes.Candidate{Kind: jtypes.CandidateElement, ElementName: m.Name(), ElementRef: m}) {
				return
			}
		}
	}
	for _, kw := range []string{"class", "this", "super"} {
		if !lexscan.MatchesPartialName(kw, req.Context.Prefix) {
			continue
		}
		if !b.add(jtypes.Candidate{Kind: jtypes.CandidateKeyword, Keyword: kw}) {
			return
		}
	}
}

// completeMethodReference implements the "Type, reference position"
// branch of §4.E.4: accessible methods plus the `new` keyword.
func (e *Engine) completeMethodReference(ctx context.Context, req Request, b *builder) {
	members, err := e.Facade.GetAllMembers(req.Receiver)
	if err == nil {
		for _, m := range members {
			if ctx.Err() != nil {
				return
			}
			if m.Kind() != facade.ElementMethod || !lexscan.MatchesPartialName(m.Name(), req.Context.Prefix) {
				continue
			}
			if !e.Facade.IsAccessible(req.Scope, m, req.Receiver) {
				continue
			}
			if !b.add(jtypes.Candidate{Kind: jtypes.CandidateElement, ElementName: m.Name(), ElementRef: m}) {
				return
			}
		}
	}
	if lexscan.MatchesPartialName("new", req.Context.Prefix) {
		b.add(jtypes.Candidate{Kind: jtypes.CandidateKeyword, Keyword: "new"})
	}
}

// completeInstanceMembers implements the Value branch of §4.E.4: every
// instance member across the transitive supertype closure, deduplicated,
// synthetic constructors skipped, plus a `length` keyword for arrays.
func (e *Engine) completeInstanceMembers(ctx context.Context, req Request, b *builder) {
	if req.Receiver.IsArray() && lexscan.MatchesPartialName("length", req.Context.Prefix) {
		if !b.add(jtypes.Candidate{Kind: jtypes.CandidateKeyword, Keyword: "length"}) {
			return
		}
	}

	visited := make(map[string]bool)
	queue := []facade.Type{req.Receiver}
	for len(queue) > 0 {
		if ctx.Err() != nil {
			return
		}
		t := queue[0]
		queue = queue[1:]
		if t == nil || t.IsVoid() || visited[t.Name()] {
			continue
		}
		visited[t.Name()] = true

		members, err := e.Facade.GetAllMembers(t)
		if err == nil {
			for _, m := range members {
				if ctx.Err() != nil {
					return
				}
				if m.IsStatic() || isSyntheticConstructor(m) {
					continue
				}
				if !lexscan.MatchesPartialName(m.Name(), req.Context.Prefix) {
					continue
				}
				if !e.Facade.IsAccessible(req.Scope, m, req.Receiver) {
					continue
				}
				if !b.add(jtypes.Candidate{Kind: jtypes.CandidateElement, ElementName: m.Name(), ElementRef: m}) {
					return
				}
			}
		}
		if supers, err := e.Facade.DirectSupertypes(t); err == nil {
			queue = append(queue, supers...)
		}
	}
}

func isSyntheticConstructor(m facade.Element) bool {
	return m.Kind() == facade.ElementMethod && m.Name() == "<init>"
}

// completeIdentifier implements §4.E.5, the default dispatch branch.
func (e *Engine) completeIdentifier(ctx context.Context, req Request, b *builder) {
	e.scopeIdentifiers(ctx, req, b)

	for _, m := range req.StaticImports {
		if ctx.Err() != nil {
			return
		}
		if !lexscan.MatchesPartialName(m.Name(), req.Context.Prefix) {
			continue
		}
		if !b.add(jtypes.Candidate{Kind: jtypes.CandidateElement, ElementName: m.Name(), ElementRef: m}) {
			return
		}
	}

	if startsUpper(req.Context.Prefix) {
		e.completeClassNames(ctx, req, b)
	}

	for _, kw := range keywordsFor(req.Context.Flags) {
		if !lexscan.MatchesPartialName(kw, req.Context.Prefix) {
			continue
		}
		if !b.add(jtypes.Candidate{Kind: jtypes.CandidateKeyword, Keyword: kw}) {
			return
		}
	}

	if !req.Context.Flags.InsideClass && !req.Context.Flags.InsideMethod {
		if !req.HasPackageDecl && req.SuggestedPackage != "" {
			b.add(jtypes.Candidate{
				Kind:         jtypes.CandidateSnippet,
				SnippetLabel: "package",
				SnippetBody:  "package " + req.SuggestedPackage + ";\n",
			})
		}
		if !req.HasTypeDecl {
			b.add(jtypes.Candidate{
				Kind:         jtypes.CandidateSnippet,
				SnippetLabel: "class",
				SnippetBody:  "class " + classNameFromFile(req.FileName) + " {\n}\n",
			})
		}
	}
}

// scopeIdentifiers implements §4.E.5.a: locals from every enclosing
// scope, with this/super members inlined respecting static context.
func (e *Engine) scopeIdentifiers(ctx context.Context, req Request, b *builder) {
	seen := make(map[string]bool)
	for s := req.Scope; s != nil; s = s.Parent() {
		if ctx.Err() != nil {
			return
		}
		for _, el := range s.All() {
			if ctx.Err() != nil {
				return
			}
			if seen[el.Name()] || !lexscan.MatchesPartialName(el.Name(), req.Context.Prefix) {
				continue
			}
			seen[el.Name()] = true
			if !b.add(jtypes.Candidate{Kind: jtypes.CandidateElement, ElementName: el.Name(), ElementRef: el}) {
				return
			}
		}
		if !s.IsStatic() {
			if this, ok := s.This(); ok {
				if !e.inlineOwnMembers(ctx, req, this.DeclaredType(), seen, b) {
					return
				}
			}
			if sup, ok := s.Super(); ok {
				if !e.inlineOwnMembers(ctx, req, sup.DeclaredType(), seen, b) {
					return
				}
			}
		}
	}
}

func (e *Engine) inlineOwnMembers(ctx context.Context, req Request, t facade.Type, seen map[string]bool, b *builder) bool {
	if t == nil || t.IsVoid() {
		return true
	}
	members, err := e.Facade.GetAllMembers(t)
	if err != nil {
		return true
	}
	for _, m := range members {
		if ctx.Err() != nil {
			return false
		}
		if seen[m.Name()] || isSyntheticConstructor(m) {
			continue
		}
		if !lexscan.MatchesPartialName(m.Name(), req.Context.Prefix) {
			continue
		}
		if !e.Facade.IsAccessible(req.Scope, m, t) {
			continue
		}
		seen[m.Name()] = true
		if !b.add(jtypes.Candidate{Kind: jtypes.CandidateElement, ElementName: m.Name(), ElementRef: m}) {
			return false
		}
	}
	return true
}

// completeClassNames implements §4.E.5.c: candidate class names from the
// JDK, classpath, and sourcepath lists whose simple name matches, only
// once the prefix begins with an uppercase letter.
func (e *Engine) completeClassNames(ctx context.Context, req Request, b *builder) {
	imported := make(map[string]bool, len(req.Imports))
	for _, qn := range req.Imports {
		imported[qn] = true
	}
	emit := func(qn string) bool {
		if ctx.Err() != nil {
			return false
		}
		simple := lexscan.LastName(qn)
		if !lexscan.MatchesPartialName(simple, req.Context.Prefix) {
			return true
		}
		return b.add(jtypes.Candidate{Kind: jtypes.CandidateClassName, Qualified: qn, IsImported: imported[qn]})
	}
	for _, qn := range e.Classes.JDKClasses() {
		if !emit(qn) {
			return
		}
	}
	for _, qn := range e.Classes.ClassPathClasses() {
		if !emit(qn) {
			return
		}
	}
	if e.Sourcepath == nil {
		return
	}
	for _, qn := range e.Sourcepath.SamePackageClasses(req.CurrentPackage) {
		if !emit(qn) {
			return
		}
	}
	for _, qn := range e.Sourcepath.PublicClasses(req.CurrentPackage) {
		if !emit(qn) {
			return
		}
	}
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// keywordsFor implements §4.E.5.d's "depending on top-level/class-body/
// method-body position" rule with a small, representative keyword set per
// position (the full Java keyword set is an enumeration, not a design
// decision worth hand-copying in full here).
func keywordsFor(flags jtypes.CompletionContextFlags) []string {
	switch {
	case flags.InsideMethod:
		return []string{"if", "else", "for", "while", "return", "new", "this", "super", "try", "catch", "throw"}
	case flags.InsideClass:
		return []string{"public", "private", "protected", "static", "final", "void", "class", "interface", "enum"}
	default:
		return []string{"package", "import", "public", "class", "interface", "enum"}
	}
}

func classNameFromFile(fileName string) string {
	name := lexscan.FileName(fileName)
	name = strings.TrimSuffix(name, ".java")
	return name
}
