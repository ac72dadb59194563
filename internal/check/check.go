// Package check implements spec.md §4.D: the partial expression checker.
// It recovers the type of an expression to the left of the cursor using
// only a supplied Scope and a small, closed expression grammar, for the
// cases where the full Compiler Facade compilation could not reach that
// expression.
package check

import (
	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jtypes"
)

// ExprKind is the small tree grammar of spec.md §4.D / §9's design note
// ("a tagged variant of the small expression grammar the core actually
// reasons about").
type ExprKind int

const (
	ExprUnsupported ExprKind = iota
	ExprIdentifier
	ExprMemberSelect
	ExprInvocation
	ExprArrayAccess
	ExprConditional
	ExprParenthesized
)

// Expr is one node of the supported grammar. Only the fields relevant to
// Kind are populated.
type Expr struct {
	Kind ExprKind
	Node *facade.Node // backing syntax node; used to match Retained and to anchor CantCheck

	Name string // Identifier / member name for MemberSelect and Invocation

	Receiver *Expr // MemberSelect, Invocation (nil for an unqualified call), ArrayAccess
	Args     []*Expr
	Index    *Expr
	Cond     *Expr
	Then     *Expr
	Else     *Expr
	Inner    *Expr
}

// CanCheck reports whether kind is in the grammar Check supports.
func CanCheck(kind facade.NodeKind) bool {
	switch kind {
	case facade.NodeIdentifier, facade.NodeMemberSelect, facade.NodeMethodInvocation,
		facade.NodeArrayAccess, facade.NodeConditional, facade.NodeParenthesized:
		return true
	default:
		return false
	}
}

// Retained is the optional (kind, type) pair the caller supplies to plug
// in an answer it already knows from a prior compilation, keyed by the
// syntax node it covers (spec.md §4.D).
type Retained struct {
	Node *facade.Node
	Type facade.Type
}

// BuildExpr converts a facade.Node into the small Expr grammar. Nodes
// outside the supported grammar become ExprUnsupported, carrying the
// backing node so CantCheck can report them.
//
// Convention (followed by internal/facade/tsfacade): a MemberSelect node
// has exactly two children, [receiver, fieldIdentifier]; a MethodInvocation
// has [receiver-or-nil-marker, nameIdentifier, argumentList...]; an
// ArrayAccess has [array, index]; a Conditional has [cond, then, else]; a
// Parenthesized has [inner].
func BuildExpr(n *facade.Node) *Expr {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case facade.NodeIdentifier:
		return &Expr{Kind: ExprIdentifier, Node: n, Name: n.Text}
	case facade.NodeMemberSelect:
		if len(n.Children) != 2 {
			return &Expr{Kind: ExprUnsupported, Node: n}
		}
		return &Expr{
			Kind:     ExprMemberSelect,
			Node:     n,
			Receiver: BuildExpr(n.Children[0]),
			Name:     n.Children[1].Text,
		}
	case facade.NodeMethodInvocation:
		if len(n.Children) < 2 {
			return &Expr{Kind: ExprUnsupported, Node: n}
		}
		var recv *Expr
		if n.Children[0] != nil {
			recv = BuildExpr(n.Children[0])
		}
		args := make([]*Expr, 0, len(n.Children)-2)
		for _, c := range n.Children[2:] {
			args = append(args, BuildExpr(c))
		}
		return &Expr{
			Kind:     ExprInvocation,
			Node:     n,
			Receiver: recv,
			Name:     n.Children[1].Text,
			Args:     args,
		}
	case facade.NodeArrayAccess:
		if len(n.Children) != 2 {
			return &Expr{Kind: ExprUnsupported, Node: n}
		}
		return &Expr{Kind: ExprArrayAccess, Node: n, Receiver: BuildExpr(n.Children[0]), Index: BuildExpr(n.Children[1])}
	case facade.NodeConditional:
		if len(n.Children) != 3 {
			return &Expr{Kind: ExprUnsupported, Node: n}
		}
		return &Expr{Kind: ExprConditional, Node: n, Cond: BuildExpr(n.Children[0]), Then: BuildExpr(n.Children[1]), Else: BuildExpr(n.Children[2])}
	case facade.NodeParenthesized:
		if len(n.Children) != 1 {
			return &Expr{Kind: ExprUnsupported, Node: n}
		}
		return &Expr{Kind: ExprParenthesized, Node: n, Inner: BuildExpr(n.Children[0])}
	default:
		return &Expr{Kind: ExprUnsupported, Node: n}
	}
}

// Check evaluates expr against scope, honoring a retained (kind, type)
// pair wherever its Node matches a subtree Check would otherwise have to
// resolve itself.
func Check(scope facade.Scope, fac facade.CompilerFacade, expr *Expr, retained *Retained) facade.Type {
	if expr == nil {
		return facade.VoidType
	}
	if retained != nil && expr.Node != nil && retained.Node == expr.Node {
		return retained.Type
	}

	switch expr.Kind {
	case ExprIdentifier:
		return checkIdentifier(scope, expr.Name)

	case ExprMemberSelect:
		recv := Check(scope, fac, expr.Receiver, retained)
		if recv.IsVoid() {
			return facade.VoidType
		}
		return checkMember(fac, recv, expr.Name)

	case ExprInvocation:
		return checkInvocation(scope, fac, expr, retained)

	case ExprArrayAccess:
		recv := Check(scope, fac, expr.Receiver, retained)
		if recv.IsArray() {
			return recv.ComponentType()
		}
		return facade.VoidType

	case ExprConditional:
		// Deliberate simplification (spec.md §9 Open Question): the
		// true branch's type is returned unconditionally, never a least
		// upper bound. Preserved for compatibility with existing
		// completion outputs — do not "fix" this.
		return Check(scope, fac, expr.Then, retained)

	case ExprParenthesized:
		return Check(scope, fac, expr.Inner, retained)

	default:
		return facade.VoidType
	}
}

// checkIdentifier finds the first enclosing scope containing a local
// element with name, preferring a non-method binding.
func checkIdentifier(scope facade.Scope, name string) facade.Type {
	for s := scope; s != nil; s = s.Parent() {
		els := s.Lookup(name)
		if len(els) == 0 {
			continue
		}
		if el := preferNonMethod(els); el != nil {
			return el.DeclaredType()
		}
	}
	return facade.VoidType
}

// checkMember looks up member f on a resolved receiver type, preferring
// a non-method member.
func checkMember(fac facade.CompilerFacade, recv facade.Type, name string) facade.Type {
	members, err := fac.GetAllMembers(recv)
	if err != nil {
		return facade.VoidType
	}
	var matches []facade.Element
	for _, m := range members {
		if m.Name() == name {
			matches = append(matches, m)
		}
	}
	if el := preferNonMethod(matches); el != nil {
		return el.DeclaredType()
	}
	return facade.VoidType
}

func preferNonMethod(els []facade.Element) facade.Element {
	var method facade.Element
	for _, el := range els {
		if el.Kind() != facade.ElementMethod {
			return el
		}
		if method == nil {
			method = el
		}
	}
	return method
}

func checkInvocation(scope facade.Scope, fac facade.CompilerFacade, expr *Expr, retained *Retained) facade.Type {
	var overloads []facade.Element
	var recvType facade.Type

	if expr.Receiver != nil {
		recvType = Check(scope, fac, expr.Receiver, retained)
		if recvType.IsVoid() {
			return facade.VoidType
		}
		members, err := fac.GetAllMembers(recvType)
		if err != nil {
			return facade.VoidType
		}
		for _, m := range members {
			if m.Kind() == facade.ElementMethod && m.Name() == expr.Name {
				overloads = append(overloads, m)
			}
		}
	} else {
		for s := scope; s != nil; s = s.Parent() {
			for _, el := range s.Lookup(expr.Name) {
				if el.Kind() == facade.ElementMethod {
					overloads = append(overloads, el)
				}
			}
			if len(overloads) > 0 {
				break
			}
		}
	}

	if len(overloads) == 0 {
		return facade.VoidType
	}
	if len(overloads) == 1 {
		return overloads[0].ReturnType()
	}

	argTypes := make([]facade.Type, len(expr.Args))
	for i, a := range expr.Args {
		argTypes[i] = Check(scope, fac, a, retained)
	}

	for _, ov := range overloads {
		params := ov.Params()
		if len(params) != len(argTypes) {
			continue
		}
		ok := true
		for i, p := range params {
			if !fac.IsAssignable(argTypes[i], p) {
				ok = false
				break
			}
		}
		if ok {
			return ov.ReturnType()
		}
	}
	return facade.VoidType
}

// CantCheck descends into the cursor's expression and returns the
// deepest subtree whose kind is not in the supported grammar — the
// caller re-enters full compilation for that subtree and supplies the
// result back in as a Retained pair (spec.md §4.D).
func CantCheck(root *facade.Node, pos jtypes.Position) *facade.Node {
	n := root.SmallestContaining(pos)
	if n == nil {
		return nil
	}
	for cur := n; cur != nil; cur = cur.Parent {
		switch cur.Kind {
		case facade.NodeBlock, facade.NodeStatement, facade.NodeExprStatement,
			facade.NodeClassDecl, facade.NodeInterfaceDecl, facade.NodeEnumDecl,
			facade.NodeAnnotationDecl, facade.NodeMethodDecl, facade.NodeCompilationUnit:
			return nil
		}
		if !CanCheck(cur.Kind) {
			return cur
		}
	}
	return nil
}
