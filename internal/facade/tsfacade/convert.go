package tsfacade

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jtypes"
)

// convertNode translates one tree-sitter-java node (and its subtree) into
// the facade.Node grammar, following the BuildExpr child-ordering
// convention documented on internal/check.BuildExpr for the node kinds it
// cares about (MemberSelect, MethodInvocation, ArrayAccess, Conditional,
// Parenthesized); every other kind keeps its tree-sitter children
// untouched since only Walk/EnclosingOfKind/SmallestContaining need them.
func convertNode(n *tree_sitter.Node, content []byte, parent *facade.Node) *facade.Node {
	if n == nil {
		return nil
	}
	span := spanOf(n, content)

	out := &facade.Node{
		Kind:   mapKind(n.Kind()),
		Span:   span,
		Parent: parent,
	}

	switch n.Kind() {
	case "identifier", "type_identifier":
		out.Text = string(content[n.StartByte():n.EndByte()])
		return out

	case "field_access":
		obj := n.ChildByFieldName("object")
		field := n.ChildByFieldName("field")
		if obj == nil || field == nil {
			out.Kind = facade.NodeUnknown
			return out
		}
		recv := convertNode(obj, content, out)
		name := &facade.Node{Kind: facade.NodeIdentifier, Span: spanOf(field, content), Text: string(content[field.StartByte():field.EndByte()]), Parent: out}
		out.Children = []*facade.Node{recv, name}
		return out

	case "method_invocation":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			out.Kind = facade.NodeUnknown
			return out
		}
		var recv *facade.Node
		if obj := n.ChildByFieldName("object"); obj != nil {
			recv = convertNode(obj, content, out)
		}
		name := &facade.Node{Kind: facade.NodeIdentifier, Span: spanOf(nameNode, content), Text: string(content[nameNode.StartByte():nameNode.EndByte()]), Parent: out}
		children := []*facade.Node{recv, name}
		if args := n.ChildByFieldName("arguments"); args != nil {
			count := args.ChildCount()
			for i := uint(0); i < count; i++ {
				c := args.Child(i)
				if c == nil || !c.IsNamed() {
					continue
				}
				children = append(children, convertNode(c, content, out))
			}
		}
		out.Children = children
		return out

	case "array_access":
		arr := n.ChildByFieldName("array")
		idx := n.ChildByFieldName("index")
		if arr == nil || idx == nil {
			out.Kind = facade.NodeUnknown
			return out
		}
		out.Children = []*facade.Node{convertNode(arr, content, out), convertNode(idx, content, out)}
		return out

	case "ternary_expression":
		cond := n.ChildByFieldName("condition")
		cons := n.ChildByFieldName("consequence")
		alt := n.ChildByFieldName("alternative")
		if cond == nil || cons == nil || alt == nil {
			out.Kind = facade.NodeUnknown
			return out
		}
		out.Children = []*facade.Node{convertNode(cond, content, out), convertNode(cons, content, out), convertNode(alt, content, out)}
		return out

	case "parenthesized_expression":
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			c := n.Child(i)
			if c != nil && c.IsNamed() {
				out.Children = []*facade.Node{convertNode(c, content, out)}
				return out
			}
		}
		out.Kind = facade.NodeUnknown
		return out

	case "string_literal":
		out.Text = string(content[n.StartByte():n.EndByte()])
		return out

	default:
		count := n.ChildCount()
		if count == 0 {
			out.Text = string(content[n.StartByte():n.EndByte()])
			return out
		}
		for i := uint(0); i < count; i++ {
			c := n.Child(i)
			if c == nil {
				continue
			}
			out.Children = append(out.Children, convertNode(c, content, out))
		}
		return out
	}
}

func spanOf(n *tree_sitter.Node, content []byte) facade.Span {
	start := n.StartPosition()
	end := n.EndPosition()
	return facade.Span{
		Start:     jtypes.Position{Line: int(start.Row), Character: int(start.Column)},
		End:       jtypes.Position{Line: int(end.Row), Character: int(end.Column)},
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	}
}

// mapKind translates a tree-sitter-java node kind string into the small
// closed facade.NodeKind set (facade/tree.go's "deliberately does not
// mirror a full Java grammar" design note).
func mapKind(tsKind string) facade.NodeKind {
	switch tsKind {
	case "program":
		return facade.NodeCompilationUnit
	case "package_declaration":
		return facade.NodePackageDecl
	case "import_declaration":
		return facade.NodeImportDecl
	case "class_declaration", "record_declaration":
		return facade.NodeClassDecl
	case "interface_declaration":
		return facade.NodeInterfaceDecl
	case "enum_declaration":
		return facade.NodeEnumDecl
	case "annotation_type_declaration":
		return facade.NodeAnnotationDecl
	case "method_declaration", "constructor_declaration":
		return facade.NodeMethodDecl
	case "field_declaration":
		return facade.NodeFieldDecl
	case "block", "class_body", "interface_body", "enum_body":
		return facade.NodeBlock
	case "expression_statement":
		return facade.NodeExprStatement
	case "local_variable_declaration", "if_statement", "for_statement",
		"enhanced_for_statement", "while_statement", "return_statement",
		"throw_statement", "try_statement":
		return facade.NodeStatement
	case "identifier", "type_identifier":
		return facade.NodeIdentifier
	case "field_access":
		return facade.NodeMemberSelect
	case "method_invocation":
		return facade.NodeMethodInvocation
	case "array_access":
		return facade.NodeArrayAccess
	case "ternary_expression":
		return facade.NodeConditional
	case "parenthesized_expression":
		return facade.NodeParenthesized
	case "marker_annotation", "annotation":
		return facade.NodeAnnotationUse
	case "switch_expression", "switch_statement":
		return facade.NodeSwitchStatement
	case "switch_label", "switch_block_statement_group":
		return facade.NodeCaseLabel
	case "argument_list":
		return facade.NodeArgumentList
	case "string_literal":
		return facade.NodeStringLiteral
	case "line_comment", "block_comment":
		return facade.NodeComment
	default:
		return facade.NodeUnknown
	}
}
