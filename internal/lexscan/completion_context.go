package lexscan

import (
	"strings"

	"github.com/javaintel/jcore/internal/facade"
	"github.com/javaintel/jcore/internal/jtypes"
)

func isIdentChar(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// CompletionContext derives spec.md §3's completion context value from a
// parse tree and a cursor, without any typechecking (§4.B). This is the
// cheap classification pass that happens before the Pruner and Compiler
// Facade are ever invoked.
func CompletionContext(tree *facade.ParseTree, pos jtypes.Position) jtypes.CompletionContext {
	offset := facade.OffsetAt(tree.Source, pos)
	prefix := partialIdentifierBefore(tree.Source, offset)

	cc := jtypes.CompletionContext{
		Prefix:   prefix,
		Position: pos,
	}

	smallest := tree.Root.SmallestContaining(pos)
	if smallest == nil {
		// Cursor past the end of any token span (e.g. trailing whitespace
		// at EOF): fall back to the compilation unit itself.
		smallest = tree.Root
	}

	cc.Flags.InsideClass = smallest.EnclosingOfKind(
		facade.NodeClassDecl, facade.NodeInterfaceDecl, facade.NodeEnumDecl, facade.NodeAnnotationDecl,
	) != nil
	cc.Flags.InsideMethod = smallest.EnclosingOfKind(facade.NodeMethodDecl) != nil
	cc.Flags.IsImport = smallest.EnclosingOfKind(facade.NodeImportDecl) != nil
	cc.Flags.IsCaseLabel = smallest.EnclosingOfKind(facade.NodeCaseLabel) != nil
	cc.Flags.IsAnnotation = smallest.EnclosingOfKind(facade.NodeAnnotationUse) != nil || precededByAt(tree.Source, offset, prefix)
	cc.Flags.IsMemberReference = precededByMemberOperator(tree.Source, offset, prefix)

	stmt := smallest.EnclosingOfKind(facade.NodeExprStatement, facade.NodeStatement)
	cc.Flags.AddSemicolon = stmt != nil && !followedBySemicolon(tree.Source, offset)
	cc.Flags.AddParens = cc.Flags.InsideMethod && !cc.Flags.IsMemberReference && !cc.Flags.IsImport

	return cc
}

// partialIdentifierBefore walks backward from offset collecting the
// (possibly empty) identifier fragment already typed.
func partialIdentifierBefore(source string, offset int) string {
	start := offset
	for start > 0 && isIdentChar(source[start-1]) {
		start--
	}
	return source[start:offset]
}

func precededByAt(source string, offset int, prefix string) bool {
	i := offset - len(prefix) - 1
	return i >= 0 && source[i] == '@'
}

func precededByMemberOperator(source string, offset int, prefix string) bool {
	i := offset - len(prefix)
	trimmed := strings.TrimRight(source[:i], " \t")
	return strings.HasSuffix(trimmed, "::")
}

func followedBySemicolon(source string, offset int) bool {
	for i := offset; i < len(source); i++ {
		switch source[i] {
		case ' ', '\t':
			continue
		case ';':
			return true
		default:
			return false
		}
	}
	return false
}
