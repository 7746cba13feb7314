package grammar

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeName returns a best-effort display name for n: the text of the first
// direct child of kind "identifier" or "name", else the "name" field. Empty
// when neither exists.
func NodeName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if k := child.Kind(); k == "identifier" || k == "name" {
			return NodeText(child, source)
		}
	}
	return NodeText(n.ChildByFieldName("name"), source)
}

// NodeText returns the source slice covered by n, or "" when n is nil or its
// span falls outside source.
func NodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start > end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// ChildOfKind returns the first direct child of n with the given kind.
func ChildOfKind(n *sitter.Node, kind string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// ChildrenOfKind returns every direct child of n with the given kind.
func ChildrenOfKind(n *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	if n == nil {
		return out
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == kind {
			out = append(out, child)
		}
	}
	return out
}
