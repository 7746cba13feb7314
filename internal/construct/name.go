package construct

import (
	"github.com/mvp-joe/treeparser/internal/grammar"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// displayName prefers the first identifier or name child, then the "name"
// field. C-family definitions keep their name inside a declarator chain and
// Go type declarations inside a type_spec, so those are searched last.
func displayName(node *sitter.Node, source []byte) string {
	if name := grammar.NodeName(node, source); name != "" {
		return name
	}
	if decl := node.ChildByFieldName("declarator"); decl != nil {
		return declaratorName(decl, source)
	}
	if spec := grammar.ChildOfKind(node, "type_spec"); spec != nil {
		return grammar.NodeText(spec.ChildByFieldName("name"), source)
	}
	return ""
}

func declaratorName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier", "field_identifier", "type_identifier", "qualified_identifier", "destructor_name", "operator_name":
		return grammar.NodeText(node, source)
	}
	if inner := node.ChildByFieldName("declarator"); inner != nil {
		return declaratorName(inner, source)
	}
	if id := grammar.ChildOfKind(node, "identifier"); id != nil {
		return grammar.NodeText(id, source)
	}
	return ""
}
