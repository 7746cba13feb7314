package construct

import (
	"github.com/mvp-joe/treeparser/internal/lang"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

type extractor struct {
	lang       lang.Language
	source     []byte
	constructs []Construct
}

// Extract walks the tree under root and returns every allow-listed named node
// as a Construct, in pre-order. Each construct's Parent is its nearest
// allow-listed ancestor, and its Children are listed in source order.
// Non-allow-listed nodes are transparent: their descendants attach to the
// enclosing construct.
func Extract(root *sitter.Node, source []byte, l lang.Language) []Construct {
	if root == nil {
		return []Construct{}
	}
	e := &extractor{lang: l, source: source, constructs: []Construct{}}
	cursor := root.Walk()
	defer cursor.Close()
	e.walk(cursor, NoParent)
	return e.constructs
}

func (e *extractor) walk(cursor *sitter.TreeCursor, enclosing int) {
	node := cursor.Node()
	if node.IsNamed() && lang.IsConstructKind(e.lang, node.Kind()) {
		enclosing = e.add(node, enclosing)
	}

	if !cursor.GotoFirstChild() {
		return
	}
	for {
		e.walk(cursor, enclosing)
		if !cursor.GotoNextSibling() {
			break
		}
	}
	cursor.GotoParent()
}

func (e *extractor) add(node *sitter.Node, parent int) int {
	start, end := int(node.StartByte()), int(node.EndByte())
	if end > len(e.source) {
		end = len(e.source)
	}
	if start > end {
		start = end
	}

	idx := len(e.constructs)
	e.constructs = append(e.constructs, Construct{
		Index:     idx,
		Kind:      node.Kind(),
		Name:      displayName(node, e.source),
		Source:    string(e.source[start:end]),
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		StartByte: start,
		EndByte:   end,
		Parent:    parent,
		Metadata:  enrich(node, e.source, e.lang),
	})
	if parent != NoParent {
		e.constructs[parent].Children = append(e.constructs[parent].Children, idx)
	}
	return idx
}
