package grammar

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Capture is one node captured by a structural query, detached from the tree.
type Capture struct {
	Name      string // capture name without the leading '@'
	Kind      string
	NodeName  string
	Text      string
	StartByte uint
	EndByte   uint
	StartLine int // 1-based
	EndLine   int // 1-based
}

// Match groups the captures of one pattern match.
type Match struct {
	Pattern  uint
	Captures []Capture
}

// Query runs pattern over the tree. source must be the text the captures are
// resolved against; a capture whose span does not fit source is an error.
func (t *SyntaxTree) Query(pattern string, source []byte) ([]Match, error) {
	q, qerr := sitter.NewQuery(t.grammar, pattern)
	if qerr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, qerr.Error())
	}
	defer q.Close()

	names := q.CaptureNames()
	var matches []Match
	err := t.WithRoot(func(root *sitter.Node) error {
		cursor := sitter.NewQueryCursor()
		defer cursor.Close()

		it := cursor.Matches(q, root, source)
		for m := it.Next(); m != nil; m = it.Next() {
			match := Match{Pattern: uint(m.PatternIndex), Captures: make([]Capture, 0, len(m.Captures))}
			for _, c := range m.Captures {
				node := c.Node
				if node.EndByte() > uint(len(source)) {
					return fmt.Errorf("capture %s spans bytes %d-%d beyond source length %d",
						node.Kind(), node.StartByte(), node.EndByte(), len(source))
				}
				name := ""
				if int(c.Index) < len(names) {
					name = names[c.Index]
				}
				match.Captures = append(match.Captures, Capture{
					Name:      name,
					Kind:      node.Kind(),
					NodeName:  NodeName(&node, source),
					Text:      NodeText(&node, source),
					StartByte: node.StartByte(),
					EndByte:   node.EndByte(),
					StartLine: int(node.StartPosition().Row) + 1,
					EndLine:   int(node.EndPosition().Row) + 1,
				})
			}
			matches = append(matches, match)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
