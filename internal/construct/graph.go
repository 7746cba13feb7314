package construct

import (
	"fmt"

	"github.com/dominikbraun/graph"
)

// Hierarchy is a directed parent -> child containment graph keyed by
// construct index.
type Hierarchy = graph.Graph[int, Construct]

// HierarchyGraph builds the containment graph for one file's constructs.
// Vertices carry a "label" attribute suitable for DOT rendering.
func HierarchyGraph(constructs []Construct) (Hierarchy, error) {
	g := graph.New(func(c Construct) int { return c.Index }, graph.Directed(), graph.Acyclic())

	for _, c := range constructs {
		if err := g.AddVertex(c, graph.VertexAttribute("label", Label(c))); err != nil {
			return nil, fmt.Errorf("add construct %d: %w", c.Index, err)
		}
	}
	for _, c := range constructs {
		if !c.HasParent() {
			continue
		}
		if err := g.AddEdge(c.Parent, c.Index); err != nil {
			return nil, fmt.Errorf("link construct %d to parent %d: %w", c.Index, c.Parent, err)
		}
	}
	return g, nil
}

// Label renders a construct as "kind name (L12-L20)".
func Label(c Construct) string {
	if c.Name == "" {
		return fmt.Sprintf("%s (L%d-L%d)", c.Kind, c.StartLine, c.EndLine)
	}
	return fmt.Sprintf("%s %s (L%d-L%d)", c.Kind, c.Name, c.StartLine, c.EndLine)
}
