package cli

import (
	"github.com/dominikbraun/graph/draw"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// NewTreeCmd creates the tree command.
//
// Example usage:
//
//	treeparser tree shapes.py
//	treeparser tree shapes.py --dot | dot -Tsvg > shapes.svg
func NewTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <file>",
		Short: "Show the construct containment hierarchy of one file",
		Args:  cobra.ExactArgs(1),
		RunE:  runTree,
	}

	cmd.Flags().Bool("dot", false, "Render the hierarchy as a Graphviz DOT graph")

	return cmd
}

func runTree(cmd *cobra.Command, args []string) error {
	dot, _ := cmd.Flags().GetBool("dot")

	_, opts, err := loadSettings(cmd, ".")
	if err != nil {
		return err
	}
	f, err := parser.ParseFile(args[0], opts)
	if err != nil {
		return err
	}
	defer f.ReleaseTree()

	if !dot {
		printFile(cmd.OutOrStdout(), f)
		return nil
	}

	g, err := construct.HierarchyGraph(f.Constructs)
	if err != nil {
		return err
	}
	return draw.DOT(g, cmd.OutOrStdout())
}
