package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/search"
)

// NewQueryCmd creates the query command.
//
// Example usage:
//
//	treeparser query shapes.py '(class_definition name: (identifier) @name)'
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <file> <pattern>",
		Short: "Run a tree-sitter query against one file",
		Args:  cobra.ExactArgs(2),
		RunE:  runQuery,
	}

	cmd.Flags().Bool(flagJSON, false, "Write JSON instead of text")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	path, pattern := args[0], args[1]
	asJSON, _ := cmd.Flags().GetBool(flagJSON)

	_, opts, err := loadSettings(cmd, ".")
	if err != nil {
		return err
	}
	opts.RetainSyntaxTree = true

	f, err := parser.ParseFile(path, opts)
	if err != nil {
		return err
	}
	defer f.ReleaseTree()

	captures, err := search.ByQuery(f, pattern)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), captures)
	}
	w := cmd.OutOrStdout()
	for _, c := range captures {
		text, _, _ := strings.Cut(c.Source, "\n")
		fmt.Fprintf(w, "%s:%d\t%s\t%s\n", f.Path, c.StartLine, c.Kind, text)
	}
	return nil
}
