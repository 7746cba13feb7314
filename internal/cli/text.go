package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/search"
)

// NewTextCmd creates the text command.
//
// Example usage:
//
//	treeparser text 'name:Parse*'
//	treeparser text 'source:"context.Context"' ./internal --lang go
func NewTextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text <query> [dir]",
		Short: "Full-text search over construct names, source and documentation",
		Long: `Index every construct in memory and run a bleve query string against it.
Fields: name, source, documentation, kind, language, path.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runText,
	}

	cmd.Flags().String("kind", "", "Exact construct node kind")
	cmd.Flags().String("lang", "", "Restrict to one language")
	cmd.Flags().String("path", "", "Wildcard over file paths")
	cmd.Flags().Int("limit", 0, "Maximum results (default from config)")
	cmd.Flags().Bool(flagJSON, false, "Write JSON instead of text")

	return cmd
}

func runText(cmd *cobra.Command, args []string) error {
	q := args[0]
	dir := projectDir(args, 1)
	kind, _ := cmd.Flags().GetString("kind")
	langName, _ := cmd.Flags().GetString("lang")
	pathPattern, _ := cmd.Flags().GetString("path")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool(flagJSON)

	textOpts := &search.TextOptions{Kind: kind, PathPattern: pathPattern, Limit: limit}
	if langName != "" {
		l, err := lang.Parse(langName)
		if err != nil {
			return err
		}
		textOpts.Language = l
	}

	cfg, opts, err := loadSettings(cmd, dir)
	if err != nil {
		return err
	}
	if textOpts.Limit <= 0 {
		textOpts.Limit = cfg.Search.DefaultLimit
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	project, err := parser.ParseDirectory(ctx, dir, opts)
	if err != nil {
		return err
	}
	defer project.Close()

	index, err := search.NewTextIndex(ctx, project)
	if err != nil {
		return err
	}
	defer index.Close()

	hits, err := index.Search(ctx, q, textOpts)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), hits)
	}
	w := cmd.OutOrStdout()
	for _, h := range hits {
		fmt.Fprintf(w, "%s:%d-%d\t%s\t%s\t%.3f\n", h.Path, h.StartLine, h.EndLine, h.Kind, h.Name, h.Score)
		for _, fragment := range h.Highlights {
			fmt.Fprintf(w, "    %s\n", fragment)
		}
	}
	return nil
}
