package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/search"
)

// NewSearchCmd creates the search command.
//
// Example usage:
//
//	treeparser search --category functions --name '^Test'
//	treeparser search ./src --kind struct_item,enum_item --lang rust
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [dir]",
		Short: "Find constructs by node kind or category",
		Long: `Search the constructs of every parsed file by tree-sitter node kind (--kind)
or by language-neutral category (--category: functions, types, classes,
imports, variables). --name filters by a regular expression over construct
names.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().StringSlice("kind", nil, "Node kinds to match")
	cmd.Flags().String("category", "", "Construct category")
	cmd.Flags().String("name", "", "Regular expression over construct names")
	cmd.Flags().StringSlice("lang", nil, "Only search files of these languages")
	cmd.Flags().Int("limit", 0, "Maximum results (default from config)")
	cmd.Flags().Bool(flagJSON, false, "Write JSON instead of text")

	return cmd
}

// searchHit is the JSON shape of one search result.
type searchHit struct {
	Path      string        `json:"path"`
	Language  lang.Language `json:"language"`
	Kind      string        `json:"kind"`
	Name      string        `json:"name,omitempty"`
	Parent    string        `json:"parent,omitempty"`
	StartLine int           `json:"start_line"`
	EndLine   int           `json:"end_line"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	dir := projectDir(args, 0)
	kinds, _ := cmd.Flags().GetStringSlice("kind")
	category, _ := cmd.Flags().GetString("category")
	namePattern, _ := cmd.Flags().GetString("name")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool(flagJSON)

	selector, err := selectorFromFlags(kinds, category, namePattern)
	if err != nil {
		return err
	}

	cfg, opts, err := loadSettings(cmd, dir)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.Search.DefaultLimit
	}
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	project, err := parser.ParseDirectoryWithFilter(ctx, dir, opts, filter)
	if err != nil {
		return err
	}
	defer project.Close()

	hits := search.InProject(project, selector)
	total := len(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	if asJSON {
		out := make([]searchHit, 0, len(hits))
		for _, h := range hits {
			out = append(out, toSearchHit(h))
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}
	printHits(cmd.OutOrStdout(), hits, total)
	return nil
}

func selectorFromFlags(kinds []string, category, namePattern string) (func(f *parser.ParsedFile) []construct.Construct, error) {
	switch {
	case len(kinds) > 0 && category != "":
		return nil, errors.New("--kind and --category are mutually exclusive")
	case len(kinds) > 0:
		return func(f *parser.ParsedFile) []construct.Construct {
			return search.ByNodeTypes(f, kinds, namePattern)
		}, nil
	case category != "":
		c, err := lang.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		return func(f *parser.ParsedFile) []construct.Construct {
			return search.ByCategory(f, c, namePattern)
		}, nil
	default:
		return nil, errors.New("one of --kind or --category is required")
	}
}

func toSearchHit(h search.Hit) searchHit {
	out := searchHit{
		Path:      h.File.Path,
		Language:  h.File.Language,
		Kind:      h.Construct.Kind,
		Name:      h.Construct.Name,
		StartLine: h.Construct.StartLine,
		EndLine:   h.Construct.EndLine,
	}
	if parent, ok := h.File.ParentOf(h.Construct); ok {
		out.Parent = parent.Name
	}
	return out
}

func printHits(w io.Writer, hits []search.Hit, total int) {
	for _, h := range hits {
		name := h.Construct.Name
		if parent, ok := h.File.ParentOf(h.Construct); ok && parent.Name != "" {
			name = parent.Name + "." + name
		}
		fmt.Fprintf(w, "%s:%d-%d\t%s\t%s\n", h.File.Path, h.Construct.StartLine, h.Construct.EndLine, h.Construct.Kind, name)
	}
	if total > len(hits) {
		fmt.Fprintf(w, "(%d of %d results shown)\n", len(hits), total)
	}
}
