package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// maxListedErrors caps the per-file errors printed by the parse summary.
const maxListedErrors = 20

// NewParseCmd creates the parse command.
//
// Example usage:
//
//	treeparser parse ./src
//	treeparser parse ./src --ext go,py --json
//	treeparser parse main.go
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [path]",
		Short: "Parse a file or directory and summarize the constructs found",
		Long: `Parse a single file and list its constructs, or traverse a directory in
parallel and print a summary of files, constructs, languages and failures.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().StringSlice("ext", nil, "Only parse files with these extensions (without the dot)")
	cmd.Flags().StringSlice("lang", nil, "Only parse files of these languages")
	cmd.Flags().Bool(flagJSON, false, "Write JSON instead of text")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	path := projectDir(args, 0)
	asJSON, _ := cmd.Flags().GetBool(flagJSON)

	if parser.IsValidFile(path) {
		_, opts, err := loadSettings(cmd, ".")
		if err != nil {
			return err
		}
		f, err := parser.ParseFile(path, opts)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), f)
		}
		printFile(cmd.OutOrStdout(), f)
		return nil
	}

	_, opts, err := loadSettings(cmd, path)
	if err != nil {
		return err
	}
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	project, err := parser.ParseDirectoryWithFilter(ctx, path, opts, filter)
	if err != nil {
		return err
	}
	defer project.Close()

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), project)
	}
	printSummary(cmd.OutOrStdout(), project)
	return nil
}

// filterFromFlags builds a discovery filter from --ext and --lang, or nil
// when neither is set.
func filterFromFlags(cmd *cobra.Command) (*parser.FileFilter, error) {
	exts, _ := cmd.Flags().GetStringSlice("ext")
	names, _ := cmd.Flags().GetStringSlice("lang")
	if len(exts) == 0 && len(names) == 0 {
		return nil, nil
	}

	filter := &parser.FileFilter{}
	for _, ext := range exts {
		filter.Extensions = append(filter.Extensions, strings.TrimPrefix(ext, "."))
	}
	for _, name := range names {
		l, err := lang.Parse(name)
		if err != nil {
			return nil, err
		}
		filter.Languages = append(filter.Languages, l)
	}
	return filter, nil
}

func printSummary(w io.Writer, p *parser.ParsedProject) {
	fmt.Fprintf(w, "Root:        %s\n", p.Root)
	fmt.Fprintf(w, "Files:       %s parsed, %s processed\n", formatNumber(len(p.Files)), formatNumber(p.TotalProcessed))
	fmt.Fprintf(w, "Constructs:  %s\n", formatNumber(p.ConstructCount()))
	fmt.Fprintf(w, "Duration:    %s\n", FormatDuration(p.Duration))

	if langs := p.SortedLanguages(); len(langs) > 0 {
		fmt.Fprintln(w, "\nLanguages:")
		for _, l := range langs {
			fmt.Fprintf(w, "  %-12s %s\n", l.DisplayName(), formatNumber(p.Languages[l]))
		}
	}

	if len(p.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%s):\n", formatNumber(len(p.Errors)))
		for i, e := range p.Errors {
			if i == maxListedErrors {
				fmt.Fprintf(w, "  ... %d more\n", len(p.Errors)-maxListedErrors)
				break
			}
			fmt.Fprintf(w, "  %s [%s] %s\n", e.Path, e.Kind, e.Message)
		}
	}
}

func printFile(w io.Writer, f *parser.ParsedFile) {
	fmt.Fprintf(w, "%s (%s, %s, %d constructs)\n", f.Path, f.Language.DisplayName(), FormatFileSize(f.Size), len(f.Constructs))
	f.Walk(func(c construct.Construct, depth int) bool {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth+1), construct.Label(c))
		return true
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
