package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/grammar"
	"github.com/mvp-joe/treeparser/internal/lang"
)

// languageInfo is the JSON shape of one languages entry.
type languageInfo struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Extensions  []string `json:"extensions"`
	Grammar     bool     `json:"grammar"`
}

// NewLanguagesCmd creates the languages command.
func NewLanguagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List recognized languages, their extensions and grammar support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool(flagJSON)
			infos := listLanguages()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), infos)
			}

			w := cmd.OutOrStdout()
			for _, info := range infos {
				status := "detect only"
				if info.Grammar {
					status = "parse"
				}
				fmt.Fprintf(w, "%-12s %-12s %s\n", info.DisplayName, status, strings.Join(info.Extensions, " "))
			}
			return nil
		},
	}

	cmd.Flags().Bool(flagJSON, false, "Write JSON instead of text")

	return cmd
}

func listLanguages() []languageInfo {
	exts := make(map[lang.Language][]string)
	for _, ext := range lang.SupportedExtensions() {
		if l, ok := lang.FromExtension(ext); ok {
			exts[l] = append(exts[l], "."+ext)
		}
	}

	out := make([]languageInfo, 0, len(lang.All()))
	for _, l := range lang.All() {
		out = append(out, languageInfo{
			Name:        l.String(),
			DisplayName: l.DisplayName(),
			Extensions:  exts[l],
			Grammar:     grammar.Supported(l),
		})
	}
	return out
}
