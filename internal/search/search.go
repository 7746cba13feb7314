// Package search answers read-only questions over parsed files: constructs by
// node kind with an optional name pattern, structural queries over retained
// syntax trees, per-language categories, and full-text search.
package search

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/grammar"
	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// ByNodeType returns the constructs of f whose kind equals kind. A non-empty
// namePattern is a regular expression that a construct's name must match;
// unnamed constructs never match it. An invalid pattern yields no results
// rather than an error.
func ByNodeType(f *parser.ParsedFile, kind string, namePattern string) []construct.Construct {
	return ByNodeTypes(f, []string{kind}, namePattern)
}

// ByNodeTypes is ByNodeType over a set of kinds. Each construct appears at
// most once, in file order.
func ByNodeTypes(f *parser.ParsedFile, kinds []string, namePattern string) []construct.Construct {
	out := []construct.Construct{}
	if f == nil || len(kinds) == 0 {
		return out
	}

	var re *regexp.Regexp
	if namePattern != "" {
		var err error
		if re, err = regexp.Compile(namePattern); err != nil {
			slog.Debug("invalid name pattern, returning no results", "pattern", namePattern, "error", err)
			return out
		}
	}

	want := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		want[k] = struct{}{}
	}

	for _, c := range f.Constructs {
		if _, ok := want[c.Kind]; !ok {
			continue
		}
		if re != nil && (!c.HasName() || !re.MatchString(c.Name)) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ByQuery runs a tree-sitter query over the file's retained syntax tree and
// returns one construct per capture. Capture text is resolved against the
// file as it is on disk now, so edits made after parsing show through; a
// capture that no longer fits the file is an Io error.
func ByQuery(f *parser.ParsedFile, pattern string) ([]construct.Construct, error) {
	if f == nil || !f.HasTree() {
		return nil, parser.ErrNoSyntaxTree
	}

	source, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: re-read %s: %w", parser.ErrIO, f.Path, err)
	}

	matches, err := f.Tree.Query(pattern, source)
	switch {
	case err == nil:
	case errors.Is(err, grammar.ErrInvalidQuery):
		return nil, err
	case errors.Is(err, grammar.ErrTreeReleased):
		return nil, parser.ErrNoSyntaxTree
	default:
		return nil, fmt.Errorf("%w: %w", parser.ErrIO, err)
	}

	out := []construct.Construct{}
	for _, m := range matches {
		for _, c := range m.Captures {
			out = append(out, construct.Construct{
				Index:     len(out),
				Kind:      c.Kind,
				Name:      c.NodeName,
				Source:    c.Text,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				StartByte: int(c.StartByte),
				EndByte:   int(c.EndByte),
				Parent:    construct.NoParent,
			})
		}
	}
	return out, nil
}

// ByCategory returns the constructs of f belonging to category c for the
// file's language.
func ByCategory(f *parser.ParsedFile, c lang.Category, namePattern string) []construct.Construct {
	if f == nil {
		return []construct.Construct{}
	}
	return ByNodeTypes(f, lang.CategoryKinds(f.Language, c), namePattern)
}

// Functions returns function-like constructs.
func Functions(f *parser.ParsedFile, namePattern string) []construct.Construct {
	return ByCategory(f, lang.Functions, namePattern)
}

// Types returns class, struct, interface and similar constructs.
func Types(f *parser.ParsedFile, namePattern string) []construct.Construct {
	return ByCategory(f, lang.Types, namePattern)
}

// Classes is an alias for Types.
func Classes(f *parser.ParsedFile, namePattern string) []construct.Construct {
	return Types(f, namePattern)
}

// Imports returns import-like constructs.
func Imports(f *parser.ParsedFile) []construct.Construct {
	return ByCategory(f, lang.Imports, "")
}

// Variables returns variable and constant declarations.
func Variables(f *parser.ParsedFile) []construct.Construct {
	return ByCategory(f, lang.Variables, "")
}

// Hit pairs a construct with the file it came from.
type Hit struct {
	File      *parser.ParsedFile
	Construct construct.Construct
}

// InProject applies a per-file search to every file of p, in file order.
func InProject(p *parser.ParsedProject, fn func(f *parser.ParsedFile) []construct.Construct) []Hit {
	hits := []Hit{}
	if p == nil {
		return hits
	}
	for _, f := range p.Files {
		for _, c := range fn(f) {
			hits = append(hits, Hit{File: f, Construct: c})
		}
	}
	return hits
}
