package parser

import (
	"sort"
	"time"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/grammar"
	"github.com/mvp-joe/treeparser/internal/lang"
)

// ParsedFile is the result of parsing one file. It is not mutated after it is
// returned, except that its syntax tree can be released.
type ParsedFile struct {
	Path       string                `json:"path"`
	Name       string                `json:"name"`
	Language   lang.Language         `json:"language"`
	Constructs []construct.Construct `json:"constructs"`
	Size       int64                 `json:"size"`
	// Tree is nil unless the tree was retained at parse time.
	Tree *grammar.SyntaxTree `json:"-"`
}

// HasTree reports whether a live syntax tree is attached.
func (f *ParsedFile) HasTree() bool {
	return f.Tree != nil && !f.Tree.Released()
}

// ReleaseTree frees the retained syntax tree. Structural queries on this file
// fail afterwards.
func (f *ParsedFile) ReleaseTree() {
	if f.Tree != nil {
		f.Tree.Release()
	}
}

// ParentOf returns the construct enclosing c, if any.
func (f *ParsedFile) ParentOf(c construct.Construct) (construct.Construct, bool) {
	if !c.HasParent() || c.Parent >= len(f.Constructs) {
		return construct.Construct{}, false
	}
	return f.Constructs[c.Parent], true
}

// ChildrenOf returns the constructs directly nested in c.
func (f *ParsedFile) ChildrenOf(c construct.Construct) []construct.Construct {
	out := make([]construct.Construct, 0, len(c.Children))
	for _, idx := range c.Children {
		if idx >= 0 && idx < len(f.Constructs) {
			out = append(out, f.Constructs[idx])
		}
	}
	return out
}

// Roots returns the top-level constructs.
func (f *ParsedFile) Roots() []construct.Construct {
	var out []construct.Construct
	for _, c := range f.Constructs {
		if !c.HasParent() {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits constructs depth-first from the roots; depth starts at 0.
// Returning false from fn skips the construct's children.
func (f *ParsedFile) Walk(fn func(c construct.Construct, depth int) bool) {
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		c := f.Constructs[idx]
		if !fn(c, depth) {
			return
		}
		for _, child := range c.Children {
			visit(child, depth+1)
		}
	}
	for _, c := range f.Constructs {
		if !c.HasParent() {
			visit(c.Index, 0)
		}
	}
}

// ParsedProject is a point-in-time snapshot of one traversal.
type ParsedProject struct {
	Root           string                `json:"root"`
	Files          []*ParsedFile         `json:"files"`
	TotalProcessed int                   `json:"total_files_processed"`
	Languages      map[lang.Language]int `json:"language_distribution"`
	Errors         []FileError           `json:"error_files"`
	Duration       time.Duration         `json:"duration"`
}

// ConstructCount sums constructs across every file.
func (p *ParsedProject) ConstructCount() int {
	n := 0
	for _, f := range p.Files {
		n += len(f.Constructs)
	}
	return n
}

// File returns the parsed file with the given path.
func (p *ParsedProject) File(path string) (*ParsedFile, bool) {
	for _, f := range p.Files {
		if f.Path == path {
			return f, true
		}
	}
	return nil, false
}

// ErrorsOfKind filters the error list.
func (p *ParsedProject) ErrorsOfKind(kind ErrorKind) []FileError {
	var out []FileError
	for _, e := range p.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// SortedLanguages returns the histogram's languages, most files first.
func (p *ParsedProject) SortedLanguages() []lang.Language {
	out := make([]lang.Language, 0, len(p.Languages))
	for l := range p.Languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if p.Languages[out[i]] != p.Languages[out[j]] {
			return p.Languages[out[i]] > p.Languages[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Close releases every retained syntax tree.
func (p *ParsedProject) Close() {
	for _, f := range p.Files {
		f.ReleaseTree()
	}
}
