package mcp

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// ServerConfig configures NewServer.
type ServerConfig struct {
	Root    string
	Options parser.ParseOptions
	// Watch keeps the served project current by re-traversing on change.
	Watch         bool
	Debounce      time.Duration
	CacheCapacity int
}

// ParseRequest is the argument set of treeparser_parse.
type ParseRequest struct {
	Refresh bool `json:"refresh"`
}

// SearchRequest is the argument set of treeparser_search. Exactly one of
// NodeTypes or Category selects the constructs.
type SearchRequest struct {
	NodeTypes     []string `json:"node_types"`
	Category      string   `json:"category"`
	NamePattern   string   `json:"name_pattern"`
	Language      string   `json:"language"`
	PathPattern   string   `json:"path_pattern"`
	IncludeSource bool     `json:"include_source"`
	Limit         int      `json:"limit"`
}

// QueryRequest is the argument set of treeparser_query.
type QueryRequest struct {
	File  string `json:"file"`
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// TextRequest is the argument set of treeparser_text.
type TextRequest struct {
	Query       string `json:"query"`
	Kind        string `json:"kind"`
	Language    string `json:"language"`
	PathPattern string `json:"path_pattern"`
	Limit       int    `json:"limit"`
}

// ResponseMetadata is attached to every tool response.
type ResponseMetadata struct {
	TookMs     int64  `json:"took_ms"`
	Generation string `json:"generation,omitempty"`
}

// ParseResponse summarizes the served project.
type ParseResponse struct {
	Root           string           `json:"root"`
	TotalProcessed int              `json:"total_files_processed"`
	Files          int              `json:"files"`
	Constructs     int              `json:"constructs"`
	Languages      map[string]int   `json:"languages"`
	Errors         []ErrorEntry     `json:"errors,omitempty"`
	ErrorCount     int              `json:"error_count"`
	DurationMs     int64            `json:"duration_ms"`
	LoadedAt       time.Time        `json:"loaded_at"`
	Metadata       ResponseMetadata `json:"metadata"`
}

// ErrorEntry is one file that could not be parsed.
type ErrorEntry struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ConstructResult is one construct in a search or query response.
type ConstructResult struct {
	Path       string `json:"path"`
	Language   string `json:"language"`
	Index      int    `json:"index"`
	Kind       string `json:"kind"`
	Name       string `json:"name,omitempty"`
	Parent     string `json:"parent,omitempty"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Visibility string `json:"visibility,omitempty"`
	Signature  string `json:"signature,omitempty"`
	Source     string `json:"source,omitempty"`
}

// SearchResponse is returned by treeparser_search and treeparser_query.
type SearchResponse struct {
	Results   []ConstructResult `json:"results"`
	Total     int               `json:"total"`
	Truncated bool              `json:"truncated,omitempty"`
	Metadata  ResponseMetadata  `json:"metadata"`
}

// TextResult is one full-text hit.
type TextResult struct {
	Path       string   `json:"path"`
	Language   string   `json:"language"`
	Index      int      `json:"index"`
	Kind       string   `json:"kind"`
	Name       string   `json:"name,omitempty"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
}

// TextResponse is returned by treeparser_text.
type TextResponse struct {
	Results  []TextResult     `json:"results"`
	Total    int              `json:"total"`
	Metadata ResponseMetadata `json:"metadata"`
}

// relPath reports path relative to root when it lies beneath it.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func toConstructResult(root string, f *parser.ParsedFile, c construct.Construct, includeSource bool) ConstructResult {
	r := ConstructResult{
		Path:       relPath(root, f.Path),
		Language:   f.Language.String(),
		Index:      c.Index,
		Kind:       c.Kind,
		Name:       c.Name,
		StartLine:  c.StartLine,
		EndLine:    c.EndLine,
		Visibility: c.Metadata.Visibility,
		Signature:  signature(c),
	}
	if parent, ok := f.ParentOf(c); ok {
		r.Parent = parent.Name
	}
	if includeSource {
		r.Source = c.Source
	}
	return r
}

// signature renders "name(a type, b) ret" for callables, empty otherwise.
func signature(c construct.Construct) string {
	m := c.Metadata
	if len(m.Parameters) == 0 && m.ReturnType == "" {
		return ""
	}
	sig := c.Name + "("
	for i, p := range m.Parameters {
		if i > 0 {
			sig += ", "
		}
		if p.Variadic {
			sig += "..."
		}
		sig += p.Name
		if p.Type != "" {
			sig += " " + p.Type
		}
	}
	sig += ")"
	if m.ReturnType != "" {
		sig += " " + m.ReturnType
	}
	return sig
}
