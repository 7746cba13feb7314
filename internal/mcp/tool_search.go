package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/search"
)

// AddSearchTool registers the treeparser_search tool with an MCP server.
func AddSearchTool(s *server.MCPServer, w *Workspace) {
	tool := mcp.NewTool(
		"treeparser_search",
		mcp.WithDescription(`Find code constructs across the project by syntax node kind or by category.

Select constructs with exactly one of:
- node_types: tree-sitter node kinds, e.g. ["function_definition", "class_definition"]
- category: functions, types (alias: classes), imports, or variables

Narrow with name_pattern (regular expression over construct names), language, and path_pattern (glob over file paths, "*" crosses directories).

Examples:
- category=functions, name_pattern="^test_" - Python test functions
- node_types=["struct_item"], language=rust - Rust structs
- category=types, path_pattern="*/models/*" - types under any models directory`),
		mcp.WithArray("node_types",
			mcp.Description("Node kinds to match, e.g. ['function_definition', 'class_definition']")),
		mcp.WithString("category",
			mcp.Description("Construct category: functions, types, classes, imports, variables")),
		mcp.WithString("name_pattern",
			mcp.Description("Regular expression the construct name must match")),
		mcp.WithString("language",
			mcp.Description("Restrict to one language, e.g. python, go, rust")),
		mcp.WithString("path_pattern",
			mcp.Description("Glob over file paths")),
		mcp.WithBoolean("include_source",
			mcp.Description("Include construct source text (default: false)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-500, default: 50)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSearchHandler(w))
}

func createSearchHandler(w *Workspace) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		var args SearchRequest
		if err := bindArguments(request, &args); err != nil {
			return toolError("invalid arguments: %v", err)
		}

		selector, err := newSelector(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		language, err := parseLanguageArg(args.Language)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		paths, err := compilePathGlob(args.PathPattern)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := clampLimit(args.Limit, defaultSearchLimit, maxSearchLimit)

		response := SearchResponse{Results: []ConstructResult{}}
		err = w.View(ctx, func(p *parser.ParsedProject, _ *search.TextIndex) error {
			hits := search.InProject(p, func(f *parser.ParsedFile) []construct.Construct {
				if language != lang.Unknown && f.Language != language {
					return nil
				}
				if paths != nil && !paths.Match(relPath(w.Root(), f.Path)) {
					return nil
				}
				return selector(f)
			})

			response.Total = len(hits)
			if len(hits) > limit {
				hits = hits[:limit]
				response.Truncated = true
			}
			for _, h := range hits {
				response.Results = append(response.Results, toConstructResult(w.Root(), h.File, h.Construct, args.IncludeSource))
			}
			return nil
		})
		if err != nil {
			return toolError("search failed: %v", err)
		}
		response.Metadata = ResponseMetadata{TookMs: tookMs(start), Generation: w.Generation()}

		return marshalToolResponse(response)
	}
}

// newSelector turns the node_types or category argument into a per-file search.
func newSelector(args SearchRequest) (func(f *parser.ParsedFile) []construct.Construct, error) {
	switch {
	case len(args.NodeTypes) > 0 && args.Category != "":
		return nil, fmt.Errorf("node_types and category are mutually exclusive")
	case len(args.NodeTypes) > 0:
		return func(f *parser.ParsedFile) []construct.Construct {
			return search.ByNodeTypes(f, args.NodeTypes, args.NamePattern)
		}, nil
	case args.Category != "":
		category, err := lang.ParseCategory(args.Category)
		if err != nil {
			return nil, err
		}
		return func(f *parser.ParsedFile) []construct.Construct {
			return search.ByCategory(f, category, args.NamePattern)
		}, nil
	default:
		return nil, fmt.Errorf("one of node_types or category is required")
	}
}
