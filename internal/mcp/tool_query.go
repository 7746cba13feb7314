package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/search"
)

// AddQueryTool registers the treeparser_query tool with an MCP server.
func AddQueryTool(s *server.MCPServer, w *Workspace) {
	tool := mcp.NewTool(
		"treeparser_query",
		mcp.WithDescription(`Run a tree-sitter query against one file and return every capture.

The file is parsed on demand, so the query sees its current contents. Queries use tree-sitter S-expression syntax with @captures.

Examples:
- (function_definition name: (identifier) @name) - Python function names
- (call_expression function: (identifier) @callee) - Go or JavaScript call targets
- (struct_item name: (type_identifier) @struct) - Rust struct names`),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path relative to the project root")),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Tree-sitter query with at least one @capture")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of captures (1-500, default: 50)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createQueryHandler(w))
}

func createQueryHandler(w *Workspace) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		var args QueryRequest
		if err := bindArguments(request, &args); err != nil {
			return toolError("invalid arguments: %v", err)
		}
		if strings.TrimSpace(args.File) == "" {
			return mcp.NewToolResultError("file parameter is required"), nil
		}
		if strings.TrimSpace(args.Query) == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		limit := clampLimit(args.Limit, defaultSearchLimit, maxSearchLimit)

		path, err := resolveInRoot(w.Root(), args.File)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		opts := w.Options()
		opts.RetainSyntaxTree = true
		f, err := parser.ParseFile(path, opts)
		if err != nil {
			return toolError("%s: %v", parser.KindOf(err), err)
		}
		defer f.ReleaseTree()

		captures, err := search.ByQuery(f, args.Query)
		if err != nil {
			if errors.Is(err, parser.ErrInvalidQuery) {
				return toolError("invalid query: %v", err)
			}
			return toolError("%s: %v", parser.KindOf(err), err)
		}

		response := SearchResponse{Results: []ConstructResult{}, Total: len(captures)}
		if len(captures) > limit {
			captures = captures[:limit]
			response.Truncated = true
		}
		for _, c := range captures {
			response.Results = append(response.Results, toConstructResult(w.Root(), f, c, true))
		}
		response.Metadata = ResponseMetadata{TookMs: tookMs(start)}

		return marshalToolResponse(response)
	}
}

// resolveInRoot joins a client-supplied path onto root and rejects anything
// that would land outside it.
func resolveInRoot(root, file string) (string, error) {
	clean := parser.SanitizePath(filepath.ToSlash(file))
	if clean == "" {
		return "", fmt.Errorf("invalid file path %q", file)
	}
	path := filepath.Join(root, filepath.FromSlash(clean))

	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("file %q is outside the project root", file)
	}
	return path, nil
}
