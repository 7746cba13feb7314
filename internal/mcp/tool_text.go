package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/search"
)

// AddTextTool registers the treeparser_text tool with an MCP server.
func AddTextTool(s *server.MCPServer, w *Workspace) {
	tool := mcp.NewTool(
		"treeparser_text",
		mcp.WithDescription(`Full-text search over construct names, source, and documentation using bleve query syntax.

Supports:
- Field scoping: name:Circle, source:NotImplementedError, documentation:deprecated
- Boolean operators: AND, OR, NOT, +required, -excluded
- Phrase search: "raise ValueError"
- Wildcards: Parse* (prefix matching)

Narrow with kind (exact node kind), language, and path_pattern (wildcard over full file paths).`),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Bleve query string")),
		mcp.WithString("kind",
			mcp.Description("Exact construct node kind, e.g. function_definition")),
		mcp.WithString("language",
			mcp.Description("Restrict to one language")),
		mcp.WithString("path_pattern",
			mcp.Description("Wildcard over file paths, e.g. *internal*")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-100, default: 20)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createTextHandler(w))
}

func createTextHandler(w *Workspace) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		var args TextRequest
		if err := bindArguments(request, &args); err != nil {
			return toolError("invalid arguments: %v", err)
		}
		if strings.TrimSpace(args.Query) == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		language, err := parseLanguageArg(args.Language)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		opts := &search.TextOptions{
			Limit:       clampLimit(args.Limit, defaultTextLimit, maxTextLimit),
			Kind:        args.Kind,
			Language:    language,
			PathPattern: args.PathPattern,
		}

		var hits []search.TextHit
		err = w.View(ctx, func(_ *parser.ParsedProject, text *search.TextIndex) error {
			var err error
			hits, err = text.Search(ctx, args.Query, opts)
			return err
		})
		if err != nil {
			return toolError("text search failed: %v", err)
		}

		response := TextResponse{Results: make([]TextResult, 0, len(hits)), Total: len(hits)}
		for _, h := range hits {
			response.Results = append(response.Results, TextResult{
				Path:       relPath(w.Root(), h.Path),
				Language:   h.Language.String(),
				Index:      h.Index,
				Kind:       h.Kind,
				Name:       h.Name,
				StartLine:  h.StartLine,
				EndLine:    h.EndLine,
				Score:      h.Score,
				Highlights: h.Highlights,
			})
		}
		response.Metadata = ResponseMetadata{TookMs: tookMs(start), Generation: w.Generation()}

		return marshalToolResponse(response)
	}
}
