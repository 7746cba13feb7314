package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/search"
)

// maxReportedErrors caps the per-file errors listed in a parse summary.
const maxReportedErrors = 50

// AddParseTool registers the treeparser_parse tool with an MCP server.
func AddParseTool(s *server.MCPServer, w *Workspace) {
	tool := mcp.NewTool(
		"treeparser_parse",
		mcp.WithDescription(`Summarize the parsed project: file and construct counts, language distribution, and files that failed to parse.

Set refresh=true to re-traverse the project before summarizing.`),
		mcp.WithBoolean("refresh",
			mcp.Description("Re-parse the project before answering (default: false)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createParseHandler(w))
}

func createParseHandler(w *Workspace) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		var args ParseRequest
		if err := bindArguments(request, &args); err != nil {
			return toolError("invalid arguments: %v", err)
		}

		if args.Refresh {
			if err := w.Reload(ctx); err != nil {
				return toolError("parse failed: %v", err)
			}
		}

		var response ParseResponse
		err := w.View(ctx, func(p *parser.ParsedProject, _ *search.TextIndex) error {
			response = summarize(w.Root(), p)
			return nil
		})
		if err != nil {
			return toolError("parse failed: %v", err)
		}
		response.LoadedAt = w.LoadedAt()
		response.Metadata = ResponseMetadata{TookMs: tookMs(start), Generation: w.Generation()}

		return marshalToolResponse(response)
	}
}

func summarize(root string, p *parser.ParsedProject) ParseResponse {
	r := ParseResponse{
		Root:           root,
		TotalProcessed: p.TotalProcessed,
		Files:          len(p.Files),
		Constructs:     p.ConstructCount(),
		Languages:      make(map[string]int, len(p.Languages)),
		ErrorCount:     len(p.Errors),
		DurationMs:     p.Duration.Milliseconds(),
	}
	for l, n := range p.Languages {
		r.Languages[l.String()] = n
	}
	for i, e := range p.Errors {
		if i == maxReportedErrors {
			break
		}
		r.Errors = append(r.Errors, ErrorEntry{
			Path:    relPath(root, e.Path),
			Kind:    e.Kind.String(),
			Message: e.Message,
		})
	}
	return r
}
