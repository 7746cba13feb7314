package mcp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// marshalToolResponse marshals a response object to JSON and returns it as an MCP tool result.
func marshalToolResponse(response interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// toolError reports a failure to the client as a tool result rather than a
// protocol error.
func toolError(format string, args ...any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

func tookMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
