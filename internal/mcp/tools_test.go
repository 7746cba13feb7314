package mcp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/treeparser/internal/parser"
)

const fixtures = "../../testdata/code"

func newFixtureWorkspace(t *testing.T) *Workspace {
	t.Helper()
	w := NewWorkspace(fixtures, parser.DefaultOptions())
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// decodeResult asserts a successful result and unmarshals its JSON text.
func decodeResult[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, "unexpected tool error: %v", result.Content)
	require.Len(t, result.Content, 1)

	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "result should be text content")

	var out T
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), &out))
	return out
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError, "expected a tool error")
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return textContent.Text
}

func TestParseHandler_Summary(t *testing.T) {
	t.Parallel()

	handler := createParseHandler(newFixtureWorkspace(t))

	result, err := handler(t.Context(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)

	resp := decodeResult[ParseResponse](t, result)
	assert.Equal(t, 4, resp.TotalProcessed)
	assert.Equal(t, 4, resp.Files)
	assert.Equal(t, 0, resp.ErrorCount)
	assert.Equal(t, map[string]int{"python": 1, "go": 1, "rust": 1, "typescript": 1}, resp.Languages)
	assert.Greater(t, resp.Constructs, 0)
	assert.NotEmpty(t, resp.Metadata.Generation)
}

func TestParseHandler_Refresh(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("def a():\n    pass\n"), 0o644))

	w := NewWorkspace(root, parser.DefaultOptions())
	t.Cleanup(func() { _ = w.Close() })
	handler := createParseHandler(w)

	result, err := handler(t.Context(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	first := decodeResult[ParseResponse](t, result)
	assert.Equal(t, 1, first.Files)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("def b():\n    pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644))

	t.Run("cached without refresh", func(t *testing.T) {
		result, err := handler(t.Context(), callRequest(map[string]interface{}{}))
		require.NoError(t, err)
		resp := decodeResult[ParseResponse](t, result)
		assert.Equal(t, 1, resp.Files)
		assert.Equal(t, first.Metadata.Generation, resp.Metadata.Generation)
	})

	t.Run("refresh re-parses", func(t *testing.T) {
		result, err := handler(t.Context(), callRequest(map[string]interface{}{"refresh": "true"}))
		require.NoError(t, err)
		resp := decodeResult[ParseResponse](t, result)
		assert.Equal(t, 2, resp.Files)
		assert.Equal(t, 1, resp.ErrorCount)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "notes.txt", resp.Errors[0].Path)
		assert.Equal(t, "UnsupportedLanguage", resp.Errors[0].Kind)
		assert.NotEqual(t, first.Metadata.Generation, resp.Metadata.Generation)
	})
}

func TestSearchHandler_Category(t *testing.T) {
	t.Parallel()

	handler := createSearchHandler(newFixtureWorkspace(t))

	result, err := handler(t.Context(), callRequest(map[string]interface{}{
		"category":     "functions",
		"name_pattern": "^area$",
		"language":     "python",
	}))
	require.NoError(t, err)

	resp := decodeResult[SearchResponse](t, result)
	require.Equal(t, 3, resp.Total)
	parents := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		assert.Equal(t, "area", r.Name)
		assert.Equal(t, "python/shapes.py", r.Path)
		assert.Empty(t, r.Source)
		parents = append(parents, r.Parent)
	}
	assert.Equal(t, []string{"Shape", "Circle", "Square"}, parents)
}

func TestSearchHandler_NodeTypes(t *testing.T) {
	t.Parallel()

	handler := createSearchHandler(newFixtureWorkspace(t))

	tests := []struct {
		name  string
		args  map[string]interface{}
		names []string
	}{
		{
			name:  "array argument",
			args:  map[string]interface{}{"node_types": []interface{}{"class_definition"}},
			names: []string{"Shape", "Circle", "Square"},
		},
		{
			name:  "json string argument",
			args:  map[string]interface{}{"node_types": `["class_definition"]`, "name_pattern": "^S"},
			names: []string{"Shape", "Square"},
		},
		{
			name:  "path pattern excludes file",
			args:  map[string]interface{}{"node_types": []interface{}{"class_definition"}, "path_pattern": "rust/*"},
			names: []string{},
		},
		{
			name:  "language mismatch",
			args:  map[string]interface{}{"node_types": []interface{}{"class_definition"}, "language": "go"},
			names: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(t.Context(), callRequest(tt.args))
			require.NoError(t, err)

			resp := decodeResult[SearchResponse](t, result)
			got := make([]string, 0, len(resp.Results))
			for _, r := range resp.Results {
				got = append(got, r.Name)
			}
			assert.Equal(t, tt.names, got)
		})
	}
}

func TestSearchHandler_LimitAndSource(t *testing.T) {
	t.Parallel()

	handler := createSearchHandler(newFixtureWorkspace(t))

	result, err := handler(t.Context(), callRequest(map[string]interface{}{
		"category":       "types",
		"limit":          float64(2),
		"include_source": true,
	}))
	require.NoError(t, err)

	resp := decodeResult[SearchResponse](t, result)
	assert.Equal(t, 9, resp.Total)
	assert.True(t, resp.Truncated)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.NotEmpty(t, r.Source)
	}
}

func TestSearchHandler_InvalidArguments(t *testing.T) {
	t.Parallel()

	handler := createSearchHandler(newFixtureWorkspace(t))

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"no selector", map[string]interface{}{}, "required"},
		{"both selectors", map[string]interface{}{"category": "functions", "node_types": []interface{}{"x"}}, "mutually exclusive"},
		{"unknown category", map[string]interface{}{"category": "modules"}, "unknown category"},
		{"unknown language", map[string]interface{}{"category": "functions", "language": "cobol"}, "unknown language"},
		{"bad glob", map[string]interface{}{"category": "functions", "path_pattern": "[a-"}, "path_pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(t.Context(), callRequest(tt.args))
			require.NoError(t, err)
			assert.Contains(t, errorText(t, result), tt.want)
		})
	}
}

func TestQueryHandler_Captures(t *testing.T) {
	t.Parallel()

	handler := createQueryHandler(newFixtureWorkspace(t))

	result, err := handler(t.Context(), callRequest(map[string]interface{}{
		"file":  "python/shapes.py",
		"query": "(class_definition name: (identifier) @name)",
	}))
	require.NoError(t, err)

	resp := decodeResult[SearchResponse](t, result)
	require.Equal(t, 3, resp.Total)
	sources := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		assert.Equal(t, "python/shapes.py", r.Path)
		assert.Equal(t, "python", r.Language)
		sources = append(sources, r.Source)
	}
	assert.Equal(t, []string{"Shape", "Circle", "Square"}, sources)
	assert.Equal(t, []int{9, 19, 27}, []int{resp.Results[0].StartLine, resp.Results[1].StartLine, resp.Results[2].StartLine})
}

func TestQueryHandler_Errors(t *testing.T) {
	t.Parallel()

	handler := createQueryHandler(newFixtureWorkspace(t))

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing file", map[string]interface{}{"query": "(identifier) @id"}, "file parameter is required"},
		{"missing query", map[string]interface{}{"file": "python/shapes.py"}, "query parameter is required"},
		{"invalid query", map[string]interface{}{"file": "python/shapes.py", "query": "(not_a_node"}, "invalid query"},
		{"nonexistent file", map[string]interface{}{"file": "python/missing.py", "query": "(identifier) @id"}, "IoError"},
		{"escape attempt", map[string]interface{}{"file": "../../../etc/passwd", "query": "(identifier) @id"}, "UnsupportedLanguage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(t.Context(), callRequest(tt.args))
			require.NoError(t, err)
			assert.Contains(t, errorText(t, result), tt.want)
		})
	}
}

func TestTextHandler(t *testing.T) {
	t.Parallel()

	handler := createTextHandler(newFixtureWorkspace(t))

	t.Run("name query", func(t *testing.T) {
		result, err := handler(t.Context(), callRequest(map[string]interface{}{"query": "name:largest"}))
		require.NoError(t, err)

		resp := decodeResult[TextResponse](t, result)
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, "python/shapes.py", resp.Results[0].Path)
		assert.Equal(t, "function_definition", resp.Results[0].Kind)
		assert.Equal(t, 35, resp.Results[0].StartLine)
	})

	t.Run("kind filter with string limit", func(t *testing.T) {
		result, err := handler(t.Context(), callRequest(map[string]interface{}{
			"query": "name:area",
			"kind":  "function_definition",
			"limit": "2",
		}))
		require.NoError(t, err)

		resp := decodeResult[TextResponse](t, result)
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("highlights", func(t *testing.T) {
		result, err := handler(t.Context(), callRequest(map[string]interface{}{"query": "source:NotImplementedError"}))
		require.NoError(t, err)

		resp := decodeResult[TextResponse](t, result)
		require.NotEmpty(t, resp.Results)
		assert.True(t, strings.Contains(strings.Join(resp.Results[0].Highlights, " "), "<mark>"))
	})

	t.Run("missing query", func(t *testing.T) {
		result, err := handler(t.Context(), callRequest(map[string]interface{}{}))
		require.NoError(t, err)
		assert.Contains(t, errorText(t, result), "query parameter is required")
	})
}
