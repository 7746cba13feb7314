package search

import (
	"strings"
	"testing"

	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureIndex(t *testing.T) (*TextIndex, *parser.ParsedProject) {
	t.Helper()

	project, err := parser.ParseDirectory(t.Context(), fixtures, parser.DefaultOptions())
	require.NoError(t, err)

	idx, err := NewTextIndex(t.Context(), project)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx, project
}

func TestTextIndex_Count(t *testing.T) {
	t.Parallel()

	idx, project := newFixtureIndex(t)

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(project.ConstructCount()), n)
}

func TestTextIndex_SearchByName(t *testing.T) {
	t.Parallel()

	idx, _ := newFixtureIndex(t)

	hits, err := idx.Search(t.Context(), "name:largest", nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "function_definition", hits[0].Kind)
	assert.Equal(t, lang.Python, hits[0].Language)
	assert.Equal(t, 35, hits[0].StartLine)
	assert.True(t, strings.HasSuffix(hits[0].Path, "shapes.py"))
}

func TestTextIndex_Filters(t *testing.T) {
	t.Parallel()

	idx, _ := newFixtureIndex(t)

	t.Run("kind", func(t *testing.T) {
		hits, err := idx.Search(t.Context(), "name:area", &TextOptions{Kind: "function_definition"})
		require.NoError(t, err)
		assert.Len(t, hits, 3)
		for _, h := range hits {
			assert.Equal(t, "area", h.Name)
		}

		hits, err = idx.Search(t.Context(), "Circle", &TextOptions{Kind: "class_definition"})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Circle", hits[0].Name)
	})

	t.Run("language", func(t *testing.T) {
		hits, err := idx.Search(t.Context(), "distance", &TextOptions{Language: lang.Rust})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		for _, h := range hits {
			assert.Equal(t, lang.Rust, h.Language)
		}
	})

	t.Run("path", func(t *testing.T) {
		hits, err := idx.Search(t.Context(), "area", &TextOptions{PathPattern: "*python*"})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		for _, h := range hits {
			assert.Contains(t, h.Path, "python")
		}
	})

	t.Run("limit", func(t *testing.T) {
		hits, err := idx.Search(t.Context(), "name:area", &TextOptions{Kind: "function_definition", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})
}

func TestTextIndex_Highlights(t *testing.T) {
	t.Parallel()

	idx, _ := newFixtureIndex(t)

	hits, err := idx.Search(t.Context(), "source:NotImplementedError", nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.NotEmpty(t, hits[0].Highlights)
	assert.LessOrEqual(t, len(hits[0].Highlights), 3)
	assert.Contains(t, hits[0].Highlights[0], "<mark>")
}

func TestTextIndex_EmptyQuery(t *testing.T) {
	t.Parallel()

	idx, err := NewTextIndex(t.Context(), nil)
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.Search(t.Context(), "  ", nil)
	assert.Error(t, err)

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTextIndex_Add(t *testing.T) {
	t.Parallel()

	idx, err := NewTextIndex(t.Context(), nil)
	require.NoError(t, err)
	defer idx.Close()

	f, err := parser.ParseSource("inline.py", []byte("def zebra():\n    pass\n"), lang.Python, false)
	require.NoError(t, err)
	require.NoError(t, idx.Add(t.Context(), f))

	hits, err := idx.Search(t.Context(), "zebra", nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "inline.py", hits[0].Path)
	assert.Equal(t, 0, hits[0].Index)
}
