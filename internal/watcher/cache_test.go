package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
)

func TestResultCache(t *testing.T) {
	t.Parallel()

	c, err := NewResultCache(100)
	require.NoError(t, err)
	defer c.Close()

	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f := &parser.ParsedFile{Path: "/x/a.py", Language: lang.Python}

	_, ok := c.Get("/x/a.py", 10, mtime)
	assert.False(t, ok)

	c.Put("/x/a.py", 10, mtime, f)
	got, ok := c.Get("/x/a.py", 10, mtime)
	require.True(t, ok)
	assert.Same(t, f, got)
	assert.Equal(t, int64(1), c.Hits())

	_, ok = c.Get("/x/a.py", 11, mtime)
	assert.False(t, ok, "size change misses")
	_, ok = c.Get("/x/a.py", 10, mtime)
	assert.False(t, ok, "stale entries are evicted")

	c.Put("/x/a.py", 10, mtime, f)
	_, ok = c.Get("/x/a.py", 10, mtime.Add(time.Second))
	assert.False(t, ok, "mtime change misses")

	c.Put("/x/a.py", 10, mtime, f)
	c.Invalidate("/x/a.py")
	_, ok = c.Get("/x/a.py", 10, mtime)
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Hits())
}

func TestResultCache_SkipsNil(t *testing.T) {
	t.Parallel()

	c, err := NewResultCache(10)
	require.NoError(t, err)
	defer c.Close()

	c.Put("/x", 1, time.Now(), nil)
	assert.Zero(t, c.Len())
}

func TestNewResultCache_InvalidCapacity(t *testing.T) {
	t.Parallel()

	_, err := NewResultCache(0)
	assert.Error(t, err)
}
