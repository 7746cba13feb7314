package watcher

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/treeparser/internal/parser"
)

type cacheEntry struct {
	size    int64
	modTime time.Time
	file    *parser.ParsedFile
}

// ResultCache holds parse results for unchanged files across traversals. An
// entry is served only while the file's size and modification time match.
// Files carrying syntax trees are never stored.
type ResultCache struct {
	cache otter.Cache[string, cacheEntry]
	hits  atomic.Int64
}

var _ parser.FileCache = (*ResultCache)(nil)

// NewResultCache creates a cache holding at most capacity files.
func NewResultCache(capacity int) (*ResultCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	c, err := otter.MustBuilder[string, cacheEntry](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build result cache: %w", err)
	}
	return &ResultCache{cache: c}, nil
}

// Get returns the cached result for path if it was stored for the same size
// and modification time.
func (c *ResultCache) Get(path string, size int64, modTime time.Time) (*parser.ParsedFile, bool) {
	e, ok := c.cache.Get(path)
	if !ok {
		return nil, false
	}
	if e.size != size || !e.modTime.Equal(modTime) {
		c.cache.Delete(path)
		return nil, false
	}
	c.hits.Add(1)
	return e.file, true
}

// Put stores f for path.
func (c *ResultCache) Put(path string, size int64, modTime time.Time, f *parser.ParsedFile) {
	if f == nil || f.Tree != nil {
		return
	}
	c.cache.Set(path, cacheEntry{size: size, modTime: modTime, file: f})
}

// Invalidate drops the given paths.
func (c *ResultCache) Invalidate(paths ...string) {
	for _, p := range paths {
		c.cache.Delete(p)
	}
}

// Len returns the number of cached files.
func (c *ResultCache) Len() int {
	return c.cache.Size()
}

// Hits returns how many lookups were served from the cache.
func (c *ResultCache) Hits() int64 {
	return c.hits.Load()
}

// Close releases the cache.
func (c *ResultCache) Close() {
	c.cache.Close()
}
