package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvp-joe/treeparser/internal/parser"
)

// Snapshot is one complete traversal result.
type Snapshot struct {
	// Generation uniquely identifies the snapshot.
	Generation string
	Project    *parser.ParsedProject
	// Changed lists the paths that triggered the traversal; empty for the
	// initial one.
	Changed []string
	// Reused counts files served from the result cache.
	Reused  int
	TakenAt time.Time
}

// Coordinator re-traverses a root whenever the file watcher reports changes
// and hands every new snapshot to a callback. Traversals never overlap.
type Coordinator struct {
	root       string
	opts       parser.ParseOptions
	filter     *parser.FileFilter
	files      FileWatcher
	cache      *ResultCache
	onSnapshot func(Snapshot)

	ctx context.Context

	mu      sync.Mutex // serializes traversals
	current *Snapshot
}

// CoordinatorConfig configures NewCoordinator.
type CoordinatorConfig struct {
	Root    string
	Options parser.ParseOptions
	Filter  *parser.FileFilter
	// Files overrides the fsnotify watcher, mainly for tests.
	Files         FileWatcher
	Debounce      time.Duration
	CacheCapacity int
	// OnSnapshot receives every snapshot, including the initial one. Retained
	// syntax trees of a snapshot are released once it is replaced.
	OnSnapshot func(Snapshot)
}

// NewCoordinator validates cfg and builds the watcher and the result cache.
// The cache is only created when Options.EnableCaching is set.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if !parser.IsValidDirectory(cfg.Root) {
		return nil, fmt.Errorf("%w: directory does not exist: %s", parser.ErrIO, cfg.Root)
	}

	c := &Coordinator{
		root:       cfg.Root,
		opts:       cfg.Options,
		filter:     cfg.Filter,
		files:      cfg.Files,
		onSnapshot: cfg.OnSnapshot,
		ctx:        context.Background(),
	}

	if cfg.Options.EnableCaching {
		capacity := cfg.CacheCapacity
		if capacity <= 0 {
			capacity = 10000
		}
		cache, err := NewResultCache(capacity)
		if err != nil {
			return nil, err
		}
		c.cache = cache
		c.opts.Cache = cache
	}

	if c.files == nil {
		fw, err := NewFileWatcher([]string{cfg.Root}, Options{
			Debounce: cfg.Debounce,
			Accept:   c.accepts,
			SkipDir:  c.skipsDir,
		})
		if err != nil {
			c.closeCache()
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		c.files = fw
	}

	return c, nil
}

// accepts mirrors discovery's hidden and ignore rules so that events for
// files a traversal would never see do not trigger one.
func (c *Coordinator) accepts(path string) bool {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if !c.opts.IncludeHidden && strings.HasPrefix(seg, ".") {
			return false
		}
	}
	if !c.opts.Recursive && strings.Contains(rel, "/") {
		return false
	}
	return !parser.MatchesIgnorePatterns(rel, c.opts.IgnorePatterns)
}

func (c *Coordinator) skipsDir(path string) bool {
	return !c.opts.Recursive || !c.accepts(path)
}

// Start runs the initial traversal, then watches for changes until ctx is
// cancelled.
func (c *Coordinator) Start(ctx context.Context) error {
	c.ctx = ctx
	defer c.cleanup()

	if _, err := c.Refresh(ctx, nil); err != nil {
		return err
	}

	if err := c.files.Start(ctx, c.handleFileChange); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	<-ctx.Done()
	return ctx.Err()
}

func (c *Coordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		slog.Warn("file watcher stop failed", "error", err)
	}
	c.closeCache()
}

func (c *Coordinator) closeCache() {
	if c.cache != nil {
		c.cache.Close()
	}
}

func (c *Coordinator) handleFileChange(files []string) {
	if len(files) == 0 {
		return
	}
	slog.Info("files changed", "count", len(files))

	if _, err := c.Refresh(c.ctx, files); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("re-traversal failed", "root", c.root, "error", err)
	}
}

// Refresh traverses the root now and publishes the result. changed names the
// paths known to have changed; they are evicted from the cache first.
func (c *Coordinator) Refresh(ctx context.Context, changed []string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil {
		c.cache.Invalidate(changed...)
	}

	var hitsBefore int64
	if c.cache != nil {
		hitsBefore = c.cache.Hits()
	}

	project, err := parser.ParseDirectoryWithFilter(ctx, c.root, c.opts, c.filter)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Generation: uuid.NewString(),
		Project:    project,
		Changed:    changed,
		TakenAt:    time.Now(),
	}
	if c.cache != nil {
		snap.Reused = int(c.cache.Hits() - hitsBefore)
	}

	// Trees of the replaced snapshot belong to the coordinator.
	if c.current != nil && c.current.Project != nil {
		c.current.Project.Close()
	}
	c.current = &snap

	slog.Info("snapshot ready",
		"generation", snap.Generation,
		"files", project.TotalProcessed,
		"errors", len(project.Errors),
		"reused", snap.Reused)

	if c.onSnapshot != nil {
		c.onSnapshot(snap)
	}
	return snap, nil
}

// Current returns the latest snapshot, if any traversal has completed.
func (c *Coordinator) Current() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Snapshot{}, false
	}
	return *c.current, true
}
