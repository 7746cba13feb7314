package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/search"
	"github.com/mvp-joe/treeparser/internal/watcher"
)

// Workspace holds the project snapshot the tools answer from, together with
// its full-text index. The project is parsed lazily on first use and replaced
// wholesale on reload or when a watcher publishes a snapshot.
type Workspace struct {
	root string
	opts parser.ParseOptions

	loadMu sync.Mutex // serializes traversals

	mu         sync.RWMutex
	project    *parser.ParsedProject
	text       *search.TextIndex
	generation string
	loadedAt   time.Time
}

// NewWorkspace creates an empty workspace over root. Syntax trees are never
// retained for the served project; treeparser_query parses its file afresh.
func NewWorkspace(root string, opts parser.ParseOptions) *Workspace {
	opts.RetainSyntaxTree = false
	opts.Progress = nil
	return &Workspace{root: root, opts: opts}
}

// Root returns the directory the workspace serves.
func (w *Workspace) Root() string {
	return w.root
}

// Options returns the traversal options used for the served project.
func (w *Workspace) Options() parser.ParseOptions {
	return w.opts
}

// View calls fn with the current project and text index, loading the project
// first if needed. The snapshot stays valid for the duration of fn.
func (w *Workspace) View(ctx context.Context, fn func(p *parser.ParsedProject, text *search.TextIndex) error) error {
	if err := w.ensureLoaded(ctx); err != nil {
		return err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return fn(w.project, w.text)
}

// Generation identifies the current snapshot; empty before the first load.
func (w *Workspace) Generation() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.generation
}

// LoadedAt reports when the current snapshot was installed.
func (w *Workspace) LoadedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loadedAt
}

func (w *Workspace) ensureLoaded(ctx context.Context) error {
	w.mu.RLock()
	loaded := w.project != nil
	w.mu.RUnlock()
	if loaded {
		return nil
	}

	w.loadMu.Lock()
	defer w.loadMu.Unlock()

	w.mu.RLock()
	loaded = w.project != nil
	w.mu.RUnlock()
	if loaded {
		return nil
	}
	return w.load(ctx)
}

// Reload re-traverses the root and installs the result.
func (w *Workspace) Reload(ctx context.Context) error {
	w.loadMu.Lock()
	defer w.loadMu.Unlock()
	return w.load(ctx)
}

func (w *Workspace) load(ctx context.Context) error {
	project, err := parser.ParseDirectory(ctx, w.root, w.opts)
	if err != nil {
		return fmt.Errorf("parse %s: %w", w.root, err)
	}
	return w.install(ctx, project, uuid.NewString())
}

// Apply installs a snapshot published by a watcher.Coordinator.
func (w *Workspace) Apply(snap watcher.Snapshot) {
	if snap.Project == nil {
		return
	}
	if err := w.install(context.Background(), snap.Project, snap.Generation); err != nil {
		slog.Error("failed to install snapshot", "generation", snap.Generation, "error", err)
	}
}

func (w *Workspace) install(ctx context.Context, project *parser.ParsedProject, generation string) error {
	text, err := search.NewTextIndex(ctx, project)
	if err != nil {
		return err
	}

	w.mu.Lock()
	old := w.text
	w.project = project
	w.text = text
	w.generation = generation
	w.loadedAt = time.Now()
	w.mu.Unlock()

	// Readers hold the read lock while using an index, so none can still
	// reference the old one here.
	if old != nil {
		if err := old.Close(); err != nil {
			slog.Warn("failed to close text index", "error", err)
		}
	}

	slog.Debug("workspace updated",
		"generation", generation,
		"files", len(project.Files),
		"constructs", project.ConstructCount())
	return nil
}

// Close releases the text index.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.text == nil {
		return nil
	}
	err := w.text.Close()
	w.text = nil
	w.project = nil
	return err
}
