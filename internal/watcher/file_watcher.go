package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a file watcher.
type Options struct {
	// Debounce is the quiet period before changes are delivered.
	Debounce time.Duration
	// Accept reports whether a changed file is of interest. Nil accepts every file.
	Accept func(path string) bool
	// SkipDir reports whether a directory (and its subtree) is left unwatched.
	SkipDir func(path string) bool
}

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// debouncedWatcher batches fsnotify events per path and delivers each batch
// once no event has arrived for the debounce period.
type debouncedWatcher struct {
	fs   *fsnotify.Watcher
	opts Options

	onChange func(files []string)
	cancel   context.CancelFunc
	fire     chan struct{} // debounce expiry, buffered 1
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	paused  bool
}

// NewFileWatcher creates a file watcher over dirs, each watched recursively.
func NewFileWatcher(dirs []string, opts Options) (FileWatcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &debouncedWatcher{
		fs:      notify,
		opts:    opts,
		fire:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		pending: make(map[string]struct{}),
	}
	for _, dir := range dirs {
		if err := w.watchTree(dir); err != nil {
			notify.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start runs the event loop in the background. A nil callback leaves the
// watcher idle.
func (w *debouncedWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}
	w.onChange = callback

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	go w.loop(loopCtx)
	return nil
}

// Stop ends the event loop and closes the fsnotify watcher. Only the first
// call does any work.
func (w *debouncedWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel == nil {
			close(w.done)
		} else {
			w.cancel()
			<-w.done
		}
		err = w.fs.Close()
	})
	return err
}

// Pause holds batches back; events keep accumulating.
func (w *debouncedWatcher) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
}

// Resume delivers anything accumulated while paused right away.
func (w *debouncedWatcher) Resume() {
	w.mu.Lock()
	wasPaused := w.paused
	w.paused = false
	w.mu.Unlock()

	if wasPaused {
		w.deliver()
	}
}

func (w *debouncedWatcher) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
				w.timer = nil
			}
			w.mu.Unlock()
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)

		case <-w.fire:
			w.mu.Lock()
			paused := w.paused
			w.mu.Unlock()
			if !paused {
				w.deliver()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("file watcher error", "error", err)
		}
	}
}

func (w *debouncedWatcher) handle(event fsnotify.Event) {
	if event.Op&relevantOps == 0 {
		return
	}

	info, statErr := os.Stat(event.Name)
	isDir := statErr == nil && info.IsDir()
	if isDir {
		if event.Op&fsnotify.Create != 0 && !w.skipped(event.Name) {
			if err := w.watchTree(event.Name); err != nil {
				slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return
	}
	// A rename shows up as Rename of the old name plus Create of the new one.
	if w.opts.Accept != nil && !w.opts.Accept(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
	w.mu.Unlock()
}

// deliver hands the pending paths, sorted, to the callback.
func (w *debouncedWatcher) deliver() {
	w.mu.Lock()
	if len(w.pending) == 0 || w.onChange == nil {
		w.mu.Unlock()
		return
	}
	files := make([]string, 0, len(w.pending))
	for path := range w.pending {
		files = append(files, path)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	slices.Sort(files)
	w.onChange(files)
}

func (w *debouncedWatcher) skipped(dir string) bool {
	return w.opts.SkipDir != nil && w.opts.SkipDir(dir)
}

// watchTree adds root and every directory below it that is not skipped.
// Only a failure on root itself is returned.
func (w *debouncedWatcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("error accessing path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipped(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			slog.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}
