// Package watcher keeps a ParsedProject current while files change: a
// debounced fsnotify watcher feeds a coordinator that re-traverses the root
// and publishes each result as a new snapshot.
package watcher

import "context"

// FileWatcher reports batches of changed source paths.
type FileWatcher interface {
	// Start delivers each debounced batch to callback until ctx ends or Stop
	// is called. It does not block.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop ends delivery and releases the underlying watches. Safe to call
	// more than once.
	Stop() error

	// Pause holds batches back while changes keep accumulating.
	Pause()

	// Resume delivers any held batch at once.
	Resume()
}
