package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileWatcher:
// - NewFileWatcher succeeds on valid directories and fails on missing ones
// - A single change fires the callback after the debounce period
// - Rapid changes to several files arrive in one sorted, de-duplicated batch
// - Pause accumulates; Resume fires immediately
// - Accept filters files; SkipDir leaves subtrees unwatched
// - Newly created directories are watched
// - Deletions are reported
// - Stop is idempotent and safe to call concurrently

const testDebounce = 100 * time.Millisecond

func startWatcher(t *testing.T, dir string, opts Options) (FileWatcher, <-chan []string) {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}
	w, err := NewFileWatcher([]string{dir}, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	batches := make(chan []string, 16)
	require.NoError(t, w.Start(context.Background(), func(files []string) {
		batches <- files
	}))
	// Give the event loop a moment to start.
	time.Sleep(50 * time.Millisecond)
	return w, batches
}

func nextBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case files := <-batches:
		return files
	case <-time.After(3 * time.Second):
		t.Fatal("callback not called after timeout")
		return nil
	}
}

func assertNoBatch(t *testing.T, batches <-chan []string, wait time.Duration) {
	t.Helper()
	select {
	case files := <-batches:
		t.Fatalf("unexpected callback with %v", files)
	case <-time.After(wait):
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewFileWatcher_Success(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher([]string{t.TempDir()}, Options{})
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, DefaultDebounce, w.(*debouncedWatcher).opts.Debounce)
	require.NoError(t, w.Stop())
}

func TestNewFileWatcher_InvalidDirectory(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "nonexistent")}, Options{})
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestFileWatcher_SingleFileChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, batches := startWatcher(t, dir, Options{})

	file := filepath.Join(dir, "main.go")
	write(t, file, "package main")

	assert.Equal(t, []string{file}, nextBatch(t, batches))
}

func TestFileWatcher_BatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, batches := startWatcher(t, dir, Options{Debounce: 300 * time.Millisecond})

	b := filepath.Join(dir, "b.py")
	a := filepath.Join(dir, "a.py")
	write(t, b, "x = 1")
	time.Sleep(30 * time.Millisecond)
	write(t, a, "y = 1")
	time.Sleep(30 * time.Millisecond)
	write(t, b, "x = 2")

	assert.Equal(t, []string{a, b}, nextBatch(t, batches))
	assertNoBatch(t, batches, 500*time.Millisecond)
}

func TestFileWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, batches := startWatcher(t, dir, Options{})

	w.Pause()
	file := filepath.Join(dir, "paused.rs")
	write(t, file, "fn main() {}")
	assertNoBatch(t, batches, 4*testDebounce)

	w.Resume()
	assert.Equal(t, []string{file}, nextBatch(t, batches))
}

func TestFileWatcher_AcceptFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, batches := startWatcher(t, dir, Options{
		Accept: func(path string) bool { return strings.HasSuffix(path, ".go") },
	})

	write(t, filepath.Join(dir, "notes.md"), "# notes")
	assertNoBatch(t, batches, 4*testDebounce)

	file := filepath.Join(dir, "x.go")
	write(t, file, "package x")
	assert.Equal(t, []string{file}, nextBatch(t, batches))
}

func TestFileWatcher_SkipDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "pkg"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))

	_, batches := startWatcher(t, dir, Options{
		SkipDir: func(path string) bool { return filepath.Base(path) == "node_modules" },
	})

	write(t, filepath.Join(dir, "node_modules", "pkg", "index.js"), "var x = 1;")
	assertNoBatch(t, batches, 4*testDebounce)

	file := filepath.Join(dir, "src", "app.js")
	write(t, file, "var y = 2;")
	assert.Equal(t, []string{file}, nextBatch(t, batches))
}

func TestFileWatcher_DirectoryAdded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, batches := startWatcher(t, dir, Options{})

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Let the watcher register the new directory.
	time.Sleep(50 * time.Millisecond)

	file := filepath.Join(sub, "lib.go")
	write(t, file, "package pkg")

	assert.Contains(t, nextBatch(t, batches), file)
}

func TestFileWatcher_FileDeleted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "gone.py")
	write(t, file, "pass")

	_, batches := startWatcher(t, dir, Options{})
	require.NoError(t, os.Remove(file))

	assert.Equal(t, []string{file}, nextBatch(t, batches))
}

func TestFileWatcher_ConcurrentStop(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher([]string{t.TempDir()}, Options{})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), func([]string) {}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Stop()
		}()
	}
	wg.Wait()
	assert.NoError(t, w.Stop())
}
