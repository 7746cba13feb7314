package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mvp-joe/treeparser/internal/grammar"
	"github.com/mvp-joe/treeparser/internal/lang"
	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome for one discovered path: exactly one of File and
// Err is set. Seq is the file's position in discovery order, or -1 for
// entries the walk itself could not read.
type FileResult struct {
	Seq  int
	File *ParsedFile
	Err  *FileError
}

type job struct {
	seq  int
	file candidate
}

// ParseDirectory parses every eligible file under root.
func ParseDirectory(ctx context.Context, root string, opts ParseOptions) (*ParsedProject, error) {
	return ParseDirectoryWithFilter(ctx, root, opts, nil)
}

// ParseDirectoryWithFilter parses every file under root that passes filter.
// A missing root is the only failure that aborts the call; every per-file
// failure lands in the project's error list. Files and errors are ordered by
// discovery order.
func ParseDirectoryWithFilter(ctx context.Context, root string, opts ParseOptions, filter *FileFilter) (*ParsedProject, error) {
	start := time.Now()

	var results []FileResult
	err := Traverse(ctx, root, opts, filter, func(r FileResult) {
		results = append(results, r)
	})
	if err != nil {
		for _, r := range results {
			if r.File != nil {
				r.File.ReleaseTree()
			}
		}
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Seq < results[j].Seq })

	project := &ParsedProject{
		Root:      root,
		Files:     []*ParsedFile{},
		Languages: make(map[lang.Language]int),
		Errors:    []FileError{},
	}
	for _, r := range results {
		if r.Err != nil {
			project.Errors = append(project.Errors, *r.Err)
			continue
		}
		project.Files = append(project.Files, r.File)
		project.Languages[r.File.Language]++
	}
	project.TotalProcessed = len(project.Files)
	project.Duration = time.Since(start)

	opts.progress().OnComplete(&Stats{
		Files:      project.TotalProcessed,
		Errors:     len(project.Errors),
		Constructs: project.ConstructCount(),
		Duration:   project.Duration,
	})
	slog.Info("traversal complete",
		"root", root,
		"files", project.TotalProcessed,
		"errors", len(project.Errors),
		"duration", project.Duration)
	return project, nil
}

// Traverse discovers files under root and parses them on a fixed pool of
// workers, each owning its own parser pool. fn receives results in completion
// order and is never called concurrently. Cancelling ctx stops dispatch and
// returns the context error.
func Traverse(ctx context.Context, root string, opts ParseOptions, filter *FileFilter, fn func(FileResult)) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: directory does not exist: %s", ErrIO, root)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a directory or regular file: %s", ErrIO, root)
	}

	progress := opts.progress()
	progress.OnDiscoveryStart()

	d, err := newDiscovery(root, opts, filter)
	if err != nil {
		return err
	}
	files, walkErrs, err := d.discover(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: walk %s: %w", ErrIO, root, err)
	}
	progress.OnDiscoveryComplete(len(files))

	for i := range walkErrs {
		slog.Debug("walk error", "path", walkErrs[i].Path, "kind", walkErrs[i].Kind, "error", walkErrs[i].Message)
		fn(FileResult{Seq: -1, Err: &walkErrs[i]})
	}

	workers := opts.workers(len(files))
	progress.OnFileProcessingStart(len(files))
	slog.Debug("parsing files", "root", root, "files", len(files), "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	results := make(chan FileResult)

	g.Go(func() error {
		defer close(jobs)
		for i, f := range files {
			select {
			case jobs <- job{seq: i, file: f}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			pool := grammar.NewPool()
			defer pool.Close()

			for j := range jobs {
				r := parseJob(pool, j, opts)
				select {
				case results <- r:
				case <-gctx.Done():
					if r.File != nil {
						r.File.ReleaseTree()
					}
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		var path string
		if r.File != nil {
			path = r.File.Path
		} else {
			path = r.Err.Path
		}
		progress.OnFileProcessed(path, r.Err)
		fn(r)
	}

	return g.Wait()
}

func parseJob(pool *grammar.Pool, j job, opts ParseOptions) FileResult {
	cache := opts.cache()
	if cache != nil {
		if pf, ok := cache.Get(j.file.path, j.file.size, j.file.modTime); ok {
			return FileResult{Seq: j.seq, File: pf}
		}
	}

	pf, err := parsePath(pool, j.file.path, opts)
	if err != nil {
		fe := newFileError(j.file.path, err)
		slog.Debug("file failed", "path", fe.Path, "kind", fe.Kind, "error", fe.Message)
		return FileResult{Seq: j.seq, Err: &fe}
	}
	if cache != nil {
		cache.Put(j.file.path, j.file.size, j.file.modTime, pf)
	}
	return FileResult{Seq: j.seq, File: pf}
}
