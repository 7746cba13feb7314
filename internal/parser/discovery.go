package parser

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/treeparser/internal/lang"
)

// sniffBytes bounds how much of a file is read to classify it for a filter.
const sniffBytes = 4096

// ignoreRule is a substring, or a compiled glob when the pattern has meta characters.
type ignoreRule struct {
	pattern string
	glob    glob.Glob
}

type candidate struct {
	path    string
	size    int64
	modTime time.Time
}

// discovery enumerates candidate files under a root.
type discovery struct {
	root     string
	opts     ParseOptions
	filter   *FileFilter
	ignore   []ignoreRule
	maxBytes int64
}

func newDiscovery(root string, opts ParseOptions, filter *FileFilter) (*discovery, error) {
	d := &discovery{root: root, opts: opts, filter: filter, maxBytes: opts.maxBytes()}
	for _, pattern := range opts.IgnorePatterns {
		rule := ignoreRule{pattern: pattern}
		if strings.ContainsAny(pattern, "*?[{") {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return nil, fmt.Errorf("compile ignore pattern %q: %w", pattern, err)
			}
			rule.glob = g
		}
		d.ignore = append(d.ignore, rule)
	}
	return d, nil
}

// discover walks the root in lexical order. Entries that cannot be read are
// reported as FileErrors; the walk continues past them.
func (d *discovery) discover(ctx context.Context) ([]candidate, []FileError, error) {
	var (
		files  []candidate
		failed []FileError
	)

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == d.root {
				return walkErr
			}
			failed = append(failed, newFileError(path, walkErr))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == d.root && entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if !d.opts.Recursive || d.skipHidden(entry.Name()) || d.shouldIgnore(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || d.skipHidden(entry.Name()) || d.shouldIgnore(rel) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			failed = append(failed, newFileError(path, err))
			return nil
		}
		if d.maxBytes > 0 && info.Size() > d.maxBytes {
			return nil
		}
		if d.filter != nil && !d.filter.allows(path, info.Size(), d.opts.Detection) {
			return nil
		}

		files = append(files, candidate{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return files, failed, nil
}

func (d *discovery) skipHidden(name string) bool {
	return !d.opts.IncludeHidden && strings.HasPrefix(name, ".")
}

func (d *discovery) shouldIgnore(rel string) bool {
	for _, rule := range d.ignore {
		if rule.glob == nil {
			if strings.Contains(rel, rule.pattern) {
				return true
			}
			continue
		}
		// "vendor/**" should also prune the vendor directory itself.
		if rule.glob.Match(rel) || rule.glob.Match(rel+"/**") {
			return true
		}
	}
	return false
}

// allows applies every set criterion of the filter. The language criterion
// uses the extension, and for content-aware modes falls back to the file head.
func (f *FileFilter) allows(path string, size int64, mode lang.DetectionMode) bool {
	if len(f.Extensions) > 0 {
		ext := lang.FileExtension(path)
		if !slices.ContainsFunc(f.Extensions, func(e string) bool {
			return strings.EqualFold(strings.TrimPrefix(e, "."), ext)
		}) {
			return false
		}
	}
	if len(f.Languages) > 0 {
		l, ok := lang.DetectByExtension(path)
		if !ok && mode.NeedsContent() {
			l, ok = lang.Detect(mode, path, readHead(path))
		}
		if !ok || !slices.Contains(f.Languages, l) {
			return false
		}
	}
	if f.MinSize > 0 && size < f.MinSize {
		return false
	}
	if f.MaxSize > 0 && size > f.MaxSize {
		return false
	}
	if f.Predicate != nil && !f.Predicate(path) {
		return false
	}
	return true
}

func readHead(path string) []byte {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()
	buf := make([]byte, sniffBytes)
	n, _ := io.ReadFull(file, buf)
	return buf[:n]
}
