package parser

import (
	"runtime"
	"slices"
	"time"

	"github.com/mvp-joe/treeparser/internal/lang"
)

// ParseOptions controls directory traversal.
type ParseOptions struct {
	// MaxConcurrentFiles bounds how many files are parsed at once.
	MaxConcurrentFiles int
	Recursive          bool
	IncludeHidden      bool
	// MaxFileSizeMB excludes larger files during discovery. Zero disables the cap.
	MaxFileSizeMB int
	// IgnorePatterns exclude any path containing the pattern as a substring.
	// Patterns with glob meta characters are matched as globs instead.
	IgnorePatterns []string
	Detection      lang.DetectionMode
	// EnableCaching gates Cache. Parser pools are always scoped to one call.
	EnableCaching bool
	// ThreadPoolSize, when positive, further caps the worker count.
	ThreadPoolSize   int
	RetainSyntaxTree bool
	Progress         ProgressReporter
	// Cache, when set and EnableCaching is true, serves unchanged files
	// without reparsing. It is bypassed while RetainSyntaxTree is set.
	Cache FileCache
}

// FileCache stores parse results keyed by path, size and modification time.
// Implementations must be safe for concurrent use.
type FileCache interface {
	Get(path string, size int64, modTime time.Time) (*ParsedFile, bool)
	Put(path string, size int64, modTime time.Time, f *ParsedFile)
}

// DefaultIgnorePatterns are the directories skipped unless overridden.
var DefaultIgnorePatterns = []string{"node_modules", ".git", "target", "build"}

// DefaultOptions returns the stock traversal settings.
func DefaultOptions() ParseOptions {
	return ParseOptions{
		MaxConcurrentFiles: runtime.NumCPU() * 2,
		Recursive:          true,
		IncludeHidden:      false,
		MaxFileSizeMB:      10,
		IgnorePatterns:     slices.Clone(DefaultIgnorePatterns),
		Detection:          lang.ByExtension,
		EnableCaching:      true,
	}
}

func (o ParseOptions) workers(files int) int {
	n := o.MaxConcurrentFiles
	if n <= 0 {
		n = runtime.NumCPU() * 2
	}
	if o.ThreadPoolSize > 0 && o.ThreadPoolSize < n {
		n = o.ThreadPoolSize
	}
	if files < n {
		n = files
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (o ParseOptions) maxBytes() int64 {
	if o.MaxFileSizeMB <= 0 {
		return 0
	}
	return int64(o.MaxFileSizeMB) * 1024 * 1024
}

func (o ParseOptions) cache() FileCache {
	if !o.EnableCaching || o.RetainSyntaxTree {
		return nil
	}
	return o.Cache
}

func (o ParseOptions) progress() ProgressReporter {
	if o.Progress == nil {
		return &NoOpProgressReporter{}
	}
	return o.Progress
}

// FileFilter narrows discovery. Every set criterion must hold.
type FileFilter struct {
	// Extensions without the dot, compared case-insensitively.
	Extensions []string
	Languages  []lang.Language
	// MinSize and MaxSize are byte bounds; zero means unbounded.
	MinSize   int64
	MaxSize   int64
	Predicate func(path string) bool
}
