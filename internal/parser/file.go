package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/grammar"
	"github.com/mvp-joe/treeparser/internal/lang"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParseFile parses a single file using opts for detection, size cap and tree
// retention.
func ParseFile(path string, opts ParseOptions) (*ParsedFile, error) {
	pool := grammar.NewPool()
	defer pool.Close()
	return parsePath(pool, path, opts)
}

// ParseSource parses in-memory source as language l. path is recorded on the
// result but never read.
func ParseSource(path string, source []byte, l lang.Language, retainTree bool) (*ParsedFile, error) {
	pool := grammar.NewPool()
	defer pool.Close()
	return parseWith(pool, path, source, l, retainTree)
}

// parsePath detects, reads and parses one file with a caller-owned pool.
func parsePath(pool *grammar.Pool, path string, opts ParseOptions) (*ParsedFile, error) {
	var (
		l       lang.Language
		ok      bool
		content []byte
		err     error
	)

	// Extension-only detection can reject a file without reading it.
	if !opts.Detection.NeedsContent() {
		if l, ok = lang.DetectByExtension(path); !ok {
			return nil, fmt.Errorf("%w: no language detected for %s", ErrUnsupportedLanguage, filepath.Base(path))
		}
		if !grammar.Supported(l) {
			return nil, fmt.Errorf("%w: no grammar for %s", ErrUnsupportedLanguage, l)
		}
	}

	if content, err = readSource(path, opts.maxBytes()); err != nil {
		return nil, err
	}

	if opts.Detection.NeedsContent() {
		if l, ok = lang.Detect(opts.Detection, path, content); !ok {
			return nil, fmt.Errorf("%w: no language detected for %s", ErrUnsupportedLanguage, filepath.Base(path))
		}
	}
	return parseWith(pool, path, content, l, opts.RetainSyntaxTree)
}

func readSource(path string, maxBytes int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, classifyIOError(err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrIO, path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, info.Size(), maxBytes)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyIOError(err)
	}
	// The file may have grown since the stat.
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(content), maxBytes)
	}
	return content, nil
}

func classifyIOError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}

func parseWith(pool *grammar.Pool, path string, source []byte, l lang.Language, retainTree bool) (*ParsedFile, error) {
	tree, err := pool.Parse(l, source)
	if err != nil {
		if errors.Is(err, grammar.ErrParseFailed) {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		return nil, err
	}

	var constructs []construct.Construct
	if err := tree.WithRoot(func(root *sitter.Node) error {
		constructs = construct.Extract(root, source, l)
		return nil
	}); err != nil {
		tree.Release()
		return nil, err
	}

	pf := &ParsedFile{
		Path:       path,
		Name:       filepath.Base(path),
		Language:   l,
		Constructs: constructs,
		Size:       int64(len(source)),
	}
	if retainTree {
		pf.Tree = tree
	} else {
		tree.Release()
	}
	return pf, nil
}
