// Package grammar binds languages to tree-sitter grammars and owns the
// parser instances and syntax trees produced from them.
package grammar

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/mvp-joe/treeparser/internal/lang"
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

var (
	// ErrUnsupportedLanguage is returned when no grammar is registered for a language.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrInvalidQuery is returned when a structural pattern fails to compile.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrParseFailed is returned when the grammar engine produces no tree.
	ErrParseFailed = errors.New("parser produced no syntax tree")
	// ErrTreeReleased is returned when a released syntax tree is used.
	ErrTreeReleased = errors.New("syntax tree released")
)

var grammars = map[lang.Language]func() unsafe.Pointer{
	lang.Python:     python.Language,
	lang.Rust:       rust.Language,
	lang.JavaScript: javascript.Language,
	lang.TypeScript: typescript.LanguageTypescript,
	lang.Java:       java.Language,
	lang.C:          c.Language,
	lang.Cpp:        cpp.Language,
	lang.Go:         golang.Language,
	lang.PHP:        php.LanguagePHP,
	lang.Ruby:       ruby.Language,
}

var (
	boundMu sync.Mutex
	bound   = make(map[lang.Language]*sitter.Language)
)

// Bind returns the tree-sitter grammar for l.
func Bind(l lang.Language) (*sitter.Language, error) {
	boundMu.Lock()
	defer boundMu.Unlock()

	if g, ok := bound[l]; ok {
		return g, nil
	}
	fn, ok := grammars[l]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, l)
	}
	g := sitter.NewLanguage(fn())
	bound[l] = g
	return g, nil
}

// Supported reports whether a grammar is registered for l.
func Supported(l lang.Language) bool {
	_, ok := grammars[l]
	return ok
}

// Languages returns the languages with a registered grammar, in enumeration order.
func Languages() []lang.Language {
	out := make([]lang.Language, 0, len(grammars))
	for l := range grammars {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
