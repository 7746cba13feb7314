package grammar

import (
	"sync"

	"github.com/mvp-joe/treeparser/internal/lang"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// SyntaxTree owns a parsed tree-sitter tree. Release is irreversible: once
// released, every accessor returns ErrTreeReleased.
type SyntaxTree struct {
	mu      sync.Mutex
	tree    *sitter.Tree
	grammar *sitter.Language
	lang    lang.Language
}

func newSyntaxTree(tree *sitter.Tree, g *sitter.Language, l lang.Language) *SyntaxTree {
	return &SyntaxTree{tree: tree, grammar: g, lang: l}
}

// Language returns the language the tree was parsed as.
func (t *SyntaxTree) Language() lang.Language {
	return t.lang
}

// Released reports whether Release has been called.
func (t *SyntaxTree) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree == nil
}

// Release frees the underlying tree. Safe to call more than once.
func (t *SyntaxTree) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// WithRoot calls fn with the root node while holding the tree lock. Nodes
// must not escape fn.
func (t *SyntaxTree) WithRoot(fn func(root *sitter.Node) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tree == nil {
		return ErrTreeReleased
	}
	return fn(t.tree.RootNode())
}
