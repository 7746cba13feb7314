package grammar

import (
	"errors"
	"sync"
	"testing"

	"github.com/mvp-joe/treeparser/internal/lang"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Pool:
// - Parsers are bound once per language and reused
// - Languages without a grammar fail with ErrUnsupportedLanguage
// - Concurrent parses through one pool are serialized safely
// - Closed pools refuse work
// - Released trees refuse access

func TestPool_ReusesBinding(t *testing.T) {
	t.Parallel()

	pool := NewPool()
	defer pool.Close()

	tree1, err := pool.Parse(lang.Python, []byte("x = 1\n"))
	require.NoError(t, err)
	defer tree1.Release()

	tree2, err := pool.Parse(lang.Python, []byte("y = 2\n"))
	require.NoError(t, err)
	defer tree2.Release()

	assert.Equal(t, 1, pool.Len())

	require.NoError(t, pool.Warm(lang.Go))
	assert.Equal(t, 2, pool.Len())
}

func TestPool_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	pool := NewPool()
	defer pool.Close()

	_, err := pool.Parse(lang.Haskell, []byte("main = pure ()"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.Equal(t, 0, pool.Len())
}

func TestPool_ConcurrentUse(t *testing.T) {
	t.Parallel()

	pool := NewPool()
	defer pool.Close()

	langs := []lang.Language{lang.Python, lang.Rust, lang.Go, lang.Java}
	sources := map[lang.Language]string{
		lang.Python: "def f():\n    pass\n",
		lang.Rust:   "fn f() {}\n",
		lang.Go:     "package p\nfunc f() {}\n",
		lang.Java:   "class A {}\n",
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		l := langs[i%len(langs)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := pool.Parse(l, []byte(sources[l]))
			if assert.NoError(t, err) {
				tree.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(langs), pool.Len())
}

func TestPool_Closed(t *testing.T) {
	t.Parallel()

	pool := NewPool()
	pool.Close()

	_, err := pool.Parse(lang.Python, []byte("x = 1\n"))
	assert.Error(t, err)
}

func TestSyntaxTree_Release(t *testing.T) {
	t.Parallel()

	pool := NewPool()
	defer pool.Close()

	tree, err := pool.Parse(lang.Rust, []byte("fn main() {}\n"))
	require.NoError(t, err)
	assert.Equal(t, lang.Rust, tree.Language())
	assert.False(t, tree.Released())

	err = tree.WithRoot(func(root *sitter.Node) error {
		assert.Equal(t, "source_file", root.Kind())
		return nil
	})
	require.NoError(t, err)

	tree.Release()
	tree.Release()
	assert.True(t, tree.Released())

	err = tree.WithRoot(func(*sitter.Node) error { return nil })
	assert.ErrorIs(t, err, ErrTreeReleased)

	_, err = tree.Query("(function_item) @fn", []byte("fn main() {}\n"))
	assert.ErrorIs(t, err, ErrTreeReleased)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	for _, l := range Languages() {
		g, err := Bind(l)
		require.NoError(t, err, l.String())
		assert.NotNil(t, g)
		assert.True(t, Supported(l))
	}
	assert.Len(t, Languages(), 10)
	assert.False(t, Supported(lang.Swift))

	_, err := Bind(lang.Swift)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}
