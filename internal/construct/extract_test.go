package construct

import (
	"testing"

	"github.com/mvp-joe/treeparser/internal/grammar"
	"github.com/mvp-joe/treeparser/internal/lang"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Extract:
// - One construct nested in another yields exactly two results per language
// - Inner construct references the outer as parent, outer lists inner as child
// - Same-named nested constructs under different parents are kept apart
// - Flattened count equals the number of allow-listed named nodes
// - Spans and lines satisfy the ordering invariants
// - Non-allow-listed nodes are transparent
// - Empty input yields no constructs

func extractSource(t *testing.T, l lang.Language, src string) []Construct {
	t.Helper()

	pool := grammar.NewPool()
	t.Cleanup(pool.Close)

	tree, err := pool.Parse(l, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Release)

	var out []Construct
	err = tree.WithRoot(func(root *sitter.Node) error {
		out = Extract(root, []byte(src), l)
		return nil
	})
	require.NoError(t, err)
	return out
}

func countAllowListed(t *testing.T, l lang.Language, src string) int {
	t.Helper()

	pool := grammar.NewPool()
	t.Cleanup(pool.Close)
	tree, err := pool.Parse(l, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Release)

	count := 0
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.IsNamed() && lang.IsConstructKind(l, n.Kind()) {
			count++
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	require.NoError(t, tree.WithRoot(func(root *sitter.Node) error {
		visit(root)
		return nil
	}))
	return count
}

func TestExtract_NestingPerLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lang      lang.Language
		src       string
		outerKind string
		innerKind string
	}{
		{lang.Python, "class A:\n    def f(self):\n        pass\n", "class_definition", "function_definition"},
		{lang.Rust, "mod a {\n    fn f() {}\n}\n", "mod_item", "function_item"},
		{lang.JavaScript, "class A {\n  m() {}\n}\n", "class_declaration", "method_definition"},
		{lang.TypeScript, "class A {\n  m(): void {}\n}\n", "class_declaration", "method_definition"},
		{lang.Java, "class A {\n  void m() {}\n}\n", "class_declaration", "method_declaration"},
		{lang.C, "int main() {\n  int x;\n}\n", "function_definition", "declaration"},
		{lang.Cpp, "namespace n {\n  void f() {}\n}\n", "namespace_definition", "function_definition"},
		{lang.Go, "func f() {\n\tvar x int\n}\n", "function_declaration", "var_declaration"},
		{lang.Ruby, "class A\n  def m\n  end\nend\n", "class", "method"},
		{lang.PHP, "<?php\nclass A {\n  function m() {}\n}\n", "class_declaration", "method_declaration"},
	}

	for _, tt := range tests {
		t.Run(tt.lang.String(), func(t *testing.T) {
			t.Parallel()

			got := extractSource(t, tt.lang, tt.src)
			require.Len(t, got, 2)

			outer, inner := got[0], got[1]
			assert.Equal(t, tt.outerKind, outer.Kind)
			assert.Equal(t, tt.innerKind, inner.Kind)

			assert.False(t, outer.HasParent())
			assert.Equal(t, []int{1}, outer.Children)

			assert.Equal(t, 0, inner.Parent)
			assert.Empty(t, inner.Children)

			for i, c := range got {
				assert.Equal(t, i, c.Index)
				assert.True(t, lang.IsConstructKind(tt.lang, c.Kind))
				assert.LessOrEqual(t, 0, c.StartByte)
				assert.LessOrEqual(t, c.StartByte, c.EndByte)
				assert.LessOrEqual(t, c.EndByte, len(tt.src))
				assert.GreaterOrEqual(t, c.StartLine, 1)
				assert.LessOrEqual(t, c.StartLine, c.EndLine)
				assert.Equal(t, tt.src[c.StartByte:c.EndByte], c.Source)
			}
		})
	}
}

func TestExtract_DuplicateNamesUnderDifferentParents(t *testing.T) {
	t.Parallel()

	src := "class A:\n    def run(self):\n        pass\n\nclass B:\n    def run(self):\n        pass\n"
	got := extractSource(t, lang.Python, src)
	require.Len(t, got, 4)

	var runs []Construct
	for _, c := range got {
		if c.Kind == "function_definition" {
			runs = append(runs, c)
		}
	}
	require.Len(t, runs, 2)
	assert.Equal(t, "run", runs[0].Name)
	assert.Equal(t, "run", runs[1].Name)
	assert.NotEqual(t, runs[0].Parent, runs[1].Parent)
	assert.Equal(t, "A", got[runs[0].Parent].Name)
	assert.Equal(t, "B", got[runs[1].Parent].Name)
	assert.NotEqual(t, runs[0].StartByte, runs[1].StartByte)
}

func TestExtract_CountMatchesAllowListedNodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lang lang.Language
		src  string
	}{
		{lang.Python, "import os\nfrom sys import path\n\nX = 1\n\n@dec\ndef f():\n    y = 2\n    def g():\n        pass\n\nclass C:\n    z = 3\n    def m(self):\n        pass\n"},
		{lang.Rust, "use std::io;\nconst N: i32 = 1;\nstruct S;\nimpl S {\n    fn a(&self) {}\n    fn b(&self) {}\n}\ntrait T { fn c(&self); }\n"},
		{lang.Go, "package p\n\nimport \"fmt\"\n\nconst X = 1\n\ntype S struct{}\n\nfunc (s S) M() { var y int; _ = y }\n\nfunc F() { fmt.Println() }\n"},
		{lang.TypeScript, "import x from 'y';\ninterface I { a: string }\ntype T = number;\nexport class C implements I {\n  a = '';\n  m() { const f = () => 1; }\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.lang.String(), func(t *testing.T) {
			t.Parallel()

			got := extractSource(t, tt.lang, tt.src)
			assert.Equal(t, countAllowListed(t, tt.lang, tt.src), len(got))

			type spanKind struct {
				start, end int
				kind       string
			}
			seen := make(map[spanKind]bool)
			for _, c := range got {
				k := spanKind{c.StartByte, c.EndByte, c.Kind}
				assert.False(t, seen[k], "duplicate %s at %d-%d", c.Kind, c.StartByte, c.EndByte)
				seen[k] = true
			}
		})
	}
}

func TestExtract_PreOrderAndParents(t *testing.T) {
	t.Parallel()

	src := "class Outer:\n    class Inner:\n        def deep(self):\n            pass\n    def shallow(self):\n        pass\n\ndef top():\n    pass\n"
	got := extractSource(t, lang.Python, src)
	require.Len(t, got, 5)

	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Outer", "Inner", "deep", "shallow", "top"}, names)

	assert.Equal(t, NoParent, got[0].Parent)
	assert.Equal(t, 0, got[1].Parent)
	assert.Equal(t, 1, got[2].Parent)
	assert.Equal(t, 0, got[3].Parent)
	assert.Equal(t, NoParent, got[4].Parent)
	assert.Equal(t, []int{1, 3}, got[0].Children)
	assert.Equal(t, []int{2}, got[1].Children)

	// Children always follow their parent.
	for _, c := range got {
		for _, child := range c.Children {
			assert.Greater(t, child, c.Index)
		}
	}
}

func TestExtract_TransparentNodes(t *testing.T) {
	t.Parallel()

	// The if-statement and block are not constructs, so the assignment
	// attaches directly to the function.
	src := "def f(x):\n    if x:\n        y = 1\n"
	got := extractSource(t, lang.Python, src)
	require.Len(t, got, 2)
	assert.Equal(t, "assignment", got[1].Kind)
	assert.Equal(t, 0, got[1].Parent)
}

func TestExtract_Empty(t *testing.T) {
	t.Parallel()

	got := extractSource(t, lang.Go, "")
	assert.Empty(t, got)
	assert.NotNil(t, got)

	assert.Empty(t, Extract(nil, nil, lang.Go))
}

func TestExtract_Names(t *testing.T) {
	t.Parallel()

	c := extractSource(t, lang.C, "static int add(int a, int b) { return a + b; }\n")
	require.NotEmpty(t, c)
	assert.Equal(t, "add", c[0].Name)

	g := extractSource(t, lang.Go, "package p\n\ntype Server struct{}\n")
	require.Len(t, g, 2)
	assert.Equal(t, "package_clause", g[0].Kind)
	assert.Equal(t, "Server", g[1].Name)

	r := extractSource(t, lang.Rust, "use std::fmt;\n")
	require.Len(t, r, 1)
	assert.False(t, r[0].HasName())
}
