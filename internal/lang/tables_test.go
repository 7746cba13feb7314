package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryKinds_SubsetOfAllowList(t *testing.T) {
	t.Parallel()

	for l, cats := range categoryKinds {
		for c, kinds := range cats {
			for _, k := range kinds {
				assert.True(t, IsConstructKind(l, k), "%s %s: %s not allow-listed", l, c, k)
			}
		}
	}
}

func TestConstructKinds(t *testing.T) {
	t.Parallel()

	assert.Contains(t, ConstructKinds(TypeScript), "interface_declaration")
	assert.NotContains(t, ConstructKinds(JavaScript), "interface_declaration")
	assert.Contains(t, ConstructKinds(Cpp), "namespace_definition")
	assert.NotContains(t, ConstructKinds(C), "namespace_definition")
	assert.Nil(t, ConstructKinds(Haskell))

	assert.True(t, IsConstructKind(Go, "method_declaration"))
	assert.False(t, IsConstructKind(Go, "block"))
	assert.False(t, IsConstructKind(Unknown, "function_definition"))

	// Returned slices are copies.
	kinds := ConstructKinds(Python)
	kinds[0] = "mutated"
	assert.True(t, IsConstructKind(Python, "function_definition"))
}

func TestCategoryKinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"function_definition"}, CategoryKinds(Python, Functions))
	assert.Equal(t, []string{"class_specifier", "struct_specifier", "union_specifier", "enum_specifier"}, CategoryKinds(Cpp, Types))
	assert.Equal(t, []string{"var_declaration", "const_declaration"}, CategoryKinds(Go, Variables))
	assert.Empty(t, CategoryKinds(Ruby, Imports))
	assert.Empty(t, CategoryKinds(Lua, Functions))
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	c, err := ParseCategory("Classes")
	assert.NoError(t, err)
	assert.Equal(t, Types, c)

	for _, want := range []Category{Functions, Types, Imports, Variables} {
		got, err := ParseCategory(want.String())
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseCategory("macros")
	assert.Error(t, err)
}
