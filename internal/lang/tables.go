package lang

import (
	"fmt"
	"strings"
)

// Category groups construct kinds into language-neutral buckets for search.
type Category int

const (
	Functions Category = iota
	Types
	Imports
	Variables
)

var categoryNames = map[Category]string{
	Functions: "functions",
	Types:     "types",
	Imports:   "imports",
	Variables: "variables",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory accepts the category names plus "classes" as an alias for types.
func ParseCategory(s string) (Category, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "classes" {
		return Types, nil
	}
	for c, name := range categoryNames {
		if name == want {
			return c, nil
		}
	}
	return Functions, fmt.Errorf("unknown category %q", s)
}

var jsConstructs = []string{
	"function_declaration", "function_expression", "arrow_function",
	"class_declaration", "method_definition", "variable_declaration",
	"import_statement", "export_statement",
}

var cConstructs = []string{
	"function_definition", "declaration", "struct_specifier", "union_specifier",
	"enum_specifier", "preproc_include", "preproc_define",
}

// constructKinds is the allow-list of node kinds materialized as constructs.
var constructKinds = map[Language][]string{
	Python: {
		"function_definition", "class_definition", "import_statement",
		"import_from_statement", "assignment", "decorated_definition",
	},
	Rust: {
		"function_item", "struct_item", "enum_item", "impl_item", "trait_item",
		"mod_item", "use_declaration", "const_item", "static_item",
	},
	JavaScript: jsConstructs,
	TypeScript: append(append([]string{}, jsConstructs...), "interface_declaration", "type_alias_declaration"),
	Java: {
		"class_declaration", "interface_declaration", "method_declaration",
		"constructor_declaration", "field_declaration", "import_declaration",
		"package_declaration",
	},
	C:   cConstructs,
	Cpp: append(append([]string{}, cConstructs...), "class_specifier", "namespace_definition"),
	Go: {
		"function_declaration", "method_declaration", "type_declaration",
		"var_declaration", "const_declaration", "import_declaration", "package_clause",
	},
	PHP: {
		"namespace_definition", "namespace_use_declaration", "class_declaration",
		"interface_declaration", "trait_declaration", "enum_declaration",
		"function_definition", "method_declaration", "property_declaration",
		"const_declaration",
	},
	Ruby: {
		"class", "module", "method", "singleton_method", "assignment",
	},
}

var cTypes = []string{"struct_specifier", "union_specifier", "enum_specifier"}

var categoryKinds = map[Language]map[Category][]string{
	Python: {
		Functions: {"function_definition"},
		Types:     {"class_definition"},
		Imports:   {"import_statement", "import_from_statement"},
		Variables: {"assignment"},
	},
	Rust: {
		Functions: {"function_item"},
		Types:     {"struct_item", "enum_item"},
		Imports:   {"use_declaration"},
		Variables: {"const_item", "static_item"},
	},
	JavaScript: {
		Functions: {"function_declaration", "function_expression", "arrow_function"},
		Types:     {"class_declaration"},
		Imports:   {"import_statement"},
		Variables: {"variable_declaration"},
	},
	TypeScript: {
		Functions: {"function_declaration", "function_expression", "arrow_function"},
		Types:     {"class_declaration", "interface_declaration"},
		Imports:   {"import_statement"},
		Variables: {"variable_declaration"},
	},
	Java: {
		Functions: {"method_declaration", "constructor_declaration"},
		Types:     {"class_declaration", "interface_declaration"},
		Imports:   {"import_declaration"},
		Variables: {"field_declaration"},
	},
	C: {
		Functions: {"function_definition"},
		Types:     cTypes,
		Imports:   {"preproc_include"},
		Variables: {"declaration"},
	},
	Cpp: {
		Functions: {"function_definition"},
		Types:     append([]string{"class_specifier"}, cTypes...),
		Imports:   {"preproc_include"},
		Variables: {"declaration"},
	},
	Go: {
		Functions: {"function_declaration", "method_declaration"},
		Types:     {"type_declaration"},
		Imports:   {"import_declaration"},
		Variables: {"var_declaration", "const_declaration"},
	},
	PHP: {
		Functions: {"function_definition", "method_declaration"},
		Types:     {"class_declaration", "interface_declaration", "trait_declaration", "enum_declaration"},
		Imports:   {"namespace_use_declaration"},
		Variables: {"property_declaration", "const_declaration"},
	},
	Ruby: {
		Functions: {"method", "singleton_method"},
		Types:     {"class", "module"},
		Variables: {"assignment"},
	},
}

var constructSets = func() map[Language]map[string]struct{} {
	m := make(map[Language]map[string]struct{}, len(constructKinds))
	for l, kinds := range constructKinds {
		set := make(map[string]struct{}, len(kinds))
		for _, k := range kinds {
			set[k] = struct{}{}
		}
		m[l] = set
	}
	return m
}()

// ConstructKinds returns a copy of the allow-list for l (nil if none).
func ConstructKinds(l Language) []string {
	kinds := constructKinds[l]
	if kinds == nil {
		return nil
	}
	return append([]string(nil), kinds...)
}

// IsConstructKind reports whether kind is allow-listed for l.
func IsConstructKind(l Language, kind string) bool {
	_, ok := constructSets[l][kind]
	return ok
}

// CategoryKinds returns the node kinds of category c for l. Languages or
// categories without a mapping return an empty slice.
func CategoryKinds(l Language, c Category) []string {
	return append([]string(nil), categoryKinds[l][c]...)
}
