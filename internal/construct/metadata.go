package construct

import (
	"strings"
	"unicode"

	"github.com/mvp-joe/treeparser/internal/grammar"
	"github.com/mvp-joe/treeparser/internal/lang"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// modifierKeywords are anonymous tokens recorded as modifiers when they
// appear as direct children of a construct or its modifier list.
var modifierKeywords = map[string]struct{}{
	"static": {}, "final": {}, "abstract": {}, "async": {}, "const": {},
	"unsafe": {}, "extern": {}, "readonly": {}, "override": {}, "virtual": {},
	"inline": {}, "synchronized": {}, "native": {}, "default": {}, "export": {},
	"pub": {}, "mut": {},
}

var visibilityKeywords = map[string]struct{}{
	"public": {}, "private": {}, "protected": {}, "internal": {},
}

// heritageFields and heritageKinds hold a construct's supertypes.
var heritageFields = []string{"superclasses", "superclass", "interfaces", "trait", "base_class"}

var heritageKinds = map[string]struct{}{
	"class_heritage":         {},
	"extends_clause":         {},
	"implements_clause":      {},
	"base_clause":            {},
	"class_interface_clause": {},
	"base_class_clause":      {},
	"superclass":             {},
	"super_interfaces":       {},
	"extends_interfaces":     {},
}

func enrich(node *sitter.Node, source []byte, l lang.Language) Metadata {
	var md Metadata
	kind := node.Kind()

	collectModifiers(node, source, &md)
	if md.Visibility == "" {
		md.Visibility = conventionalVisibility(node, source, l)
	}

	if isCallable(kind) {
		if params := parameterList(node); params != nil {
			md.Parameters = parameters(params, source)
		}
		md.ReturnType = returnType(node, source, l)
	}

	md.Inheritance = inheritance(node, source)
	md.Annotations = append(md.Annotations, precedingAttributes(node, source)...)
	md.Documentation = documentation(node, source, l)
	return md
}

func isCallable(kind string) bool {
	return strings.Contains(kind, "function") || strings.Contains(kind, "method") ||
		kind == "constructor_declaration" || kind == "arrow_function"
}

func collectModifiers(node *sitter.Node, source []byte, md *Metadata) {
	visit := func(n *sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			text := grammar.NodeText(child, source)
			switch child.Kind() {
			case "visibility_modifier", "accessibility_modifier":
				md.Visibility = text
				continue
			case "decorator", "marker_annotation", "annotation", "attribute_list", "attribute_item":
				md.Annotations = append(md.Annotations, strings.TrimSpace(text))
				continue
			}
			if _, ok := visibilityKeywords[text]; ok {
				md.Visibility = text
				continue
			}
			switch child.Kind() {
			case "storage_class_specifier", "type_qualifier":
				md.Modifiers = appendUnique(md.Modifiers, text)
				continue
			}
			if _, ok := modifierKeywords[text]; ok && !child.IsNamed() {
				md.Modifiers = appendUnique(md.Modifiers, text)
			}
		}
	}

	visit(node)
	for _, kind := range []string{"modifiers", "function_modifiers"} {
		if mods := grammar.ChildOfKind(node, kind); mods != nil {
			visit(mods)
		}
	}
	for _, kind := range []string{"static_modifier", "abstract_modifier", "final_modifier", "readonly_modifier"} {
		for _, m := range grammar.ChildrenOfKind(node, kind) {
			md.Modifiers = appendUnique(md.Modifiers, grammar.NodeText(m, source))
		}
	}
	if node.Kind() == "decorated_definition" {
		for _, d := range grammar.ChildrenOfKind(node, "decorator") {
			md.Annotations = appendUnique(md.Annotations, strings.TrimSpace(grammar.NodeText(d, source)))
		}
	}
}

// conventionalVisibility applies naming conventions where the language has
// no visibility keywords.
func conventionalVisibility(node *sitter.Node, source []byte, l lang.Language) string {
	name := displayName(node, source)
	if name == "" {
		return ""
	}
	switch l {
	case lang.Go:
		if unicode.IsUpper([]rune(name)[0]) {
			return "public"
		}
		return "private"
	case lang.Python:
		if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
			return "public"
		}
		if strings.HasPrefix(name, "__") {
			return "private"
		}
		if strings.HasPrefix(name, "_") {
			return "protected"
		}
		return "public"
	}
	return ""
}

func parameterList(node *sitter.Node) *sitter.Node {
	if p := node.ChildByFieldName("parameters"); p != nil {
		return p
	}
	// C family: function_definition -> declarator(function_declarator) -> parameters
	for decl := node.ChildByFieldName("declarator"); decl != nil; decl = decl.ChildByFieldName("declarator") {
		if p := decl.ChildByFieldName("parameters"); p != nil {
			return p
		}
	}
	if fn := grammar.ChildOfKind(node, "function_definition"); fn != nil {
		return fn.ChildByFieldName("parameters")
	}
	return nil
}

func parameters(list *sitter.Node, source []byte) []Parameter {
	var out []Parameter
	for i := uint(0); i < list.NamedChildCount(); i++ {
		p := list.NamedChild(i)
		if p == nil || strings.Contains(p.Kind(), "comment") {
			continue
		}
		out = append(out, parameter(p, source))
	}
	return out
}

func parameter(p *sitter.Node, source []byte) Parameter {
	kind := p.Kind()
	text := strings.TrimSpace(grammar.NodeText(p, source))

	param := Parameter{
		Variadic: strings.Contains(kind, "splat") || strings.Contains(kind, "variadic") ||
			strings.Contains(kind, "rest") || strings.Contains(kind, "spread") ||
			strings.HasPrefix(text, "*") || strings.HasPrefix(text, "..."),
	}

	for _, field := range []string{"name", "pattern", "declarator", "left"} {
		if n := p.ChildByFieldName(field); n != nil {
			param.Name = declaratorName(n, source)
			if param.Name == "" {
				param.Name = grammar.NodeText(n, source)
			}
			break
		}
	}
	if param.Name == "" {
		switch {
		case kind == "identifier" || kind == "self_parameter" || kind == "self":
			param.Name = text
		default:
			if id := grammar.ChildOfKind(p, "identifier"); id != nil {
				param.Name = grammar.NodeText(id, source)
			} else if v := grammar.ChildOfKind(p, "variable_name"); v != nil {
				param.Name = grammar.NodeText(v, source)
			} else {
				param.Name = strings.TrimLeft(text, "*&.")
			}
		}
	}

	param.Type = cleanType(grammar.NodeText(p.ChildByFieldName("type"), source))
	for _, field := range []string{"value", "default_value", "right"} {
		if n := p.ChildByFieldName(field); n != nil {
			param.DefaultValue = grammar.NodeText(n, source)
			break
		}
	}
	return param
}

func returnType(node *sitter.Node, source []byte, l lang.Language) string {
	if node.Kind() == "decorated_definition" {
		if fn := grammar.ChildOfKind(node, "function_definition"); fn != nil {
			node = fn
		}
	}
	for _, field := range []string{"return_type", "result"} {
		if n := node.ChildByFieldName(field); n != nil {
			return cleanType(grammar.NodeText(n, source))
		}
	}
	switch l {
	case lang.Java, lang.C, lang.Cpp:
		return cleanType(grammar.NodeText(node.ChildByFieldName("type"), source))
	}
	return ""
}

func cleanType(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ":")
	s = strings.TrimPrefix(s, "->")
	return strings.TrimSpace(s)
}

func inheritance(node *sitter.Node, source []byte) []string {
	var out []string
	for _, field := range heritageFields {
		if n := node.ChildByFieldName(field); n != nil {
			out = append(out, heritageNames(n, source)...)
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if _, ok := heritageKinds[child.Kind()]; ok {
			for _, name := range heritageNames(child, source) {
				out = appendUnique(out, name)
			}
		}
	}
	return out
}

// heritageNames splits a supertype clause into individual type names.
func heritageNames(n *sitter.Node, source []byte) []string {
	if n.NamedChildCount() == 0 {
		return []string{grammar.NodeText(n, source)}
	}
	var out []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || strings.Contains(child.Kind(), "comment") {
			continue
		}
		switch child.Kind() {
		case "access_specifier":
			continue
		case "extends_clause", "implements_clause", "type_list", "interface_type_list", "argument_list":
			out = append(out, heritageNames(child, source)...)
		default:
			text := strings.TrimSpace(grammar.NodeText(child, source))
			if text != "" {
				out = appendUnique(out, text)
			}
		}
	}
	return out
}

// precedingAttributes collects Rust attribute items directly above a node.
func precedingAttributes(node *sitter.Node, source []byte) []string {
	var attrs []string
	for prev := node.PrevNamedSibling(); prev != nil && prev.Kind() == "attribute_item"; prev = prev.PrevNamedSibling() {
		attrs = append([]string{grammar.NodeText(prev, source)}, attrs...)
	}
	return attrs
}

func documentation(node *sitter.Node, source []byte, l lang.Language) string {
	if l == lang.Python {
		if doc := docstring(node, source); doc != "" {
			return doc
		}
	}

	var lines []string
	expectRow := node.StartPosition().Row
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		kind := prev.Kind()
		if kind == "attribute_item" || kind == "decorator" {
			expectRow = prev.StartPosition().Row
			continue
		}
		if !strings.Contains(kind, "comment") {
			break
		}
		// Comments must be contiguous with the construct.
		if prev.EndPosition().Row+1 < expectRow {
			break
		}
		lines = append([]string{strings.TrimSpace(grammar.NodeText(prev, source))}, lines...)
		expectRow = prev.StartPosition().Row
	}
	return strings.Join(lines, "\n")
}

func docstring(node *sitter.Node, source []byte) string {
	if node.Kind() == "decorated_definition" {
		if def := node.ChildByFieldName("definition"); def != nil {
			node = def
		}
	}
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	str := grammar.ChildOfKind(first, "string")
	if str == nil {
		return ""
	}
	text := grammar.NodeText(str, source)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return text
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
