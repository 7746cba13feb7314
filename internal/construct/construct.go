// Package construct extracts code constructs from syntax trees and models
// them as an indexed arena: parent and children are indices into the same
// slice, so the flattened list is the only copy of every construct.
package construct

// NoParent marks a top-level construct.
const NoParent = -1

// Parameter describes one formal parameter of a callable construct.
type Parameter struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
	Variadic     bool   `json:"variadic,omitempty"`
}

// Metadata is populated opportunistically and may be empty.
type Metadata struct {
	Visibility    string      `json:"visibility,omitempty"`
	Modifiers     []string    `json:"modifiers,omitempty"`
	Parameters    []Parameter `json:"parameters,omitempty"`
	ReturnType    string      `json:"return_type,omitempty"`
	Inheritance   []string    `json:"inheritance,omitempty"`
	Annotations   []string    `json:"annotations,omitempty"`
	Documentation string      `json:"documentation,omitempty"`
}

// Construct is one allow-listed syntax node. Lines are 1-based; byte offsets
// index into the file contents the construct was extracted from.
type Construct struct {
	Index     int      `json:"index"`
	Kind      string   `json:"kind"`
	Name      string   `json:"name,omitempty"`
	Source    string   `json:"source"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	StartByte int      `json:"start_byte"`
	EndByte   int      `json:"end_byte"`
	Parent    int      `json:"parent"`
	Children  []int    `json:"children,omitempty"`
	Metadata  Metadata `json:"metadata"`
}

// HasParent reports whether c is nested inside another construct.
func (c Construct) HasParent() bool {
	return c.Parent != NoParent
}

// HasName reports whether a display name was found.
func (c Construct) HasName() bool {
	return c.Name != ""
}
