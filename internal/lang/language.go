// Package lang enumerates the source languages treeparser knows about and
// holds the static per-language tables that drive construct extraction and
// category search.
package lang

import (
	"fmt"
	"strings"
)

// Language is a closed enumeration of source languages.
type Language int

const (
	Unknown Language = iota
	Python
	Rust
	JavaScript
	TypeScript
	Java
	C
	Cpp
	Go
	CSharp
	PHP
	Ruby
	Swift
	Kotlin
	Scala
	Haskell
	Lua
	Perl
	R
	Bash
	PowerShell
	HTML
	CSS
	SQL
	JSON
	YAML
	TOML
	XML
)

type languageInfo struct {
	canonical string
	display   string
	aliases   []string
}

var languageInfos = map[Language]languageInfo{
	Python:     {"python", "Python", []string{"py"}},
	Rust:       {"rust", "Rust", []string{"rs"}},
	JavaScript: {"javascript", "JavaScript", []string{"js"}},
	TypeScript: {"typescript", "TypeScript", []string{"ts"}},
	Java:       {"java", "Java", nil},
	C:          {"c", "C", nil},
	Cpp:        {"cpp", "C++", []string{"c++", "cxx"}},
	Go:         {"go", "Go", []string{"golang"}},
	CSharp:     {"csharp", "C#", []string{"c#", "cs"}},
	PHP:        {"php", "PHP", nil},
	Ruby:       {"ruby", "Ruby", []string{"rb"}},
	Swift:      {"swift", "Swift", nil},
	Kotlin:     {"kotlin", "Kotlin", []string{"kt"}},
	Scala:      {"scala", "Scala", nil},
	Haskell:    {"haskell", "Haskell", []string{"hs"}},
	Lua:        {"lua", "Lua", nil},
	Perl:       {"perl", "Perl", []string{"pl"}},
	R:          {"r", "R", nil},
	Bash:       {"bash", "Bash", []string{"sh"}},
	PowerShell: {"powershell", "PowerShell", []string{"ps1"}},
	HTML:       {"html", "HTML", nil},
	CSS:        {"css", "CSS", nil},
	SQL:        {"sql", "SQL", nil},
	JSON:       {"json", "JSON", nil},
	YAML:       {"yaml", "YAML", []string{"yml"}},
	TOML:       {"toml", "TOML", nil},
	XML:        {"xml", "XML", nil},
}

// byName maps canonical names and aliases to their tag.
var byName = func() map[string]Language {
	m := make(map[string]Language, len(languageInfos)*2)
	for l, info := range languageInfos {
		m[info.canonical] = l
		for _, a := range info.aliases {
			m[a] = l
		}
	}
	return m
}()

// All returns every enumerated language in declaration order.
func All() []Language {
	out := make([]Language, 0, len(languageInfos))
	for l := Python; l <= XML; l++ {
		out = append(out, l)
	}
	return out
}

// Parse maps a canonical name or alias to a Language. Matching is
// case-insensitive and ignores surrounding whitespace.
func Parse(s string) (Language, error) {
	l, ok := byName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Unknown, fmt.Errorf("unknown language %q", s)
	}
	return l, nil
}

// String returns the canonical lowercase name, or "unknown".
func (l Language) String() string {
	if info, ok := languageInfos[l]; ok {
		return info.canonical
	}
	return "unknown"
}

// DisplayName returns the human-facing name ("C++", "C#", "PHP").
func (l Language) DisplayName() string {
	if info, ok := languageInfos[l]; ok {
		return info.display
	}
	return "Unknown"
}

// Valid reports whether l is one of the enumerated languages.
func (l Language) Valid() bool {
	_, ok := languageInfos[l]
	return ok
}

func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Language) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
