package lang

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// DetectionMode selects which signals the classifier consults.
type DetectionMode int

const (
	ByExtension DetectionMode = iota
	ByContent
	ByShebang
	// Combined tries extension, then shebang, then content heuristics.
	Combined
)

var detectionModeNames = map[DetectionMode]string{
	ByExtension: "extension",
	ByContent:   "content",
	ByShebang:   "shebang",
	Combined:    "combined",
}

func (m DetectionMode) String() string {
	if s, ok := detectionModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("DetectionMode(%d)", int(m))
}

// ParseDetectionMode accepts "extension", "content", "shebang" or "combined".
func ParseDetectionMode(s string) (DetectionMode, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for m, name := range detectionModeNames {
		if name == want {
			return m, nil
		}
	}
	return ByExtension, fmt.Errorf("unknown detection mode %q", s)
}

// NeedsContent reports whether the mode inspects file text.
func (m DetectionMode) NeedsContent() bool {
	return m != ByExtension
}

var extensionTable = map[string]Language{
	"py": Python, "pyw": Python, "pyi": Python,
	"rs": Rust,
	"js": JavaScript, "mjs": JavaScript, "cjs": JavaScript,
	"ts": TypeScript, "mts": TypeScript, "cts": TypeScript,
	"java": Java,
	"c":    C, "h": C,
	"cpp": Cpp, "cc": Cpp, "cxx": Cpp, "c++": Cpp, "hpp": Cpp, "hh": Cpp, "hxx": Cpp, "h++": Cpp,
	"go": Go,
	"cs": CSharp,
	"php": PHP, "phtml": PHP, "php3": PHP, "php4": PHP, "php5": PHP, "phps": PHP,
	"rb": Ruby, "rbw": Ruby,
	"swift": Swift,
	"kt":    Kotlin, "kts": Kotlin,
	"scala": Scala, "sc": Scala,
	"hs": Haskell, "lhs": Haskell,
	"lua": Lua,
	"pl":  Perl, "pm": Perl, "t": Perl, "pod": Perl,
	"r":  R,
	"sh": Bash, "bash": Bash, "zsh": Bash, "fish": Bash,
	"ps1": PowerShell, "psm1": PowerShell, "psd1": PowerShell,
	"html": HTML, "htm": HTML, "xhtml": HTML,
	"css":  CSS,
	"sql":  SQL,
	"json": JSON,
	"yaml": YAML, "yml": YAML,
	"toml": TOML,
	"xml":  XML, "xsd": XML, "xsl": XML, "xslt": XML,
}

// FileExtension returns the lowercased extension of path without the dot.
func FileExtension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// FileStem returns the base name of path without its extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FromExtension maps an extension (with or without the leading dot) to a language.
func FromExtension(ext string) (Language, bool) {
	l, ok := extensionTable[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return l, ok
}

// DetectByExtension classifies path by its extension alone.
func DetectByExtension(path string) (Language, bool) {
	return FromExtension(FileExtension(path))
}

var shebangRules = []struct {
	needles []string
	lang    Language
}{
	{[]string{"python"}, Python},
	{[]string{"node"}, JavaScript},
	{[]string{"bash", "/bin/sh"}, Bash},
	{[]string{"ruby"}, Ruby},
	{[]string{"perl"}, Perl},
	{[]string{"php"}, PHP},
}

// DetectByShebang inspects the first line of content for an interpreter directive.
func DetectByShebang(content []byte) (Language, bool) {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	if !bytes.HasPrefix(line, []byte("#!")) {
		return Unknown, false
	}
	lower := strings.ToLower(string(line))
	for _, rule := range shebangRules {
		for _, n := range rule.needles {
			if strings.Contains(lower, n) {
				return rule.lang, true
			}
		}
	}
	return Unknown, false
}

var contentRules = []struct {
	markers []string
	lang    Language
}{
	{[]string{"def ", "import "}, Python},
	{[]string{"fn ", "use "}, Rust},
	{[]string{"function ", "var "}, JavaScript},
	{[]string{"public class ", "import "}, Java},
	{[]string{"#include", "int main"}, C},
}

// DetectByContent applies keyword heuristics; every marker of a rule must appear.
func DetectByContent(content []byte) (Language, bool) {
	lower := strings.ToLower(string(content))
	for _, rule := range contentRules {
		hit := true
		for _, m := range rule.markers {
			if !strings.Contains(lower, m) {
				hit = false
				break
			}
		}
		if hit {
			return rule.lang, true
		}
	}
	return Unknown, false
}

// Detect classifies a file under the given mode. content may be nil for ByExtension.
func Detect(mode DetectionMode, path string, content []byte) (Language, bool) {
	switch mode {
	case ByShebang:
		return DetectByShebang(content)
	case ByContent:
		return DetectByContent(content)
	case Combined:
		if l, ok := DetectByExtension(path); ok {
			return l, true
		}
		if l, ok := DetectByShebang(content); ok {
			return l, true
		}
		return DetectByContent(content)
	default:
		return DetectByExtension(path)
	}
}

// SupportedExtensions lists every recognized extension, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(extensionTable))
	for ext := range extensionTable {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// IsSupportedExtension reports whether ext maps to any language.
func IsSupportedExtension(ext string) bool {
	_, ok := FromExtension(ext)
	return ok
}
