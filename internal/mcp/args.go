package mcp

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/treeparser/internal/lang"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 500
	defaultTextLimit   = 20
	maxTextLimit       = 100
)

// clampLimit returns defaultVal for non-positive values and caps at max.
func clampLimit(val, defaultVal, max int) int {
	if val <= 0 {
		return defaultVal
	}
	if val > max {
		return max
	}
	return val
}

// parseLanguageArg maps an optional language name; empty means any language.
func parseLanguageArg(s string) (lang.Language, error) {
	if strings.TrimSpace(s) == "" {
		return lang.Unknown, nil
	}
	l, err := lang.Parse(s)
	if err != nil {
		return lang.Unknown, fmt.Errorf("language: %w", err)
	}
	return l, nil
}

// compilePathGlob compiles an optional path pattern. "*" crosses directory
// separators, so "*_test.go" matches at any depth.
func compilePathGlob(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid path_pattern %q: %w", pattern, err)
	}
	return g, nil
}
