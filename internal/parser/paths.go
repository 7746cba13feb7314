package parser

import (
	"os"
	"strings"
)

// MatchesIgnorePatterns reports whether path contains any pattern as a substring.
func MatchesIgnorePatterns(path string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// SanitizePath strips parent-directory segments, collapses doubled slashes
// and removes a leading slash.
func SanitizePath(path string) string {
	path = strings.ReplaceAll(path, "..", "")
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return strings.TrimPrefix(path, "/")
}

// IsValidFile reports whether path exists and is a regular file.
func IsValidFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsValidDirectory reports whether path exists and is a directory.
func IsValidDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
