package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/mvp-joe/treeparser/internal/grammar"
)

var (
	// ErrIO covers read and traversal failures, including a missing root.
	ErrIO = errors.New("io error")
	// ErrParse means the grammar produced no tree or a required tree is absent.
	ErrParse = errors.New("parse error")
	// ErrUnsupportedLanguage means no language was detected or no grammar is bound.
	ErrUnsupportedLanguage = grammar.ErrUnsupportedLanguage
	// ErrFileTooLarge means a file exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file too large")
	// ErrPermissionDenied means the file or directory could not be opened.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidQuery means a structural pattern failed to compile.
	ErrInvalidQuery = grammar.ErrInvalidQuery
	// ErrNoSyntaxTree is a parse error raised when a file did not retain its tree.
	ErrNoSyntaxTree = fmt.Errorf("%w: no syntax tree available", ErrParse)
)

// ErrorKind is the coarse classification attached to a FileError.
type ErrorKind int

const (
	KindParse ErrorKind = iota
	KindIO
	KindUnsupportedLanguage
	KindFileTooLarge
	KindPermissionDenied
)

var kindNames = map[ErrorKind]string{
	KindParse:               "ParseError",
	KindIO:                  "IoError",
	KindUnsupportedLanguage: "UnsupportedLanguage",
	KindFileTooLarge:        "FileTooLarge",
	KindPermissionDenied:    "PermissionDenied",
}

var kindSentinels = map[ErrorKind]error{
	KindParse:               ErrParse,
	KindIO:                  ErrIO,
	KindUnsupportedLanguage: ErrUnsupportedLanguage,
	KindFileTooLarge:        ErrFileTooLarge,
	KindPermissionDenied:    ErrPermissionDenied,
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if strings.EqualFold(name, string(b)) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", string(b))
}

// KindOf classifies err. Errors that match no sentinel are treated as Io.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrUnsupportedLanguage):
		return KindUnsupportedLanguage
	case errors.Is(err, ErrFileTooLarge):
		return KindFileTooLarge
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, ErrParse), errors.Is(err, grammar.ErrParseFailed), errors.Is(err, grammar.ErrTreeReleased):
		return KindParse
	default:
		return KindIO
	}
}

// FileError records a per-file failure. It never aborts a traversal.
type FileError struct {
	Path    string    `json:"path"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func newFileError(path string, err error) FileError {
	return FileError{Path: path, Kind: KindOf(err), Message: err.Error()}
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Message)
}

// Is lets errors.Is match a FileError against the sentinel of its kind.
func (e FileError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}
