package config

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// Config represents the complete treeparser configuration.
// It can be loaded from .treeparser/config.yml with environment variable overrides.
type Config struct {
	Parse   ParseConfig   `yaml:"parse" mapstructure:"parse"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// ParseConfig mirrors parser.ParseOptions.
type ParseConfig struct {
	MaxConcurrentFiles int      `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
	IncludeHiddenFiles bool     `yaml:"include_hidden_files" mapstructure:"include_hidden_files"`
	MaxFileSizeMB      int      `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"` // 0 disables the cap
	Recursive          bool     `yaml:"recursive" mapstructure:"recursive"`
	IgnorePatterns     []string `yaml:"ignore_patterns" mapstructure:"ignore_patterns"`
	LanguageDetection  string   `yaml:"language_detection" mapstructure:"language_detection"` // extension, shebang, content or combined
	EnableCaching      bool     `yaml:"enable_caching" mapstructure:"enable_caching"`
	ThreadPoolSize     int      `yaml:"thread_pool_size" mapstructure:"thread_pool_size"` // 0 means unset
	RetainSyntaxTree   bool     `yaml:"retain_syntax_tree" mapstructure:"retain_syntax_tree"`
}

// SearchConfig configures full-text search.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit"`
}

// StorageConfig configures snapshot export.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"` // relative paths resolve against the project root
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS    int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	CacheCapacity int `yaml:"cache_capacity" mapstructure:"cache_capacity"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Parse: ParseConfig{
			MaxConcurrentFiles: runtime.NumCPU() * 2,
			IncludeHiddenFiles: false,
			MaxFileSizeMB:      10,
			Recursive:          true,
			IgnorePatterns:     slices.Clone(parser.DefaultIgnorePatterns),
			LanguageDetection:  lang.ByExtension.String(),
			EnableCaching:      true,
		},
		Search: SearchConfig{
			DefaultLimit: 20,
		},
		Storage: StorageConfig{
			DatabasePath: ".treeparser/constructs.db",
		},
		Watch: WatchConfig{
			DebounceMS:    500,
			CacheCapacity: 10000,
		},
	}
}

// ToOptions converts the parse section into traversal options. The
// configuration is expected to have passed Validate.
func (c ParseConfig) ToOptions() (parser.ParseOptions, error) {
	mode, err := lang.ParseDetectionMode(c.LanguageDetection)
	if err != nil {
		return parser.ParseOptions{}, fmt.Errorf("%w: %w", ErrInvalidDetection, err)
	}
	return parser.ParseOptions{
		MaxConcurrentFiles: c.MaxConcurrentFiles,
		Recursive:          c.Recursive,
		IncludeHidden:      c.IncludeHiddenFiles,
		MaxFileSizeMB:      c.MaxFileSizeMB,
		IgnorePatterns:     slices.Clone(c.IgnorePatterns),
		Detection:          mode,
		EnableCaching:      c.EnableCaching,
		ThreadPoolSize:     c.ThreadPoolSize,
		RetainSyntaxTree:   c.RetainSyntaxTree,
	}, nil
}
