package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// envKeys lists every key that may be overridden from the environment.
var envKeys = []string{
	"parse.max_concurrent_files",
	"parse.include_hidden_files",
	"parse.max_file_size_mb",
	"parse.recursive",
	"parse.ignore_patterns",
	"parse.language_detection",
	"parse.enable_caching",
	"parse.thread_pool_size",
	"parse.retain_syntax_tree",
	"search.default_limit",
	"storage.database_path",
	"watch.debounce_ms",
	"watch.cache_capacity",
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (TREEPARSER_*)
// 2. Config file (.treeparser/config.yml or .treeparser/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, ".treeparser"))

	// TREEPARSER_PARSE_MAX_FILE_SIZE_MB -> parse.max_file_size_mb
	v.SetEnvPrefix("TREEPARSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("parse.max_concurrent_files", d.Parse.MaxConcurrentFiles)
	v.SetDefault("parse.include_hidden_files", d.Parse.IncludeHiddenFiles)
	v.SetDefault("parse.max_file_size_mb", d.Parse.MaxFileSizeMB)
	v.SetDefault("parse.recursive", d.Parse.Recursive)
	v.SetDefault("parse.ignore_patterns", d.Parse.IgnorePatterns)
	v.SetDefault("parse.language_detection", d.Parse.LanguageDetection)
	v.SetDefault("parse.enable_caching", d.Parse.EnableCaching)
	v.SetDefault("parse.thread_pool_size", d.Parse.ThreadPoolSize)
	v.SetDefault("parse.retain_syntax_tree", d.Parse.RetainSyntaxTree)

	v.SetDefault("search.default_limit", d.Search.DefaultLimit)
	v.SetDefault("storage.database_path", d.Storage.DatabasePath)
	v.SetDefault("watch.debounce_ms", d.Watch.DebounceMS)
	v.SetDefault("watch.cache_capacity", d.Watch.CacheCapacity)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// ResolveDatabasePath returns the export database path, joined to rootDir
// when relative.
func (c *Config) ResolveDatabasePath(rootDir string) string {
	if filepath.IsAbs(c.Storage.DatabasePath) {
		return c.Storage.DatabasePath
	}
	return filepath.Join(rootDir, c.Storage.DatabasePath)
}
