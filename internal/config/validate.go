package config

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/treeparser/internal/lang"
)

var (
	// ErrInvalidConcurrency indicates a non-positive worker bound
	ErrInvalidConcurrency = errors.New("invalid concurrency")

	// ErrInvalidMaxFileSize indicates a negative file size cap
	ErrInvalidMaxFileSize = errors.New("invalid max file size")

	// ErrInvalidDetection indicates an unknown language detection mode
	ErrInvalidDetection = errors.New("invalid language detection mode")

	// ErrInvalidLimit indicates a non-positive search limit
	ErrInvalidLimit = errors.New("invalid search limit")

	// ErrInvalidDebounce indicates a negative watch debounce
	ErrInvalidDebounce = errors.New("invalid debounce")

	// ErrInvalidCacheCapacity indicates a non-positive cache capacity
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity")

	// ErrEmptyDatabasePath indicates a missing export database path
	ErrEmptyDatabasePath = errors.New("empty database path")
)

// Validate checks that the configuration is valid and complete. Every
// problem is reported; errors.Is matches each sentinel involved.
func Validate(cfg *Config) error {
	return errors.Join(
		validateParse(&cfg.Parse),
		validateSearch(&cfg.Search),
		validateStorage(&cfg.Storage),
		validateWatch(&cfg.Watch),
	)
}

func validateParse(cfg *ParseConfig) error {
	var errs []error

	if cfg.MaxConcurrentFiles <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_concurrent_files must be positive, got %d", ErrInvalidConcurrency, cfg.MaxConcurrentFiles))
	}
	if cfg.ThreadPoolSize < 0 {
		errs = append(errs, fmt.Errorf("%w: thread_pool_size cannot be negative, got %d", ErrInvalidConcurrency, cfg.ThreadPoolSize))
	}
	if cfg.MaxFileSizeMB < 0 {
		errs = append(errs, fmt.Errorf("%w: max_file_size_mb cannot be negative, got %d", ErrInvalidMaxFileSize, cfg.MaxFileSizeMB))
	}
	if _, err := lang.ParseDetectionMode(cfg.LanguageDetection); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q (valid: extension, shebang, content, combined)", ErrInvalidDetection, cfg.LanguageDetection))
	}

	return errors.Join(errs...)
}

func validateSearch(cfg *SearchConfig) error {
	if cfg.DefaultLimit <= 0 {
		return fmt.Errorf("%w: default_limit must be positive, got %d", ErrInvalidLimit, cfg.DefaultLimit)
	}
	return nil
}

func validateStorage(cfg *StorageConfig) error {
	if cfg.DatabasePath == "" {
		return fmt.Errorf("%w: database_path is required", ErrEmptyDatabasePath)
	}
	return nil
}

func validateWatch(cfg *WatchConfig) error {
	var errs []error

	if cfg.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.DebounceMS))
	}
	if cfg.CacheCapacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_capacity must be positive, got %d", ErrInvalidCacheCapacity, cfg.CacheCapacity))
	}

	return errors.Join(errs...)
}
