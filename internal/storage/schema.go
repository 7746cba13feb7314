// Package storage persists ParsedProject snapshots to SQLite and reads them
// back. Every export is a run keyed by a UUID; runs are independent and can be
// pruned without touching each other.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is written to the metadata table on creation.
const SchemaVersion = "1"

// Open opens or creates the snapshot database at path, creating parent
// directories and the schema as needed. ":memory:" is accepted.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases and PRAGMAs consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}
	if version == "0" {
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return db, nil
}

// CreateSchema creates every table and index in one transaction.
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"metadata", createMetadataTable},
		{"runs", createRunsTable},
		{"files", createFilesTable},
		{"constructs", createConstructsTable},
		{"file_errors", createFileErrorsTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns "0" for a database without a metadata table.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

const createMetadataTable = `
CREATE TABLE metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

const createRunsTable = `
CREATE TABLE runs (
    run_id TEXT PRIMARY KEY,                     -- UUID
    root TEXT NOT NULL,                          -- Traversal root as given
    created_at TEXT NOT NULL,                    -- RFC 3339
    duration_ms INTEGER NOT NULL DEFAULT 0,
    total_processed INTEGER NOT NULL DEFAULT 0,
    file_count INTEGER NOT NULL DEFAULT 0,
    error_count INTEGER NOT NULL DEFAULT 0,
    construct_count INTEGER NOT NULL DEFAULT 0
)
`

const createFilesTable = `
CREATE TABLE files (
    run_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    name TEXT NOT NULL,
    language TEXT NOT NULL,                      -- Canonical language tag
    size_bytes INTEGER NOT NULL DEFAULT 0,
    construct_count INTEGER NOT NULL DEFAULT 0,
    ordinal INTEGER NOT NULL,                    -- Position in the snapshot's file list
    PRIMARY KEY (run_id, file_path),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)
`

const createConstructsTable = `
CREATE TABLE constructs (
    run_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    idx INTEGER NOT NULL,                        -- Arena index within the file
    parent_idx INTEGER,                          -- NULL for top-level constructs
    kind TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    start_byte INTEGER NOT NULL,
    end_byte INTEGER NOT NULL,
    source TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',         -- JSON-encoded construct.Metadata
    PRIMARY KEY (run_id, file_path, idx),
    FOREIGN KEY (run_id, file_path) REFERENCES files(run_id, file_path) ON DELETE CASCADE
)
`

const createFileErrorsTable = `
CREATE TABLE file_errors (
    run_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    file_path TEXT NOT NULL,
    kind TEXT NOT NULL,                          -- ParseError, IoError, ...
    message TEXT NOT NULL,
    PRIMARY KEY (run_id, ordinal),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)
`

var indexes = []string{
	"CREATE INDEX idx_files_language ON files(run_id, language)",
	"CREATE INDEX idx_constructs_kind ON constructs(run_id, kind)",
	"CREATE INDEX idx_constructs_name ON constructs(run_id, name)",
	"CREATE INDEX idx_file_errors_kind ON file_errors(run_id, kind)",
}
