package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run summarizes one exported snapshot.
type Run struct {
	ID             string
	Root           string
	CreatedAt      time.Time
	Duration       time.Duration
	TotalProcessed int
	FileCount      int
	ErrorCount     int
	ConstructCount int
}

// ConstructRecord is a stored construct together with its file.
type ConstructRecord struct {
	Path      string
	Language  lang.Language
	Construct construct.Construct
}

// ConstructQuery narrows Constructs. Zero values apply no filter.
type ConstructQuery struct {
	Path  string
	Kinds []string
	// Name is a SQL LIKE pattern, e.g. "get%".
	Name  string
	Limit uint64
}

// Reader reads exported snapshots.
type Reader struct {
	db *sql.DB
}

// NewReader creates a Reader instance.
// DB should have schema already created.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

var runColumns = []string{
	"run_id", "root", "created_at", "duration_ms",
	"total_processed", "file_count", "error_count", "construct_count",
}

// ListRuns returns every run, newest first.
func (r *Reader) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := sq.Select(runColumns...).
		From("runs").
		OrderBy("created_at DESC", "rowid DESC").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run, or ErrRunNotFound.
func (r *Reader) GetRun(ctx context.Context, runID string) (Run, error) {
	row := sq.Select(runColumns...).
		From("runs").
		Where(sq.Eq{"run_id": runID}).
		RunWith(r.db).
		QueryRowContext(ctx)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// LatestRun returns the newest run, or ErrRunNotFound when none exist.
func (r *Reader) LatestRun(ctx context.Context) (Run, error) {
	runs, err := r.ListRuns(ctx)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w: database has no runs", ErrRunNotFound)
	}
	return runs[0], nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run        Run
		createdAt  string
		durationMS int64
	)
	err := s.Scan(
		&run.ID, &run.Root, &createdAt, &durationMS,
		&run.TotalProcessed, &run.FileCount, &run.ErrorCount, &run.ConstructCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}

// Constructs returns stored constructs of a run matching q, in file order
// then arena order.
func (r *Reader) Constructs(ctx context.Context, runID string, q ConstructQuery) ([]ConstructRecord, error) {
	builder := sq.Select(
		"c.file_path", "f.language", "c.idx", "c.parent_idx", "c.kind", "c.name",
		"c.start_line", "c.end_line", "c.start_byte", "c.end_byte", "c.source", "c.metadata",
	).
		From("constructs c").
		Join("files f ON f.run_id = c.run_id AND f.file_path = c.file_path").
		Where(sq.Eq{"c.run_id": runID}).
		OrderBy("f.ordinal", "c.idx")

	if q.Path != "" {
		builder = builder.Where(sq.Eq{"c.file_path": q.Path})
	}
	if len(q.Kinds) > 0 {
		builder = builder.Where(sq.Eq{"c.kind": q.Kinds})
	}
	if q.Name != "" {
		builder = builder.Where(sq.Like{"c.name": q.Name})
	}
	if q.Limit > 0 {
		builder = builder.Limit(q.Limit)
	}

	rows, err := builder.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query constructs: %w", err)
	}
	defer rows.Close()

	var out []ConstructRecord
	for rows.Next() {
		rec, err := scanConstruct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanConstruct(s scanner) (ConstructRecord, error) {
	var (
		rec      ConstructRecord
		language string
		parent   sql.NullInt64
		meta     string
		c        = &rec.Construct
	)
	if err := s.Scan(
		&rec.Path, &language, &c.Index, &parent, &c.Kind, &c.Name,
		&c.StartLine, &c.EndLine, &c.StartByte, &c.EndByte, &c.Source, &meta,
	); err != nil {
		return ConstructRecord{}, fmt.Errorf("failed to scan construct: %w", err)
	}
	rec.Language, _ = lang.Parse(language)
	c.Parent = construct.NoParent
	if parent.Valid {
		c.Parent = int(parent.Int64)
	}
	if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
		return ConstructRecord{}, fmt.Errorf("failed to decode metadata for %s#%d: %w", rec.Path, c.Index, err)
	}
	return rec, nil
}

// Errors returns the run's file errors in their original order.
func (r *Reader) Errors(ctx context.Context, runID string) ([]parser.FileError, error) {
	rows, err := sq.Select("file_path", "kind", "message").
		From("file_errors").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("ordinal").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query file errors: %w", err)
	}
	defer rows.Close()

	var out []parser.FileError
	for rows.Next() {
		var (
			fe   parser.FileError
			kind string
		)
		if err := rows.Scan(&fe.Path, &kind, &fe.Message); err != nil {
			return nil, fmt.Errorf("failed to scan file error: %w", err)
		}
		if err := fe.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, fmt.Errorf("file error %s: %w", fe.Path, err)
		}
		out = append(out, fe)
	}
	return out, rows.Err()
}

// LoadProject rebuilds the ParsedProject stored under runID. Syntax trees are
// never stored, so structural queries are unavailable on the result.
func (r *Reader) LoadProject(ctx context.Context, runID string) (*parser.ParsedProject, error) {
	run, err := r.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	project := &parser.ParsedProject{
		Root:           run.Root,
		TotalProcessed: run.TotalProcessed,
		Languages:      make(map[lang.Language]int),
		Duration:       run.Duration,
	}

	byPath, err := r.loadFiles(ctx, runID, project)
	if err != nil {
		return nil, err
	}

	records, err := r.Constructs(ctx, runID, ConstructQuery{})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		f, ok := byPath[rec.Path]
		if !ok {
			continue
		}
		f.Constructs = append(f.Constructs, rec.Construct)
	}
	for _, f := range project.Files {
		linkChildren(f.Constructs)
	}

	if project.Errors, err = r.Errors(ctx, runID); err != nil {
		return nil, err
	}
	return project, nil
}

func (r *Reader) loadFiles(ctx context.Context, runID string, project *parser.ParsedProject) (map[string]*parser.ParsedFile, error) {
	rows, err := sq.Select("file_path", "name", "language", "size_bytes").
		From("files").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("ordinal").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	byPath := make(map[string]*parser.ParsedFile)
	for rows.Next() {
		f := &parser.ParsedFile{Constructs: []construct.Construct{}}
		var language string
		if err := rows.Scan(&f.Path, &f.Name, &language, &f.Size); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.Language, _ = lang.Parse(language)
		project.Files = append(project.Files, f)
		project.Languages[f.Language]++
		byPath[f.Path] = f
	}
	return byPath, rows.Err()
}

// linkChildren rebuilds child index lists from parent indices. Constructs
// are in pre-order, so appending in arena order keeps children in source
// order.
func linkChildren(cs []construct.Construct) {
	for i := range cs {
		if p := cs[i].Parent; p >= 0 && p < len(cs) {
			cs[p].Children = append(cs[p].Children, cs[i].Index)
		}
	}
}
