package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Writer exports ParsedProject snapshots.
type Writer struct {
	db  *sql.DB
	now func() time.Time
}

// NewWriter creates a Writer. DB must have schema already created via Open
// or CreateSchema.
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db, now: time.Now}
}

// WriteProject stores p as a new run and returns its id. All rows are
// written in one transaction.
func (w *Writer) WriteProject(ctx context.Context, p *parser.ParsedProject) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nil project")
	}
	runID := uuid.NewString()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Insert("runs").
		Columns(
			"run_id", "root", "created_at", "duration_ms",
			"total_processed", "file_count", "error_count", "construct_count",
		).
		Values(
			runID,
			p.Root,
			w.now().UTC().Format(timeLayout),
			p.Duration.Milliseconds(),
			p.TotalProcessed,
			len(p.Files),
			len(p.Errors),
			p.ConstructCount(),
		).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	if err := writeFiles(ctx, tx, runID, p.Files); err != nil {
		return "", err
	}
	if err := writeConstructs(ctx, tx, runID, p.Files); err != nil {
		return "", err
	}
	if err := writeErrors(ctx, tx, runID, p.Errors); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w", runID, err)
	}
	return runID, nil
}

// prepare builds an INSERT once with squirrel and prepares it on tx.
func prepare(ctx context.Context, tx *sql.Tx, table string, columns ...string) (*sql.Stmt, error) {
	placeholders := make([]interface{}, len(columns))
	sqlStr, _, err := sq.Insert(table).Columns(columns...).Values(placeholders...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s insert: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	return stmt, nil
}

func writeFiles(ctx context.Context, tx *sql.Tx, runID string, files []*parser.ParsedFile) error {
	if len(files) == 0 {
		return nil
	}
	stmt, err := prepare(ctx, tx, "files",
		"run_id", "file_path", "name", "language", "size_bytes", "construct_count", "ordinal")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range files {
		if _, err := stmt.ExecContext(ctx,
			runID, f.Path, f.Name, f.Language.String(), f.Size, len(f.Constructs), i,
		); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
		}
	}
	return nil
}

func writeConstructs(ctx context.Context, tx *sql.Tx, runID string, files []*parser.ParsedFile) error {
	stmt, err := prepare(ctx, tx, "constructs",
		"run_id", "file_path", "idx", "parent_idx", "kind", "name",
		"start_line", "end_line", "start_byte", "end_byte", "source", "metadata")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range files {
		for _, c := range f.Constructs {
			meta, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode metadata for %s#%d: %w", f.Path, c.Index, err)
			}
			if _, err := stmt.ExecContext(ctx,
				runID, f.Path, c.Index, parentColumn(c), c.Kind, c.Name,
				c.StartLine, c.EndLine, c.StartByte, c.EndByte, c.Source, string(meta),
			); err != nil {
				return fmt.Errorf("failed to insert construct %s#%d: %w", f.Path, c.Index, err)
			}
		}
	}
	return nil
}

func parentColumn(c construct.Construct) sql.NullInt64 {
	if !c.HasParent() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(c.Parent), Valid: true}
}

func writeErrors(ctx context.Context, tx *sql.Tx, runID string, errs []parser.FileError) error {
	if len(errs) == 0 {
		return nil
	}
	stmt, err := prepare(ctx, tx, "file_errors", "run_id", "ordinal", "file_path", "kind", "message")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, fe := range errs {
		if _, err := stmt.ExecContext(ctx, runID, i, fe.Path, fe.Kind.String(), fe.Message); err != nil {
			return fmt.Errorf("failed to insert error for %s: %w", fe.Path, err)
		}
	}
	return nil
}

// DeleteRun removes a run and, through cascades, everything it owns.
func (w *Writer) DeleteRun(ctx context.Context, runID string) error {
	res, err := sq.Delete("runs").
		Where(sq.Eq{"run_id": runID}).
		RunWith(w.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// PruneRuns keeps the newest keep runs and deletes the rest. It returns the
// number of runs removed.
func (w *Writer) PruneRuns(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	runs, err := NewReader(w.db).ListRuns(ctx)
	if err != nil {
		return 0, err
	}
	if len(runs) <= keep {
		return 0, nil
	}

	stale := make([]string, 0, len(runs)-keep)
	for _, r := range runs[keep:] {
		stale = append(stale, r.ID)
	}
	res, err := sq.Delete("runs").
		Where(sq.Eq{"run_id": stale}).
		RunWith(w.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
