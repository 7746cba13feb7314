package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/treeparser/internal/construct"
	"github.com/mvp-joe/treeparser/internal/lang"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// Test Plan for snapshot storage:
// - Open creates the schema once and reopens an existing database
// - WriteProject stores runs, files, constructs and errors under a UUID
// - Constructs filters by path, kind and name pattern
// - LoadProject rebuilds an equivalent project (hierarchy, histogram, errors)
// - ListRuns orders newest first; DeleteRun and PruneRuns cascade

func parseFixtures(t *testing.T) *parser.ParsedProject {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app/main.py": "class Greeter:\n    def hello(self):\n        return 1\n\ndef main():\n    pass\n",
		"lib/util.go": "package lib\n\nfunc Helper() {}\n",
		"notes.txt":   "plain text\n",
		"lib/mod.rs":  "pub fn run() {}\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	project, err := parser.ParseDirectory(context.Background(), root, parser.DefaultOptions())
	require.NoError(t, err)
	return project
}

func TestOpen_CreatesSchemaOnce(t *testing.T) {
	t.Parallel()

	db, path := NewTestDBFile(t)
	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
	require.NoError(t, db.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()

	version, err = GetSchemaVersion(again)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestWriteProject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := NewTestDB(t)
	project := parseFixtures(t)

	runID, err := NewWriter(db).WriteProject(ctx, project)
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	assert.NoError(t, err)

	run, err := NewReader(db).GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, project.Root, run.Root)
	assert.Equal(t, 3, run.TotalProcessed)
	assert.Equal(t, 3, run.FileCount)
	assert.Equal(t, 1, run.ErrorCount)
	assert.Equal(t, project.ConstructCount(), run.ConstructCount)
	assert.False(t, run.CreatedAt.IsZero())

	errs, err := NewReader(db).Errors(ctx, runID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, parser.KindUnsupportedLanguage, errs[0].Kind)
	assert.Equal(t, "notes.txt", filepath.Base(errs[0].Path))
}

func TestWriteProject_Nil(t *testing.T) {
	t.Parallel()

	_, err := NewWriter(NewTestDB(t)).WriteProject(context.Background(), nil)
	assert.Error(t, err)
}

func TestReader_Constructs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := NewTestDB(t)
	project := parseFixtures(t)
	runID, err := NewWriter(db).WriteProject(ctx, project)
	require.NoError(t, err)
	r := NewReader(db)

	all, err := r.Constructs(ctx, runID, ConstructQuery{})
	require.NoError(t, err)
	assert.Len(t, all, project.ConstructCount())

	fns, err := r.Constructs(ctx, runID, ConstructQuery{Kinds: []string{"function_definition", "function_item", "function_declaration"}})
	require.NoError(t, err)
	var names []string
	for _, rec := range fns {
		names = append(names, rec.Construct.Name)
	}
	assert.ElementsMatch(t, []string{"hello", "main", "Helper", "run"}, names)

	hello, err := r.Constructs(ctx, runID, ConstructQuery{Name: "hel%"})
	require.NoError(t, err)
	require.Len(t, hello, 2) // hello, Helper: LIKE is case-insensitive for ASCII
	for _, rec := range hello {
		assert.NotEqual(t, lang.Unknown, rec.Language)
	}

	py, ok := fileByBase(project, "main.py")
	require.True(t, ok)
	inFile, err := r.Constructs(ctx, runID, ConstructQuery{Path: py.Path})
	require.NoError(t, err)
	require.Len(t, inFile, len(py.Constructs))
	assert.Equal(t, "Greeter", inFile[0].Construct.Name)
	assert.Equal(t, construct.NoParent, inFile[0].Construct.Parent)
	assert.Equal(t, 0, inFile[1].Construct.Parent)
	assert.Equal(t, lang.Python, inFile[1].Language)

	limited, err := r.Constructs(ctx, runID, ConstructQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := r.Constructs(ctx, uuid.NewString(), ConstructQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func fileByBase(p *parser.ParsedProject, base string) (*parser.ParsedFile, bool) {
	for _, f := range p.Files {
		if filepath.Base(f.Path) == base {
			return f, true
		}
	}
	return nil, false
}

func TestReader_LoadProject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := NewTestDB(t)
	project := parseFixtures(t)
	runID, err := NewWriter(db).WriteProject(ctx, project)
	require.NoError(t, err)

	loaded, err := NewReader(db).LoadProject(ctx, runID)
	require.NoError(t, err)

	assert.Equal(t, project.Root, loaded.Root)
	assert.Equal(t, project.TotalProcessed, loaded.TotalProcessed)
	assert.Equal(t, project.Languages, loaded.Languages)
	assert.Equal(t, project.Errors, loaded.Errors)
	require.Len(t, loaded.Files, len(project.Files))

	for i, want := range project.Files {
		got := loaded.Files[i]
		assert.Equal(t, want.Path, got.Path)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Language, got.Language)
		assert.Equal(t, want.Size, got.Size)
		assert.False(t, got.HasTree())
		require.Len(t, got.Constructs, len(want.Constructs))
		for j, wc := range want.Constructs {
			gc := got.Constructs[j]
			assert.Equal(t, wc.Kind, gc.Kind)
			assert.Equal(t, wc.Name, gc.Name)
			assert.Equal(t, wc.Source, gc.Source)
			assert.Equal(t, wc.Parent, gc.Parent)
			assert.Equal(t, len(wc.Children), len(gc.Children))
			assert.Equal(t, wc.Metadata.Visibility, gc.Metadata.Visibility)
			assert.Equal(t, len(wc.Metadata.Parameters), len(gc.Metadata.Parameters))
		}
	}

	_, err = NewReader(db).LoadProject(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRuns_ListDeletePrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := NewTestDB(t)
	project := parseFixtures(t)
	w := NewWriter(db)
	r := NewReader(db)

	_, err := r.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := w.WriteProject(ctx, project)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := r.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)

	latest, err := r.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[2], latest.ID)

	require.NoError(t, w.DeleteRun(ctx, ids[1]))
	assert.ErrorIs(t, w.DeleteRun(ctx, ids[1]), ErrRunNotFound)

	orphans, err := r.Constructs(ctx, ids[1], ConstructQuery{})
	require.NoError(t, err)
	assert.Empty(t, orphans)

	removed, err := w.PruneRuns(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	runs, err = r.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[2], runs[0].ID)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM constructs").Scan(&count))
	assert.Equal(t, project.ConstructCount(), count)
}
