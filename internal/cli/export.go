package cli

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/config"
	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/storage"
)

const flagDB = "db"

// NewExportCmd creates the export command.
//
// Example usage:
//
//	treeparser export ./src
//	treeparser export ./src --db /tmp/constructs.db --keep 5
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Parse a directory and store the snapshot in SQLite",
		Long: `Traverse a directory and write every file, construct and per-file error
to the export database as a new run. The database defaults to
storage.database_path from the project configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String(flagDB, "", "Database path (default from config)")
	cmd.Flags().Int("keep", 0, "Keep only the newest N runs after exporting (0 keeps all)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	dir := projectDir(args, 0)
	keep, _ := cmd.Flags().GetInt("keep")

	cfg, opts, err := loadSettings(cmd, dir)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	project, err := parser.ParseDirectory(ctx, dir, opts)
	if err != nil {
		return err
	}
	defer project.Close()

	db, dbPath, err := openDatabase(cmd, cfg, dir)
	if err != nil {
		return err
	}
	defer db.Close()

	writer := storage.NewWriter(db)
	runID, err := writer.WriteProject(ctx, project)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Exported run %s to %s\n", runID, dbPath)
	fmt.Fprintf(w, "  %s files, %s constructs, %s errors\n",
		formatNumber(len(project.Files)), formatNumber(project.ConstructCount()), formatNumber(len(project.Errors)))

	if keep > 0 {
		removed, err := writer.PruneRuns(ctx, keep)
		if err != nil {
			return err
		}
		if removed > 0 {
			fmt.Fprintf(w, "  pruned %d older runs\n", removed)
		}
	}
	return nil
}

// openDatabase opens --db when given, otherwise the configured path under dir.
func openDatabase(cmd *cobra.Command, cfg *config.Config, dir string) (*sql.DB, string, error) {
	path, _ := cmd.Flags().GetString(flagDB)
	if path == "" {
		path = cfg.ResolveDatabasePath(dir)
	}
	path = filepath.Clean(path)

	db, err := storage.Open(path)
	if err != nil {
		return nil, "", err
	}
	return db, path, nil
}
