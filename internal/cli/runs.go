package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/config"
	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/storage"
)

// NewRunsCmd creates the runs command and its list, show and delete
// subcommands. Each reads the export database of the current directory
// unless --db is given.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect exported runs",
	}

	cmd.PersistentFlags().String(flagDB, "", "Database path (default from config)")

	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())
	cmd.AddCommand(newRunsDeleteCmd())

	return cmd
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exported runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openRunsDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			reader := storage.NewReader(db)

			runs, err := reader.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool(flagJSON); asJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}

			w := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s  %s files  %s constructs  %s errors  %s\n",
					r.ID,
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					formatNumber(r.FileCount),
					formatNumber(r.ConstructCount),
					formatNumber(r.ErrorCount),
					r.Root)
			}
			return nil
		},
	}

	cmd.Flags().Bool(flagJSON, false, "Write JSON instead of text")

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "List the constructs of a run (default: the latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, _ := cmd.Flags().GetStringSlice("kind")
			name, _ := cmd.Flags().GetString("name")
			path, _ := cmd.Flags().GetString("path")
			limit, _ := cmd.Flags().GetUint64("limit")

			db, err := openRunsDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			reader := storage.NewReader(db)

			ctx := cmd.Context()
			var run storage.Run
			if len(args) == 1 {
				run, err = reader.GetRun(ctx, args[0])
			} else {
				run, err = reader.LatestRun(ctx)
			}
			if err != nil {
				return err
			}

			records, err := reader.Constructs(ctx, run.ID, storage.ConstructQuery{
				Path:  path,
				Kinds: kinds,
				Name:  name,
				Limit: limit,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, rec := range records {
				c := rec.Construct
				fmt.Fprintf(w, "%s:%d-%d\t%s\t%s\n", rec.Path, c.StartLine, c.EndLine, c.Kind, c.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("kind", nil, "Only constructs of these node kinds")
	cmd.Flags().String("name", "", "SQL LIKE pattern over construct names, e.g. 'get%'")
	cmd.Flags().String("path", "", "Only constructs of this file")
	cmd.Flags().Uint64("limit", 0, "Maximum results (0 for all)")

	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and everything it stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openRunsDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.NewWriter(db).DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}

// openRunsDB opens the export database of the current directory, or --db.
// A missing database is an error rather than being created empty.
func openRunsDB(cmd *cobra.Command) (*sql.DB, error) {
	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	path, _ := cmd.Flags().GetString(flagDB)
	if path == "" {
		path = cfg.ResolveDatabasePath(".")
	}
	if !parser.IsValidFile(path) {
		return nil, fmt.Errorf("no export database at %s; run 'treeparser export' first", path)
	}
	return storage.Open(path)
}
