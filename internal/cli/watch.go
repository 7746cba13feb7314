package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/storage"
	"github.com/mvp-joe/treeparser/internal/watcher"
)

// NewWatchCmd creates the watch command.
//
// Example usage:
//
//	treeparser watch ./src
//	treeparser watch ./src --export
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-parse a directory whenever its files change",
		Long: `Traverse a directory, then watch it and produce a complete new snapshot after
every burst of changes. Unchanged files are served from the parse cache when
parse.enable_caching is set. With --export every snapshot is also written to
the export database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().Bool("export", false, "Write every snapshot to the export database")
	cmd.Flags().String(flagDB, "", "Database path (default from config)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := projectDir(args, 0)
	export, _ := cmd.Flags().GetBool("export")

	cfg, opts, err := loadSettings(cmd, dir)
	if err != nil {
		return err
	}
	// Progress bars would redraw on every snapshot.
	opts.Progress = nil

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var writer *storage.Writer
	if export {
		db, dbPath, err := openDatabase(cmd, cfg, dir)
		if err != nil {
			return err
		}
		defer db.Close()
		writer = storage.NewWriter(db)
		fmt.Fprintf(cmd.OutOrStdout(), "Exporting snapshots to %s\n", dbPath)
	}

	w := cmd.OutOrStdout()
	coordinator, err := watcher.NewCoordinator(watcher.CoordinatorConfig{
		Root:          dir,
		Options:       opts,
		Debounce:      time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		CacheCapacity: cfg.Watch.CacheCapacity,
		OnSnapshot: func(snap watcher.Snapshot) {
			p := snap.Project
			fmt.Fprintf(w, "[%s] %s files, %s constructs, %s errors, %d reused (%s)\n",
				snap.TakenAt.Local().Format("15:04:05"),
				formatNumber(len(p.Files)),
				formatNumber(p.ConstructCount()),
				formatNumber(len(p.Errors)),
				snap.Reused,
				FormatDuration(p.Duration))

			if writer == nil {
				return
			}
			runID, err := writer.WriteProject(ctx, p)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "export failed: %v\n", err)
				return
			}
			fmt.Fprintf(w, "  exported run %s\n", runID)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", dir)
	if err := coordinator.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
