// Package cli implements the treeparser command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/config"
	"github.com/mvp-joe/treeparser/internal/parser"
)

// Flag names for persistent global flags.
const (
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
	flagJSON    = "json"
)

// NewRootCmd creates the root command and every subcommand.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treeparser",
		Short: "Parse source trees into code constructs and search them",
		Long: `treeparser walks a directory, parses every recognized source file with
tree-sitter, and extracts functions, types, imports and variables.

Configuration is read from .treeparser/config.yml in the project directory
and can be overridden with TREEPARSER_* environment variables.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool(flagVerbose)
			quiet, _ := cmd.Flags().GetBool(flagQuiet)
			configureLogging(verbose, quiet)
		},
	}

	cmd.PersistentFlags().BoolP(flagVerbose, "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP(flagQuiet, "q", false, "Disable progress bars and informational logging")

	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewTextCmd())
	cmd.AddCommand(NewTreeCmd())
	cmd.AddCommand(NewLanguagesCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configureLogging(verbose, quiet bool) {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// projectDir returns the optional directory argument at position i, or ".".
func projectDir(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "."
}

// loadSettings reads the project configuration for dir and derives the
// traversal options from it.
func loadSettings(cmd *cobra.Command, dir string) (*config.Config, parser.ParseOptions, error) {
	cfg, err := config.LoadConfigFromDir(dir)
	if err != nil {
		return nil, parser.ParseOptions{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	opts, err := cfg.Parse.ToOptions()
	if err != nil {
		return nil, parser.ParseOptions{}, err
	}

	quiet, _ := cmd.Flags().GetBool(flagQuiet)
	if !quiet {
		opts.Progress = NewCLIProgressReporter(cmd.ErrOrStderr())
	}
	return cfg, opts, nil
}
