package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/treeparser/internal/mcp"
)

// NewMCPCmd creates the mcp command.
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp [dir]",
		Short: "Start the MCP server for construct search",
		Long: `Start the Model Context Protocol (MCP) server that lets coding assistants
parse and search your codebase.

The MCP server:
- Parses the project lazily on the first tool call
- Provides treeparser_parse, treeparser_search, treeparser_query and treeparser_text
- Communicates via stdio (standard MCP transport)

Example:
  treeparser mcp --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMCP,
	}

	cmd.Flags().Bool("watch", false, "Re-parse the project when files change")

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")

	root, err := filepath.Abs(projectDir(args, 0))
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}

	cfg, opts, err := loadSettings(cmd, root)
	if err != nil {
		return err
	}
	// Stdout carries the protocol.
	opts.Progress = nil

	fmt.Fprintf(os.Stderr, "treeparser MCP server\n")
	fmt.Fprintf(os.Stderr, "Project Root: %s\n\n", root)

	server, err := mcp.NewServer(mcp.ServerConfig{
		Root:          root,
		Options:       opts,
		Watch:         watch,
		Debounce:      time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		CacheCapacity: cfg.Watch.CacheCapacity,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if err := server.Serve(cmd.Context()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
