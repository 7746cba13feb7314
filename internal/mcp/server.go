// Package mcp exposes parsing and construct search to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/treeparser/internal/parser"
	"github.com/mvp-joe/treeparser/internal/watcher"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

// Server manages the MCP server lifecycle.
type Server struct {
	config      ServerConfig
	workspace   *Workspace
	coordinator *watcher.Coordinator
	mcp         *server.MCPServer
}

// NewServer validates the root and registers every treeparser tool.
func NewServer(config ServerConfig) (*Server, error) {
	if !parser.IsValidDirectory(config.Root) {
		return nil, fmt.Errorf("%w: directory does not exist: %s", parser.ErrIO, config.Root)
	}

	workspace := NewWorkspace(config.Root, config.Options)

	mcpServer := server.NewMCPServer(
		"treeparser-mcp",
		Version,
		server.WithToolCapabilities(true),
	)
	AddParseTool(mcpServer, workspace)
	AddSearchTool(mcpServer, workspace)
	AddQueryTool(mcpServer, workspace)
	AddTextTool(mcpServer, workspace)

	s := &Server{
		config:    config,
		workspace: workspace,
		mcp:       mcpServer,
	}

	if config.Watch {
		coordinator, err := watcher.NewCoordinator(watcher.CoordinatorConfig{
			Root:          config.Root,
			Options:       workspace.Options(),
			Debounce:      config.Debounce,
			CacheCapacity: config.CacheCapacity,
			OnSnapshot:    workspace.Apply,
		})
		if err != nil {
			workspace.Close()
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		s.coordinator = coordinator
	}

	return s, nil
}

// Workspace returns the project state backing the tools.
func (s *Server) Workspace() *Workspace {
	return s.workspace
}

// Serve starts the MCP server and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.coordinator != nil {
		go func() {
			if err := s.coordinator.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("watcher stopped", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting MCP server on stdio", "root", s.config.Root, "watch", s.config.Watch)
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		slog.Info("received shutdown signal, stopping gracefully")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases all resources.
func (s *Server) Close() error {
	return s.workspace.Close()
}
