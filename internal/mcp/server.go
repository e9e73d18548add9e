// Package mcp exposes docstring coverage to coding assistants over the
// Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/interrogate/internal/coverage"
)

// ServerName identifies the server to MCP clients.
const ServerName = "interrogate-mcp"

// Server manages the MCP server lifecycle.
type Server struct {
	mcp    *server.MCPServer
	cache  *coverage.UnitCache
	logger *slog.Logger
}

// NewServer creates an MCP server with the coverage tool registered.
func NewServer(version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache, err := coverage.NewUnitCache(coverage.DefaultCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit cache: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)
	AddCoverageTool(mcpServer, cache, logger)

	return &Server{
		mcp:    mcpServer,
		cache:  cache,
		logger: logger,
	}, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the unit cache.
func (s *Server) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return nil
}
