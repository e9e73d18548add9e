package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/interrogate/internal/config"
	"github.com/mvp-joe/interrogate/internal/mcp"
)

var mcpLogFile string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for docstring coverage",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
measure docstring coverage.

The MCP server:
- Provides the interrogate_coverage tool
- Reads each project's own .interrogate.yaml or pyproject.toml
- Communicates via stdio (standard MCP transport)

Stdout carries the protocol, so logs go to --log-file or are discarded.

Example:
  interrogate mcp --log-file /tmp/interrogate-mcp.log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logCfg := config.Default().Log
		logCfg.Level = "info"
		logCfg.Filename = mcpLogFile

		// Stdio carries the protocol; without a log file, logs are dropped.
		logger, closer, err := newLogger(logCfg, io.Discard)
		if err != nil {
			return err
		}
		defer closer.Close()

		server, err := mcp.NewServer(Version, withRunID(logger))
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		defer server.Close()

		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpLogFile, "log-file", "", "write server logs to this rotated file")
}
