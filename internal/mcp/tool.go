package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/interrogate/internal/config"
	"github.com/mvp-joe/interrogate/internal/coverage"
	"github.com/mvp-joe/interrogate/internal/report"
)

// CoverageToolName is the name the coverage tool is registered under.
const CoverageToolName = "interrogate_coverage"

// AddCoverageTool registers the interrogate_coverage tool with an MCP server.
// The cache may be nil; when set, it is shared across calls.
func AddCoverageTool(s *server.MCPServer, cache *coverage.UnitCache, logger *slog.Logger) {
	tool := mcp.NewTool(
		CoverageToolName,
		mcp.WithDescription("Measure docstring coverage of Python code. Returns per-file and overall counts of documentable units (modules, classes, functions, methods) and whether the run meets the fail-under threshold. Configuration is read from the project's .interrogate.yaml or pyproject.toml."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Python file or directory to interrogate (absolute, or relative to the server's working directory)")),
		mcp.WithBoolean("detailed",
			mcp.Description("Include every documentable unit with its docstring status (default: false)")),
		mcp.WithNumber("fail_under",
			mcp.Description("Minimum coverage percentage (0-100). Overrides the project configuration.")),
		mcp.WithArray("exclude",
			mcp.Description("Additional paths or glob patterns to exclude (e.g., ['tests/**', 'docs/*'])")),
		mcp.WithString("docstring_style",
			mcp.Description("Docstring style: sphinx (default) or google. Overrides the project configuration.")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createCoverageHandler(cache, logger))
}

// createCoverageHandler creates the handler function for the coverage tool.
func createCoverageHandler(cache *coverage.UnitCache, logger *slog.Logger) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, ok := request.GetRawArguments().(map[string]any); !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		var req CoverageRequest
		if err := CoerceBindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Path == "" {
			return mcp.NewToolResultError("path parameter is required"), nil
		}

		result, err := interrogatePath(ctx, &req, cache, logger)
		if err != nil {
			if isUserError(err) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, err
		}

		return marshalToolResponse(result)
	}
}

// interrogatePath runs discovery and scoring for one request using the
// configuration of the project that contains req.Path.
func interrogatePath(ctx context.Context, req *CoverageRequest, cache *coverage.UnitCache, logger *slog.Logger) (*report.JSONReport, error) {
	if _, err := os.Stat(req.Path); err != nil {
		return nil, userError{err}
	}

	root, err := config.FindProjectRoot([]string{req.Path})
	if err != nil {
		return nil, err
	}

	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return nil, userError{err}
	}
	if req.FailUnder != nil {
		cfg.FailUnder = *req.FailUnder
	}
	if req.DocstringStyle != "" {
		cfg.DocstringStyle = req.DocstringStyle
	}
	cfg.Exclude = append(cfg.Exclude, req.Exclude...)
	if err := config.Validate(cfg); err != nil {
		return nil, userError{fmt.Errorf("invalid configuration: %w", err)}
	}

	opts, err := cfg.ToOptions()
	if err != nil {
		return nil, userError{err}
	}

	discovery, err := coverage.NewFileDiscovery([]string{req.Path}, cfg.Exclude)
	if err != nil {
		return nil, userError{err}
	}
	files, err := discovery.DiscoverFiles()
	if err != nil {
		return nil, userError{err}
	}

	interrogatorOpts := []coverage.Option{
		coverage.WithWorkers(cfg.Workers),
		coverage.WithLogger(logger),
	}
	if cache != nil {
		interrogatorOpts = append(interrogatorOpts, coverage.WithCache(cache))
	}
	interrogator, err := coverage.NewInterrogator(opts, interrogatorOpts...)
	if err != nil {
		return nil, userError{err}
	}

	results, err := interrogator.Run(ctx, files)
	if err != nil {
		return nil, err
	}

	logger.Info("coverage tool run",
		"path", req.Path,
		"files", len(results.FileResults),
		"errors", len(results.Errors),
		"percent", results.Percent())

	return report.NewJSONReport(results, cfg.FailUnder, req.Detailed), nil
}

// userError marks failures caused by the request rather than the server.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func isUserError(err error) bool {
	var ue userError
	return errors.As(err, &ue)
}

// marshalToolResponse marshals a response object to JSON and returns it as an MCP tool result.
func marshalToolResponse(response any) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
