package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/mvp-joe/interrogate/internal/badge"
	"github.com/mvp-joe/interrogate/internal/config"
	"github.com/mvp-joe/interrogate/internal/coverage"
	"github.com/mvp-joe/interrogate/internal/report"
	"github.com/mvp-joe/interrogate/internal/watcher"
)

// runOptions carries everything one invocation needs besides the paths.
type runOptions struct {
	configFile string
	watch      bool

	flags  *pflag.FlagSet
	stdout io.Writer
	stderr io.Writer
}

// session is one configured interrogate invocation. In watch mode it is
// re-run for every batch of changes.
type session struct {
	paths  []string
	cfg    *config.Config
	opts   *coverage.Options
	cache  *coverage.UnitCache
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

// runInterrogate loads configuration, runs the coverage engine over paths and
// prints the report. It returns ErrBelowThreshold when coverage fails.
func runInterrogate(ctx context.Context, paths []string, ro runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	if ro.stdout == nil {
		ro.stdout = os.Stdout
	}
	if ro.stderr == nil {
		ro.stderr = os.Stderr
	}

	root, err := config.FindProjectRoot(paths)
	if err != nil {
		return err
	}

	var loaderOpts []config.LoaderOption
	if ro.flags != nil {
		loaderOpts = append(loaderOpts, config.WithFlags(ro.flags))
	}
	if ro.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(ro.configFile))
	}
	loader := config.NewLoader(root, loaderOpts...)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg.Log, ro.stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Conflicting options are rejected here, before any file is read.
	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	s := &session{
		paths:  paths,
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		stdout: ro.stdout,
		stderr: ro.stderr,
	}
	logger.Debug("configuration loaded", "root", root, "config_file", loader.ConfigFileUsed())

	if ro.watch {
		return s.watch(ctx)
	}

	results, err := s.run(ctx)
	if err != nil {
		return err
	}
	if !results.Passed(cfg.FailUnder) {
		return ErrBelowThreshold
	}
	return nil
}

// run discovers files, analyzes them and writes the report and badge.
func (s *session) run(ctx context.Context) (*coverage.Results, error) {
	logger := withRunID(s.logger)

	discovery, err := coverage.NewFileDiscovery(s.paths, s.cfg.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := discovery.DiscoverFiles()
	if err != nil {
		return nil, err
	}
	logger.Info("discovered files", "count", len(files))

	interrogatorOpts := []coverage.Option{
		coverage.WithWorkers(s.cfg.Workers),
		coverage.WithLogger(logger),
	}
	if s.cache != nil {
		interrogatorOpts = append(interrogatorOpts, coverage.WithCache(s.cache))
	}
	if !s.cfg.Quiet && s.cfg.Format == config.FormatText && isTerminal(s.stderr) {
		interrogatorOpts = append(interrogatorOpts, coverage.WithProgress(NewCLIProgressReporter(s.stderr)))
	}

	interrogator, err := coverage.NewInterrogator(s.opts, interrogatorOpts...)
	if err != nil {
		return nil, err
	}
	results, err := interrogator.Run(ctx, files)
	if err != nil {
		return nil, err
	}
	logger.Info("interrogation complete",
		"files", len(results.FileResults),
		"errors", len(results.Errors),
		"total", results.Total,
		"covered", results.Covered,
		"percent", results.Percent())

	if err := s.writeReport(results); err != nil {
		return nil, err
	}

	if s.cfg.GenerateBadge != "" {
		path, err := badge.Write(s.cfg.GenerateBadge, results.Percent())
		if err != nil {
			return nil, err
		}
		logger.Info("badge written", "path", path)
		if !s.cfg.Quiet {
			fmt.Fprintf(s.stderr, "Generated badge to %s\n", path)
		}
	}

	return results, nil
}

// writeReport prints results to stdout or the configured output file.
func (s *session) writeReport(results *coverage.Results) error {
	if s.cfg.Quiet {
		return nil
	}

	w := s.stdout
	toTerminal := isTerminal(w)
	if s.cfg.Output != "" && s.cfg.Output != "-" {
		f, err := os.Create(s.cfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		w = f
		toTerminal = false
	}

	reporter := report.New(report.Options{
		Verbosity:        s.cfg.Verbose,
		FailUnder:        s.cfg.FailUnder,
		OmitCoveredFiles: s.cfg.OmitCoveredFiles,
		Color:            s.cfg.Color || (toTerminal && os.Getenv("NO_COLOR") == ""),
		Width:            detectTerminalWidth(w, report.DefaultWidth),
	})

	if s.cfg.Format == config.FormatJSON {
		return reporter.WriteJSON(w, results)
	}
	return reporter.WriteText(w, results)
}

// watch runs once, then again for every batch of changed Python files until
// ctx is cancelled. Walks of unchanged files are served from the unit cache.
func (s *session) watch(ctx context.Context) error {
	cache, err := coverage.NewUnitCache(coverage.DefaultCacheCapacity)
	if err != nil {
		return err
	}
	defer cache.Close()
	s.cache = cache

	if _, err := s.run(ctx); err != nil && !isRecoverable(err) {
		return err
	} else if err != nil {
		fmt.Fprintln(s.stderr, "Error:", err)
	}

	fw, err := watcher.NewFileWatcher(s.paths, watcher.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fw.Stop()

	err = fw.Start(ctx, func(files []string) {
		fw.Pause()
		defer fw.Resume()

		s.logger.Info("change detected", "files", files)
		if _, err := s.run(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintln(s.stderr, "Error:", err)
		}
	})
	if err != nil {
		return err
	}

	if !s.cfg.Quiet {
		fmt.Fprintln(s.stderr, "Watching for changes (Ctrl+C to stop)...")
	}
	<-ctx.Done()
	return nil
}

// isRecoverable reports errors watch mode can outlive, such as a project that
// has no Python files yet.
func isRecoverable(err error) bool {
	return errors.Is(err, coverage.ErrNoFiles)
}
