package coverage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/interrogate/internal/coverage/extraction"
	"github.com/mvp-joe/interrogate/internal/coverage/parsers"
)

// Walker turns one source file into its documentable units.
type Walker interface {
	Walk(ctx context.Context, filePath string, source []byte) ([]extraction.Unit, error)
}

// Interrogator runs the parse, walk, filter, score and fold pipeline over a file set.
type Interrogator struct {
	opts     *Options
	walker   Walker
	workers  int
	cache    *UnitCache
	progress ProgressReporter
	logger   *slog.Logger
}

// Option configures an Interrogator.
type Option func(*Interrogator)

// WithWorkers sets how many files are analyzed concurrently.
func WithWorkers(n int) Option {
	return func(i *Interrogator) {
		if n > 0 {
			i.workers = n
		}
	}
}

// WithCache reuses walked units for files whose content has not changed.
func WithCache(cache *UnitCache) Option {
	return func(i *Interrogator) { i.cache = cache }
}

// WithProgress reports per-file progress.
func WithProgress(p ProgressReporter) Option {
	return func(i *Interrogator) {
		if p != nil {
			i.progress = p
		}
	}
}

// WithLogger sets the logger used for per-file diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interrogator) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithWalker replaces the tree-sitter Python walker.
func WithWalker(w Walker) Option {
	return func(i *Interrogator) { i.walker = w }
}

// NewInterrogator validates opts and builds an Interrogator.
// A configuration conflict is reported here, before any file is touched.
func NewInterrogator(opts *Options, options ...Option) (*Interrogator, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	i := &Interrogator{
		opts:     opts,
		walker:   parsers.NewPythonWalker(),
		workers:  runtime.NumCPU(),
		progress: &NoOpProgressReporter{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range options {
		o(i)
	}
	return i, nil
}

// Options returns the configuration snapshot the interrogator was built with.
func (i *Interrogator) Options() *Options {
	return i.opts
}

type fileOutcome struct {
	result *FileResult
	err    *FileError
}

// Run analyzes files and returns the folded results. A file that cannot be read or
// parsed is recorded in Results.Errors and does not stop the run; only context
// cancellation aborts it.
func (i *Interrogator) Run(ctx context.Context, files []string) (*Results, error) {
	i.progress.OnFileProcessingStart(len(files))

	outcomes := make([]fileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)

	for idx, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := i.analyze(gctx, path)
			if err != nil {
				return err
			}
			outcomes[idx] = outcome
			i.progress.OnFileProcessed(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var fileResults []FileResult
	var fileErrors []FileError
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			fileErrors = append(fileErrors, *o.err)
		case o.result != nil:
			fileResults = append(fileResults, *o.result)
		}
	}

	results := Fold(fileResults, fileErrors)
	i.progress.OnComplete(results)
	return results, nil
}

func (i *Interrogator) analyze(ctx context.Context, path string) (fileOutcome, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		i.logger.Warn("failed to read file", "file", path, "error", err)
		return fileOutcome{err: newFileError(path, err)}, nil
	}

	units, err := i.walk(ctx, path, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fileOutcome{}, ctxErr
		}
		var parseErr *parsers.ParseError
		if !errors.As(err, &parseErr) {
			err = fmt.Errorf("failed to walk file: %w", err)
		}
		i.logger.Warn("failed to parse file", "file", path, "error", err)
		return fileOutcome{err: newFileError(path, err)}, nil
	}

	if i.logger.Enabled(ctx, slog.LevelDebug) {
		for _, u := range units {
			if ok, reason := Include(u, i.opts); !ok {
				i.logger.Debug("excluded unit", "file", path, "unit", u.QualName, "line", u.Line, "rule", reason)
			} else if reason == ReasonWhitelist {
				i.logger.Debug("whitelisted unit", "file", path, "unit", u.QualName, "line", u.Line)
			}
		}
	}

	result := Score(path, units, i.opts)
	i.logger.Debug("scored file", "file", path,
		"total", result.Total, "covered", result.Covered, "skipped", result.Skipped)
	return fileOutcome{result: &result}, nil
}

func (i *Interrogator) walk(ctx context.Context, path string, source []byte) ([]extraction.Unit, error) {
	if i.cache != nil {
		if units, ok := i.cache.Get(path, source); ok {
			return units, nil
		}
	}

	units, err := i.walker.Walk(ctx, path, source)
	if err != nil {
		return nil, err
	}

	if i.cache != nil {
		i.cache.Set(path, source, units)
	}
	return units, nil
}

func newFileError(path string, err error) *FileError {
	msg := err.Error()
	var parseErr *parsers.ParseError
	if errors.As(err, &parseErr) {
		msg = parseErr.Err.Error()
		if parseErr.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", parseErr.Line, msg)
		}
	}
	return &FileError{Filename: path, Err: err, Message: msg}
}
