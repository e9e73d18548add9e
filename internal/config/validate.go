package config

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mvp-joe/interrogate/internal/coverage"
)

var (
	// ErrInvalidStyle indicates an unsupported docstring style
	ErrInvalidStyle = errors.New("invalid docstring style")

	// ErrInvalidFailUnder indicates a fail_under outside 0..100
	ErrInvalidFailUnder = errors.New("invalid fail_under")

	// ErrInvalidRegex indicates an ignore or whitelist pattern that does not compile
	ErrInvalidRegex = errors.New("invalid regex")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid workers")

	// ErrInvalidVerbosity indicates a verbose level outside 0..2
	ErrInvalidVerbosity = errors.New("invalid verbosity")

	// ErrInvalidFormat indicates an unsupported output format
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrInvalidLogSettings indicates an unknown log level or negative rotation settings
	ErrInvalidLogSettings = errors.New("invalid log settings")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEngine(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateReporting(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateEngine(cfg *Config) error {
	var errs []error

	style := coverage.Style(cfg.DocstringStyle)
	if style != coverage.StyleSphinx && style != coverage.StyleGoogle {
		errs = append(errs, fmt.Errorf("%w: must be 'sphinx' or 'google', got '%s'", ErrInvalidStyle, cfg.DocstringStyle))
	}

	if style == coverage.StyleGoogle && cfg.IgnoreInitMethod {
		errs = append(errs, fmt.Errorf("%w: docstring_style 'google' cannot be combined with ignore_init_method", coverage.ErrConfigConflict))
	}

	for _, field := range []struct {
		name     string
		patterns []string
	}{
		{"ignore_regex", cfg.IgnoreRegex},
		{"whitelist_regex", cfg.WhitelistRegex},
	} {
		for _, pattern := range field.patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s pattern %q: %v", ErrInvalidRegex, field.name, pattern, err))
			}
		}
	}

	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateReporting(cfg *Config) error {
	var errs []error

	if cfg.FailUnder < 0 || cfg.FailUnder > 100 {
		errs = append(errs, fmt.Errorf("%w: must be between 0 and 100, got %g", ErrInvalidFailUnder, cfg.FailUnder))
	}

	if cfg.Verbose < 0 || cfg.Verbose > 2 {
		errs = append(errs, fmt.Errorf("%w: verbose must be 0, 1 or 2, got %d", ErrInvalidVerbosity, cfg.Verbose))
	}

	format := strings.ToLower(cfg.Format)
	if format != FormatText && format != FormatJSON {
		errs = append(errs, fmt.Errorf("%w: must be 'text' or 'json', got '%s'", ErrInvalidFormat, cfg.Format))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	var errs []error

	if _, err := ParseLevel(cfg.Level); err != nil {
		errs = append(errs, err)
	}

	if cfg.MaxSize < 0 || cfg.MaxBackups < 0 || cfg.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("%w: rotation settings cannot be negative", ErrInvalidLogSettings))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// ParseLevel parses a level name or a numeric slog level.
func ParseLevel(level string) (slog.Level, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(level)); err == nil {
		return slog.Level(n), nil
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return 0, fmt.Errorf("%w: unknown log level '%s'", ErrInvalidLogSettings, level)
	}
	return l, nil
}

// validationErrors keeps every underlying error reachable through errors.Is.
type validationErrors []error

func (e validationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e validationErrors) Unwrap() []error {
	return e
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return validationErrors(errs)
}
