package coverage

import (
	"errors"
	"fmt"
	"regexp"
)

// Style selects how a class and its initializer are scored.
type Style string

const (
	// StyleSphinx scores a class and its __init__ independently.
	StyleSphinx Style = "sphinx"
	// StyleGoogle scores a class and its __init__ as one logical unit.
	StyleGoogle Style = "google"
)

// ErrConfigConflict indicates a combination of options that would produce misleading coverage.
var ErrConfigConflict = errors.New("configuration conflict")

// Options is the immutable configuration snapshot shared by the policy and the aggregator.
// Build it once per run; nothing in this package mutates it.
type Options struct {
	IgnoreModule              bool
	IgnoreInitModule          bool
	IgnoreInitMethod          bool
	IgnoreMagic               bool
	IgnorePrivate             bool
	IgnoreSemiprivate         bool
	IgnorePropertyDecorators  bool
	IgnoreSetters             bool
	IgnoreNestedFunctions     bool
	IgnoreNestedClasses       bool
	IgnoreOverloadedFunctions bool

	IgnoreRegex    []*regexp.Regexp
	WhitelistRegex []*regexp.Regexp

	Style Style
}

// DefaultOptions returns options with every ignore rule off and sphinx style.
func DefaultOptions() Options {
	return Options{Style: StyleSphinx}
}

// Validate rejects option combinations that cannot be evaluated consistently.
func (o Options) Validate() error {
	switch o.Style {
	case StyleSphinx, StyleGoogle:
	default:
		return fmt.Errorf("%w: unknown docstring style %q", ErrConfigConflict, o.Style)
	}

	if o.Style == StyleGoogle && o.IgnoreInitMethod {
		return fmt.Errorf("%w: docstring_style google merges __init__ into its class; it cannot be combined with ignore_init_method", ErrConfigConflict)
	}

	return nil
}

// CompileRegexes compiles every pattern, reporting the first one that fails.
func CompileRegexes(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
