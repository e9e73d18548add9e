// Package config provides configuration loading for interrogate.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Command-line flags that were explicitly set
//  2. Environment variables (INTERROGATE_*)
//  3. Config file: --config, else .interrogate.yaml / .interrogate.yml in the
//     project root, else the [tool.interrogate] table of pyproject.toml
//  4. Built-in defaults
//
// Keys use underscores. Hyphenated keys in config files (ignore-init-method)
// are accepted and normalized.
package config

import (
	"github.com/mvp-joe/interrogate/internal/coverage"
)

// Config represents the complete interrogate configuration.
type Config struct {
	IgnoreModule              bool `yaml:"ignore_module" mapstructure:"ignore_module"`
	IgnoreInitModule          bool `yaml:"ignore_init_module" mapstructure:"ignore_init_module"`
	IgnoreInitMethod          bool `yaml:"ignore_init_method" mapstructure:"ignore_init_method"`
	IgnoreMagic               bool `yaml:"ignore_magic" mapstructure:"ignore_magic"`
	IgnorePrivate             bool `yaml:"ignore_private" mapstructure:"ignore_private"`
	IgnoreSemiprivate         bool `yaml:"ignore_semiprivate" mapstructure:"ignore_semiprivate"`
	IgnorePropertyDecorators  bool `yaml:"ignore_property_decorators" mapstructure:"ignore_property_decorators"`
	IgnoreSetters             bool `yaml:"ignore_setters" mapstructure:"ignore_setters"`
	IgnoreNestedFunctions     bool `yaml:"ignore_nested_functions" mapstructure:"ignore_nested_functions"`
	IgnoreNestedClasses       bool `yaml:"ignore_nested_classes" mapstructure:"ignore_nested_classes"`
	IgnoreOverloadedFunctions bool `yaml:"ignore_overloaded_functions" mapstructure:"ignore_overloaded_functions"`

	IgnoreRegex    []string `yaml:"ignore_regex" mapstructure:"ignore_regex"`
	WhitelistRegex []string `yaml:"whitelist_regex" mapstructure:"whitelist_regex"`
	DocstringStyle string   `yaml:"docstring_style" mapstructure:"docstring_style"` // "sphinx" or "google"

	FailUnder        float64  `yaml:"fail_under" mapstructure:"fail_under"` // 0..100
	Exclude          []string `yaml:"exclude" mapstructure:"exclude"`       // paths or glob patterns
	OmitCoveredFiles bool     `yaml:"omit_covered_files" mapstructure:"omit_covered_files"`
	Verbose          int      `yaml:"verbose" mapstructure:"verbose"` // 0, 1 or 2
	Quiet            bool     `yaml:"quiet" mapstructure:"quiet"`
	Color            bool     `yaml:"color" mapstructure:"color"`
	Output           string   `yaml:"output" mapstructure:"output"`                 // report file, "" or "-" for stdout
	GenerateBadge    string   `yaml:"generate_badge" mapstructure:"generate_badge"` // badge file or directory
	Format           string   `yaml:"format" mapstructure:"format"`                 // "text" or "json"
	Workers          int      `yaml:"workers" mapstructure:"workers"`

	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // debug, info, warn, error or a number
	Filename   string `yaml:"filename" mapstructure:"filename"`       // empty logs to stderr
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // megabytes before rotation
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // days rotated files are kept
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		IgnoreRegex:    []string{},
		WhitelistRegex: []string{},
		DocstringStyle: string(coverage.StyleSphinx),
		FailUnder:      80.0,
		Exclude:        []string{},
		Format:         FormatText,
		Workers:        4,
		Log: LogConfig{
			Level:      "warn",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// ToOptions converts the configuration into the immutable snapshot used by the
// coverage engine. Regexes are compiled here, once per run.
func (c *Config) ToOptions() (*coverage.Options, error) {
	ignore, err := coverage.CompileRegexes(c.IgnoreRegex)
	if err != nil {
		return nil, err
	}
	whitelist, err := coverage.CompileRegexes(c.WhitelistRegex)
	if err != nil {
		return nil, err
	}

	return &coverage.Options{
		IgnoreModule:              c.IgnoreModule,
		IgnoreInitModule:          c.IgnoreInitModule,
		IgnoreInitMethod:          c.IgnoreInitMethod,
		IgnoreMagic:               c.IgnoreMagic,
		IgnorePrivate:             c.IgnorePrivate,
		IgnoreSemiprivate:         c.IgnoreSemiprivate,
		IgnorePropertyDecorators:  c.IgnorePropertyDecorators,
		IgnoreSetters:             c.IgnoreSetters,
		IgnoreNestedFunctions:     c.IgnoreNestedFunctions,
		IgnoreNestedClasses:       c.IgnoreNestedClasses,
		IgnoreOverloadedFunctions: c.IgnoreOverloadedFunctions,
		IgnoreRegex:               ignore,
		WhitelistRegex:            whitelist,
		Style:                     coverage.Style(c.DocstringStyle),
	}, nil
}
