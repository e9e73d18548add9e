package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/interrogate/internal/coverage"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .interrogate.yaml and .interrogate.yml from the project root
// - Load() reads [tool.interrogate] from pyproject.toml with hyphenated keys
// - Load() ignores a pyproject.toml without an interrogate table
// - A single ignore_regex string is accepted as a one-element list
// - Environment variables override the config file
// - Changed flags override environment variables; unchanged flags do not
// - An explicit config file path is used instead of the search
// - Load() returns error for malformed YAML and for invalid values
// - Validate() rejects style, fail_under, regex, workers, verbosity, format and log problems
// - Validate() reports google style with ignore_init_method as a configuration conflict
// - Validate() returns multiple errors that remain reachable with errors.Is
// - ToOptions() compiles regexes and copies every switch
// - FindProjectRoot() stops at .git, .hg or pyproject.toml
// - WriteDefault() writes a loadable file and never overwrites

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func assertDefaults(t *testing.T, cfg *Config) {
	t.Helper()
	expected := Default()
	assert.Equal(t, expected.DocstringStyle, cfg.DocstringStyle)
	assert.Equal(t, expected.FailUnder, cfg.FailUnder)
	assert.Equal(t, expected.Format, cfg.Format)
	assert.Equal(t, expected.Workers, cfg.Workers)
	assert.Equal(t, expected.Verbose, cfg.Verbose)
	assert.Equal(t, expected.Log, cfg.Log)
	assert.False(t, cfg.IgnoreInitMethod)
	assert.Empty(t, cfg.IgnoreRegex)
	assert.Empty(t, cfg.Exclude)
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "sphinx", cfg.DocstringStyle)
	assert.Equal(t, 80.0, cfg.FailUnder)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, 0, cfg.Verbose)
	assert.False(t, cfg.IgnoreModule)
	assert.Empty(t, cfg.IgnoreRegex)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Positive(t, cfg.Workers)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	l := NewLoader(t.TempDir())
	cfg, err := l.Load()

	require.NoError(t, err)
	assertDefaults(t, cfg)
	assert.Empty(t, l.ConfigFileUsed())
}

func TestLoad_ReadsInterrogateYaml(t *testing.T) {
	t.Parallel()

	for _, name := range []string{".interrogate.yaml", ".interrogate.yml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, name), `
ignore_init_method: true
ignore_private: true
ignore_regex:
  - "^get$"
  - "^mock_.*"
fail_under: 95
exclude: ["setup.py", "docs/*"]
verbose: 2
log:
  level: debug
`)

			l := NewLoader(dir)
			cfg, err := l.Load()
			require.NoError(t, err)

			assert.True(t, cfg.IgnoreInitMethod)
			assert.True(t, cfg.IgnorePrivate)
			assert.False(t, cfg.IgnoreMagic)
			assert.Equal(t, []string{"^get$", "^mock_.*"}, cfg.IgnoreRegex)
			assert.Equal(t, 95.0, cfg.FailUnder)
			assert.Equal(t, []string{"setup.py", "docs/*"}, cfg.Exclude)
			assert.Equal(t, 2, cfg.Verbose)
			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, 10, cfg.Log.MaxSize, "unset nested keys keep defaults")
			assert.Equal(t, filepath.Join(dir, name), l.ConfigFileUsed())
		})
	}
}

func TestLoad_ReadsPyprojectTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), `
[build-system]
requires = ["setuptools"]

[tool.interrogate]
ignore-init-method = true
ignore-module = true
fail-under = 60
ignore-regex = "^test_"
whitelist-regex = ["^_keep"]
docstring-style = "sphinx"
omit-covered-files = true
`)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.True(t, cfg.IgnoreInitMethod)
	assert.True(t, cfg.IgnoreModule)
	assert.Equal(t, 60.0, cfg.FailUnder)
	assert.Equal(t, []string{"^test_"}, cfg.IgnoreRegex)
	assert.Equal(t, []string{"^_keep"}, cfg.WhitelistRegex)
	assert.True(t, cfg.OmitCoveredFiles)
}

func TestLoad_PyprojectWithoutTableUsesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.black]\nline-length = 88\n")

	l := NewLoader(dir)
	cfg, err := l.Load()
	require.NoError(t, err)
	assertDefaults(t, cfg)
	assert.Empty(t, l.ConfigFileUsed())
}

func TestLoad_YamlTakesPrecedenceOverPyproject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.interrogate]\nfail-under = 10\n")
	writeFile(t, filepath.Join(dir, ".interrogate.yaml"), "fail_under: 20\n")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 20.0, cfg.FailUnder)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".interrogate.yaml"), "fail_under: 50\nignore_magic: false\n")

	t.Setenv("INTERROGATE_FAIL_UNDER", "75.5")
	t.Setenv("INTERROGATE_IGNORE_MAGIC", "true")
	t.Setenv("INTERROGATE_LOG_LEVEL", "error")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 75.5, cfg.FailUnder)
	assert.True(t, cfg.IgnoreMagic)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".interrogate.yaml"), "fail_under: 50\nverbose: 1\n")
	t.Setenv("INTERROGATE_FAIL_UNDER", "60")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("fail-under", 80, "")
	flags.CountP("verbose", "v", "")
	flags.StringSlice("ignore-regex", nil, "")
	flags.String("log-file", "", "")
	require.NoError(t, flags.Parse([]string{"--fail-under", "90", "--ignore-regex", "^a,^b", "--log-file", "run.log"}))

	cfg, err := NewLoader(dir, WithFlags(flags)).Load()
	require.NoError(t, err)

	assert.Equal(t, 90.0, cfg.FailUnder)
	assert.Equal(t, 1, cfg.Verbose, "unchanged flag does not override the file")
	assert.Equal(t, []string{"^a", "^b"}, cfg.IgnoreRegex)
	assert.Equal(t, "run.log", cfg.Log.Filename)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".interrogate.yaml"), "fail_under: 20\n")
	custom := filepath.Join(dir, "ci", "interrogate.yaml")
	writeFile(t, custom, "fail_under: 30\n")

	l := NewLoader(dir, WithConfigFile(custom))
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.FailUnder)
	assert.Equal(t, custom, l.ConfigFileUsed())

	_, err = NewLoader(dir, WithConfigFile(filepath.Join(dir, "missing.yaml"))).Load()
	assert.Error(t, err)
}

func TestLoad_MalformedYaml(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".interrogate.yaml"), "fail_under: [unclosed\n")

	_, err := NewLoader(dir).Load()
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".interrogate.yaml"), "docstring_style: google\nignore_init_method: true\n")

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, coverage.ErrConfigConflict)
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown style", func(c *Config) { c.DocstringStyle = "numpy" }, ErrInvalidStyle},
		{"google with ignore_init_method", func(c *Config) {
			c.DocstringStyle = "google"
			c.IgnoreInitMethod = true
		}, coverage.ErrConfigConflict},
		{"fail_under above 100", func(c *Config) { c.FailUnder = 100.5 }, ErrInvalidFailUnder},
		{"fail_under negative", func(c *Config) { c.FailUnder = -1 }, ErrInvalidFailUnder},
		{"bad ignore regex", func(c *Config) { c.IgnoreRegex = []string{"("} }, ErrInvalidRegex},
		{"bad whitelist regex", func(c *Config) { c.WhitelistRegex = []string{"[a-"} }, ErrInvalidRegex},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"verbose too high", func(c *Config) { c.Verbose = 3 }, ErrInvalidVerbosity},
		{"unknown format", func(c *Config) { c.Format = "xml" }, ErrInvalidFormat},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidLogSettings},
		{"negative rotation", func(c *Config) { c.Log.MaxAge = -1 }, ErrInvalidLogSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.DocstringStyle = "numpy"
	cfg.FailUnder = 200
	cfg.Workers = -1

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.True(t, errors.Is(err, ErrInvalidStyle))
	assert.True(t, errors.Is(err, ErrInvalidFailUnder))
	assert.True(t, errors.Is(err, ErrInvalidWorkers))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("-8")
	require.NoError(t, err)
	assert.Equal(t, slog.Level(-8), level)

	_, err = ParseLevel("chatty")
	assert.ErrorIs(t, err, ErrInvalidLogSettings)
}

func TestToOptions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.IgnoreSetters = true
	cfg.IgnoreNestedClasses = true
	cfg.IgnoreRegex = []string{"^test_"}
	cfg.WhitelistRegex = []string{"^_keep$"}
	cfg.DocstringStyle = "google"

	opts, err := cfg.ToOptions()
	require.NoError(t, err)

	assert.True(t, opts.IgnoreSetters)
	assert.True(t, opts.IgnoreNestedClasses)
	assert.False(t, opts.IgnoreModule)
	assert.Equal(t, coverage.StyleGoogle, opts.Style)
	require.Len(t, opts.IgnoreRegex, 1)
	assert.True(t, opts.IgnoreRegex[0].MatchString("test_x"))
	require.Len(t, opts.WhitelistRegex, 1)
	assert.NoError(t, opts.Validate())

	cfg.IgnoreRegex = []string{"("}
	_, err = cfg.ToOptions()
	assert.Error(t, err)
}

func TestFindProjectRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "")
	writeFile(t, filepath.Join(root, "src", "pkg", "mod.py"), "")
	writeFile(t, filepath.Join(root, "tests", "test_mod.py"), "")

	got, err := FindProjectRoot([]string{filepath.Join(root, "src", "pkg")})
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = FindProjectRoot([]string{
		filepath.Join(root, "src", "pkg", "mod.py"),
		filepath.Join(root, "tests"),
	})
	require.NoError(t, err)
	assert.Equal(t, root, got)

	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.Mkdir(filepath.Join(nested, ".git"), 0o755))
	got, err = FindProjectRoot([]string{filepath.Join(nested, "mod.py")})
	require.NoError(t, err)
	assert.Equal(t, nested, got)
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigName)

	require.NoError(t, WriteDefault(path))

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, Default().FailUnder, cfg.FailUnder)
	assert.Equal(t, Default().DocstringStyle, cfg.DocstringStyle)

	assert.ErrorIs(t, WriteDefault(path), ErrConfigExists)
}
