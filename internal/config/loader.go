package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override (INTERROGATE_FAIL_UNDER).
	EnvPrefix = "INTERROGATE"

	// DefaultConfigName is the file written by "interrogate init".
	DefaultConfigName = ".interrogate.yaml"

	pyprojectName  = "pyproject.toml"
	pyprojectTable = "tool.interrogate"
)

// configNames are searched in the project root, in order.
var configNames = []string{DefaultConfigName, ".interrogate.yml", pyprojectName}

// keys lists every configuration key. Flags bind to the same name with hyphens.
var keys = []string{
	"ignore_module",
	"ignore_init_module",
	"ignore_init_method",
	"ignore_magic",
	"ignore_private",
	"ignore_semiprivate",
	"ignore_property_decorators",
	"ignore_setters",
	"ignore_nested_functions",
	"ignore_nested_classes",
	"ignore_overloaded_functions",
	"ignore_regex",
	"whitelist_regex",
	"docstring_style",
	"fail_under",
	"exclude",
	"omit_covered_files",
	"verbose",
	"quiet",
	"color",
	"output",
	"generate_badge",
	"format",
	"workers",
	"log.level",
	"log.filename",
	"log.max_size",
	"log.max_backups",
	"log.max_age",
	"log.compress",
}

// flagNames maps keys whose flag name is not the hyphenated key.
var flagNames = map[string]string{
	"log.filename": "log-file",
}

// listKeys may be written as a single string in config files.
var listKeys = map[string]bool{
	"ignore_regex":    true,
	"whitelist_regex": true,
	"exclude":         true,
}

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file, environment variables and flags.
	// Priority: defaults → config file → environment variables → changed flags
	Load() (*Config, error)

	// ConfigFileUsed returns the config file read by the last Load, if any.
	ConfigFileUsed() string
}

// LoaderOption configures a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads path instead of searching the project root.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) { l.configFile = path }
}

// WithFlags binds command-line flags; only flags the user changed override other sources.
func WithFlags(flags *pflag.FlagSet) LoaderOption {
	return func(l *loader) { l.flags = flags }
}

type loader struct {
	rootDir    string
	configFile string
	flags      *pflag.FlagSet
	used       string
}

// NewLoader creates a new configuration loader for the given project root.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{rootDir: rootDir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *loader) ConfigFileUsed() string {
	return l.used
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., INTERROGATE_LOG_LEVEL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range keys {
		v.BindEnv(key)
	}

	setDefaults(v)

	path, err := l.findConfigFile()
	if err != nil {
		return nil, err
	}
	l.used = ""
	if path != "" {
		settings, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, fmt.Errorf("failed to merge config file %s: %w", path, err)
		}
		l.used = path
	}

	if l.flags != nil {
		for _, key := range keys {
			if flag := l.flags.Lookup(FlagName(key)); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// FlagName returns the command-line flag bound to a configuration key.
func FlagName(key string) string {
	if name, ok := flagNames[key]; ok {
		return name
	}
	return strings.NewReplacer("_", "-", ".", "-").Replace(key)
}

func (l *loader) findConfigFile() (string, error) {
	if l.configFile != "" {
		if _, err := os.Stat(l.configFile); err != nil {
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
		return l.configFile, nil
	}

	for _, name := range configNames {
		path := filepath.Join(l.rootDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if name == pyprojectName {
			ok, err := hasInterrogateTable(path)
			if err != nil {
				return "", err
			}
			if !ok {
				continue
			}
		}
		return path, nil
	}
	return "", nil
}

// readConfigFile returns the interrogate settings of path with normalized keys.
// For pyproject.toml only the [tool.interrogate] table is used.
func readConfigFile(path string) (map[string]any, error) {
	fv := viper.New()
	fv.SetConfigFile(path)
	if err := fv.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	settings := fv.AllSettings()
	if filepath.Ext(path) == ".toml" {
		settings = fv.GetStringMap(pyprojectTable)
	}
	return normalizeKeys(settings), nil
}

func hasInterrogateTable(path string) (bool, error) {
	fv := viper.New()
	fv.SetConfigFile(path)
	if err := fv.ReadInConfig(); err != nil {
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return fv.IsSet(pyprojectTable), nil
}

// normalizeKeys converts "--ignore-init-method" style keys to "ignore_init_method"
// and wraps single strings given for list keys.
func normalizeKeys(settings map[string]any) map[string]any {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		key := strings.ReplaceAll(strings.TrimPrefix(k, "--"), "-", "_")
		switch value := v.(type) {
		case map[string]any:
			out[key] = normalizeKeys(value)
		case string:
			if listKeys[key] {
				out[key] = []string{value}
			} else {
				out[key] = value
			}
		default:
			out[key] = value
		}
	}
	return out
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("ignore_module", defaults.IgnoreModule)
	v.SetDefault("ignore_init_module", defaults.IgnoreInitModule)
	v.SetDefault("ignore_init_method", defaults.IgnoreInitMethod)
	v.SetDefault("ignore_magic", defaults.IgnoreMagic)
	v.SetDefault("ignore_private", defaults.IgnorePrivate)
	v.SetDefault("ignore_semiprivate", defaults.IgnoreSemiprivate)
	v.SetDefault("ignore_property_decorators", defaults.IgnorePropertyDecorators)
	v.SetDefault("ignore_setters", defaults.IgnoreSetters)
	v.SetDefault("ignore_nested_functions", defaults.IgnoreNestedFunctions)
	v.SetDefault("ignore_nested_classes", defaults.IgnoreNestedClasses)
	v.SetDefault("ignore_overloaded_functions", defaults.IgnoreOverloadedFunctions)
	v.SetDefault("ignore_regex", defaults.IgnoreRegex)
	v.SetDefault("whitelist_regex", defaults.WhitelistRegex)
	v.SetDefault("docstring_style", defaults.DocstringStyle)

	// Reporting defaults
	v.SetDefault("fail_under", defaults.FailUnder)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("omit_covered_files", defaults.OmitCoveredFiles)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("quiet", defaults.Quiet)
	v.SetDefault("color", defaults.Color)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("generate_badge", defaults.GenerateBadge)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("workers", defaults.Workers)

	// Logging defaults
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.filename", defaults.Log.Filename)
	v.SetDefault("log.max_size", defaults.Log.MaxSize)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age", defaults.Log.MaxAge)
	v.SetDefault("log.compress", defaults.Log.Compress)
}

// FindProjectRoot returns the nearest directory, starting at the common base of
// paths, that contains .git, .hg or pyproject.toml. Without such a marker the
// common base itself is returned.
func FindProjectRoot(paths []string) (string, error) {
	if len(paths) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		paths = []string{wd}
	}

	start := ""
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			abs = filepath.Dir(abs)
		}
		start = commonDir(start, abs)
	}

	for dir := start; ; {
		for _, marker := range []string{".git", ".hg", pyprojectName} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

func commonDir(a, b string) string {
	if a == "" {
		return b
	}
	for {
		rel, err := filepath.Rel(a, b)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return a
		}
		parent := filepath.Dir(a)
		if parent == a {
			return a
		}
		a = parent
	}
}

// ErrConfigExists indicates "interrogate init" would overwrite a config file.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes the default configuration to path as YAML.
// An existing file is never overwritten.
func WriteDefault(path string) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if err := v.SafeWriteConfigAs(path); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
