// Package cli implements the interrogate command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mvp-joe/interrogate/internal/config"
)

// ErrBelowThreshold is returned when coverage is under fail_under.
var ErrBelowThreshold = errors.New("docstring coverage below threshold")

// rootOpts holds flags that are not configuration keys.
var rootOpts runOptions

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "interrogate [PATH...]",
	Short: "Measure docstring coverage of Python code",
	Long: `interrogate checks Python modules, classes, functions and methods for
docstrings and reports how many of them are documented.

PATH may be any number of Python files or directories; the current directory
is used when none is given. Configuration is read from .interrogate.yaml or the
[tool.interrogate] table of pyproject.toml in the project root, then from
INTERROGATE_* environment variables, then from flags.

The command exits with status 1 when coverage is below --fail-under.

Examples:
  # Summary table for the current project
  interrogate -v

  # Per-unit table, ignoring private names, failing under 90%
  interrogate -vv -p -s -f 90 src/

  # Regenerate the README badge on every change
  interrogate --watch -g docs/`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := rootOpts
		opts.flags = cmd.Flags()
		opts.stdout = cmd.OutOrStdout()
		opts.stderr = cmd.ErrOrStderr()
		return runInterrogate(cmd.Context(), args, opts)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrBelowThreshold) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	registerFlags(rootCmd.Flags(), &rootOpts)
}

// registerFlags defines every command-line flag. Configuration keys use the
// flag names returned by config.FlagName so the loader can bind them.
func registerFlags(fs *pflag.FlagSet, opts *runOptions) {
	d := config.Default()

	fs.StringVarP(&opts.configFile, "config", "c", "", "read configuration from this file instead of searching the project root")
	fs.BoolVar(&opts.watch, "watch", false, "re-run whenever a Python file changes")

	fs.BoolP(config.FlagName("ignore_module"), "M", d.IgnoreModule, "ignore module-level docstrings")
	fs.BoolP(config.FlagName("ignore_init_module"), "I", d.IgnoreInitModule, "ignore __init__.py modules")
	fs.BoolP(config.FlagName("ignore_init_method"), "i", d.IgnoreInitMethod, "ignore __init__ methods")
	fs.BoolP(config.FlagName("ignore_magic"), "m", d.IgnoreMagic, "ignore magic methods (__dunder__), except __init__")
	fs.BoolP(config.FlagName("ignore_private"), "p", d.IgnorePrivate, "ignore private names (__name)")
	fs.BoolP(config.FlagName("ignore_semiprivate"), "s", d.IgnoreSemiprivate, "ignore semiprivate names (_name)")
	fs.BoolP(config.FlagName("ignore_property_decorators"), "P", d.IgnorePropertyDecorators, "ignore @property getters, setters and deleters")
	fs.BoolP(config.FlagName("ignore_setters"), "S", d.IgnoreSetters, "ignore @<name>.setter methods")
	fs.BoolP(config.FlagName("ignore_nested_functions"), "n", d.IgnoreNestedFunctions, "ignore functions defined inside functions")
	fs.BoolP(config.FlagName("ignore_nested_classes"), "C", d.IgnoreNestedClasses, "ignore classes defined inside classes or functions")
	fs.BoolP(config.FlagName("ignore_overloaded_functions"), "O", d.IgnoreOverloadedFunctions, "ignore @typing.overload stubs")
	fs.StringArrayP(config.FlagName("ignore_regex"), "r", d.IgnoreRegex, "ignore names matching this regex (repeatable)")
	fs.StringArrayP(config.FlagName("whitelist_regex"), "w", d.WhitelistRegex, "always include names matching this regex (repeatable)")
	fs.String(config.FlagName("docstring_style"), d.DocstringStyle, "docstring style: sphinx or google (google merges a class with its __init__)")

	fs.Float64P(config.FlagName("fail_under"), "f", d.FailUnder, "fail when coverage is below this percentage")
	fs.StringArrayP(config.FlagName("exclude"), "e", d.Exclude, "exclude a path or glob pattern (repeatable)")
	fs.Bool(config.FlagName("omit_covered_files"), d.OmitCoveredFiles, "leave fully covered files out of the tables")
	fs.CountP(config.FlagName("verbose"), "v", "increase report detail (-v summary, -vv per unit)")
	fs.BoolP(config.FlagName("quiet"), "q", d.Quiet, "print nothing; report through the exit code only")
	fs.Bool(config.FlagName("color"), d.Color, "colorize the result line even when not writing to a terminal")
	fs.StringP(config.FlagName("output"), "o", d.Output, "write the report to this file instead of stdout")
	fs.StringP(config.FlagName("generate_badge"), "g", d.GenerateBadge, "write an SVG coverage badge to this file or directory")
	fs.String(config.FlagName("format"), d.Format, "report format: text or json")
	fs.Int(config.FlagName("workers"), d.Workers, "number of files analyzed in parallel")

	fs.String(config.FlagName("log.level"), d.Log.Level, "log level: debug, info, warn, error or a number")
	fs.String(config.FlagName("log.filename"), d.Log.Filename, "write logs to this rotated file instead of stderr")
	fs.Int(config.FlagName("log.max_size"), d.Log.MaxSize, "megabytes before the log file is rotated")
	fs.Int(config.FlagName("log.max_backups"), d.Log.MaxBackups, "rotated log files to keep")
	fs.Int(config.FlagName("log.max_age"), d.Log.MaxAge, "days to keep rotated log files")
	fs.Bool(config.FlagName("log.compress"), d.Log.Compress, "gzip rotated log files")
}
