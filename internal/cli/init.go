package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/interrogate/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Write a default .interrogate.yaml",
	Long: `Write a .interrogate.yaml with every option at its default value to DIR
(default: the current directory). An existing file is left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runInit(cmd.OutOrStdout(), dir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(out io.Writer, dir string) error {
	path := filepath.Join(dir, config.DefaultConfigName)
	if err := config.WriteDefault(path); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("%s already exists", path)
		}
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
