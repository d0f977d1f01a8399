// Package main provides the entry point for the keydiff comparison tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TFMV/keydiff/config"
	"github.com/TFMV/keydiff/logger"
	"github.com/TFMV/keydiff/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit statuses.
const (
	exitOK          = 0
	exitError       = 1
	exitDifferences = 2
)

// errDifferences is returned by the diff command when --fail-on-diff is set
// and the inputs differ.
var errDifferences = errors.New("inputs differ")

// app carries state shared by the subcommands of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	opts       *config.Options
}

// Main entry point for the keydiff tool
func main() {
	code := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	logger.Sync()
	os.Exit(code)
}

// run executes the command line and maps the outcome to an exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errDifferences):
		return exitDifferences
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "keydiff",
		Short: "keydiff compares two tabular files by key column",
		Long: `keydiff compares two tabular files, "orig" and "diff", row by row using
a designated key column. Rows are matched by key value rather than line
position and reported as added, removed, changed or unchanged.

Inputs may be CSV, TSV, Arrow IPC or Parquet; every field is compared as text.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Also write JSON logs to this file")
	bindFlags(a.v, flags, map[string]string{
		"log_level": "log-level",
		"log_file":  "log-file",
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of keydiff",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})
	rootCmd.AddCommand(newDiffCommand(a))
	rootCmd.AddCommand(newServeCommand(a))

	return rootCmd
}

// load resolves configuration and sets up logging.
func (a *app) load(cmd *cobra.Command) error {
	opts, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.opts = opts

	logger.SetOutput(cmd.ErrOrStderr())
	if err := logger.SetLevel(opts.LogLevel); err != nil {
		return err
	}
	if opts.LogFile != "" {
		logger.SetLogPath(opts.LogFile)
	}
	return nil
}
