package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"themesniff/internal/slogutil"
	"themesniff/internal/version"
)

var (
	verbosity int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "themesniff",
	Short: "themesniff - WordPress theme checker",
	Long: `themesniff validates a WordPress theme package against coding standards
and the theme directory requirements, and reports per-file diagnostics.

The rule engine (phpcs or the builtin syntax checker) runs alongside the
style.css header, readme.txt and screenshot validators; their results are
merged into one report.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("themesniff version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
}

// cliLevel returns the log level forced by flags, or nil when the config
// should decide.
func cliLevel() *slog.Level {
	if verbosity == 0 && !quiet {
		return nil
	}
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	return &level
}
