package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"themesniff/internal/config"
	"themesniff/internal/errors"
	"themesniff/internal/runconfig"
	"themesniff/internal/slogutil"
	"themesniff/internal/sniffer"
)

// Process exit codes.
const (
	exitPass      = 0
	exitFailure   = 1
	exitHasErrors = 2
)

var (
	runRoot              string
	runStandards         []string
	runPrefixes          string
	runMinPHP            string
	runHideWarnings      bool
	runIgnoreAnnotations bool
	runRaw               bool
	runEngine            string
	runCache             bool
	runFormat            string
)

var runCmd = &cobra.Command{
	Use:   "run <theme>",
	Short: "Check a theme",
	Long: `Check the theme directory <root>/<theme>.

Standards are registry ids (see "themesniff standards"); unknown ids are
reported as warnings and skipped.

Exit codes:
  0  the report has no errors
  1  the check could not run
  2  the report contains errors

Examples:
  themesniff run twentytwenty --root ./wp-content/themes
  themesniff run mytheme --standards wordpress-theme,wordpress-extra --min-php 7.4
  themesniff run mytheme --raw
  themesniff run mytheme -o sarif > report.sarif`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runRoot, "root", ".", "Directory containing the theme")
	runCmd.Flags().StringSliceVar(&runStandards, "standards", nil, "Standard ids to apply (default from config)")
	runCmd.Flags().StringVar(&runPrefixes, "prefixes", "", "Comma-separated global prefixes the theme must use")
	runCmd.Flags().StringVar(&runMinPHP, "min-php", "", "Minimum supported PHP version (default from config)")
	runCmd.Flags().BoolVar(&runHideWarnings, "hide-warnings", false, "Report errors only")
	runCmd.Flags().BoolVar(&runIgnoreAnnotations, "ignore-annotations", false, "Ignore phpcs:ignore annotations in the theme")
	runCmd.Flags().BoolVar(&runRaw, "raw", false, "Print the engine's own report and skip the other validators")
	runCmd.Flags().StringVar(&runEngine, "engine", "", "Rule engine: phpcs or builtin (default from config)")
	runCmd.Flags().BoolVar(&runCache, "cache", false, "Reuse engine results for unchanged files")
	runCmd.Flags().StringVarP(&runFormat, "output", "o", "json", "Output format (json, human, sarif)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) {
	os.Exit(executeRun(cmd, args[0]))
}

// executeRun performs the check and writes the report to stdout. It returns
// the process exit code.
func executeRun(cmd *cobra.Command, slug string) int {
	stderr := cmd.ErrOrStderr()

	root, err := filepath.Abs(runRoot)
	if err != nil {
		return writeFailure(cmd, asConfigError("The theme root is invalid.", err), "")
	}
	themeDir := filepath.Join(root, slug)

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return writeFailure(cmd, asConfigError("The configuration could not be loaded.", err), themeDir)
	}
	applyRunOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return writeFailure(cmd, asConfigError("The configuration is invalid.", err), themeDir)
	}

	factory := slogutil.NewLoggerFactory(themeDir, cfg, cliLevel())
	defer factory.Close()
	logger := factory.Logger(stderr)

	s, closeCache, err := sniffer.Build(cfg, themeDir, logger)
	if err != nil {
		return writeFailure(cmd, err, themeDir)
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resp := s.Run(ctx, runconfig.Flags{
		ThemeRoot:         root,
		ThemeSlug:         slug,
		Standards:         cfg.Standards,
		Prefixes:          runPrefixes,
		MinPHPVersion:     cfg.MinimumPHPVersion,
		HideWarnings:      runHideWarnings,
		IgnoreAnnotations: runIgnoreAnnotations,
		Raw:               runRaw,
		Parallelism:       cfg.Engine.Parallelism,
		IgnoredPatterns:   cfg.IgnoredPatterns,
	})
	return writeResponse(cmd, resp, themeDir)
}

// writeResponse prints resp in the selected format and returns the exit code.
func writeResponse(cmd *cobra.Command, resp *sniffer.Response, themeDir string) int {
	out, err := FormatResponse(resp, OutputFormat(runFormat), themeDir)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error formatting output: %v\n", err)
		return exitFailure
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return exitCode(resp)
}

// writeFailure reports an error that stopped the run before it started in
// the same envelope as a failed run.
func writeFailure(cmd *cobra.Command, err error, themeDir string) int {
	writeResponse(cmd, sniffer.Failure(err), themeDir)
	return exitFailure
}

// asConfigError gives plain errors the CONFIG_ERROR code. The cause is kept
// in the message since it names the offending setting.
func asConfigError(msg string, err error) error {
	if errors.CodeOf(err) != errors.InternalError {
		return err
	}
	return errors.New(errors.ConfigError, msg+" "+err.Error(), err)
}

// applyRunOverrides lets explicitly set flags win over config and env.
func applyRunOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("standards") {
		cfg.Standards = normaliseIDs(runStandards)
	}
	if flags.Changed("min-php") {
		cfg.MinimumPHPVersion = runMinPHP
	}
	if flags.Changed("engine") {
		cfg.Engine.Kind = runEngine
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = runCache
	}
}

func normaliseIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func exitCode(resp *sniffer.Response) int {
	switch {
	case !resp.Success:
		return exitFailure
	case resp.HasErrors():
		return exitHasErrors
	default:
		return exitPass
	}
}
