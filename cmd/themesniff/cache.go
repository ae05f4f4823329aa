package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"themesniff/internal/config"
	"themesniff/internal/paths"
	"themesniff/internal/slogutil"
	"themesniff/internal/storage"
)

var (
	cacheRoot      string
	cacheOlderThan time.Duration
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the engine result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats <theme>",
	Short: "Show how many engine results are cached",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withCache(cmd, args[0], func(ctx context.Context, c *storage.ResultCache, path string) error {
			n, err := c.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cached results\n", path, n)
			return nil
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune <theme>",
	Short: "Delete cached results older than --older-than",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withCache(cmd, args[0], func(ctx context.Context, c *storage.ResultCache, path string) error {
			n, err := c.Prune(ctx, cacheOlderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cached results from %s\n", n, path)
			return nil
		})
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheRoot, "root", ".", "Directory containing the theme")
	cachePruneCmd.Flags().DurationVar(&cacheOlderThan, "older-than", 30*24*time.Hour, "Maximum age of kept results")
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

// withCache opens the cache configured for <root>/<theme> and runs fn.
func withCache(cmd *cobra.Command, slug string, fn func(context.Context, *storage.ResultCache, string) error) {
	root, err := filepath.Abs(cacheRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid root: %v\n", err)
		os.Exit(exitFailure)
	}
	themeDir := filepath.Join(root, slug)

	cfg, err := config.LoadConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(exitFailure)
	}

	path := cfg.Cache.Path
	if path == "" {
		path = paths.GetCachePath(themeDir)
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: no cache at %s\n", path)
		os.Exit(exitFailure)
	}

	factory := slogutil.NewLoggerFactory(themeDir, cfg, cliLevel())
	defer factory.Close()

	c, err := storage.OpenResultCache(path, factory.Logger(os.Stderr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		os.Exit(exitFailure)
	}
	defer c.Close()

	if err := fn(context.Background(), c, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
}
