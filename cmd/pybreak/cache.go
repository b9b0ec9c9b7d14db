package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pybreak/internal/config"
	"pybreak/internal/logging"
	"pybreak/internal/storage"
)

var (
	cacheRepo   string
	cacheMaxAge time.Duration
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop cache entries older than --max-age",
	Run:   runCachePrune,
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheRepo, "repo", ".", "Repository root")
	cachePruneCmd.Flags().DurationVar(&cacheMaxAge, "max-age", 30*24*time.Hour, "Drop entries older than this")

	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePrune(cmd *cobra.Command, args []string) {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ParseLevel(logLevelFlag),
	})

	repoRoot, err := filepath.Abs(cacheRepo)
	if err != nil {
		fail(logger, err)
	}
	cfg, err := config.Load(repoRoot)
	if err != nil {
		fail(logger, err)
	}

	cache, err := storage.Open(filepath.Join(repoRoot, cfg.Cache.Path), logger)
	if err != nil {
		fail(logger, err)
	}
	defer cache.Close()

	n, err := cache.Prune(cacheMaxAge)
	if err != nil {
		fail(logger, err)
	}
	fmt.Fprintf(os.Stdout, "Pruned %d cache entr%s.\n", n, pluralY(n))
}

func pluralY(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
