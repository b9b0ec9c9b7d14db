package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"pybreak/internal/backends/git"
	"pybreak/internal/config"
	"pybreak/internal/detector"
	"pybreak/internal/logging"
	"pybreak/internal/pyproject"
	"pybreak/internal/report"
	"pybreak/internal/storage"
)

var (
	analyzeRepo         string
	analyzeBaseRef      string
	analyzeHeadRef      string
	analyzeJSONOutput   string
	analyzeMarkdownOut  string
	analyzeIgnoreUnused bool
	analyzeWorkers      int
	analyzeNoCache      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Detect breaking changes between two git refs",
	Long: `Compare Python signatures between two git refs and report the changes
that break callers, with the call sites each change affects.

Examples:
  pybreak analyze                                  # origin/main...HEAD
  pybreak analyze --base-ref v1.0.0 --head-ref v2.0.0
  pybreak analyze --json-output report.json --markdown-output report.md
  pybreak analyze --ignore-unused                  # pass CI when nothing calls the changed code

Exit codes: 0 no breaking changes, 1 breaking changes, 2 analysis failure.`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRepo, "repo", ".", "Repository root to analyze")
	analyzeCmd.Flags().StringVar(&analyzeBaseRef, "base-ref", "", "Base git ref (default from config, origin/main)")
	analyzeCmd.Flags().StringVar(&analyzeHeadRef, "head-ref", "", "Head git ref (default from config, HEAD)")
	analyzeCmd.Flags().StringVar(&analyzeJSONOutput, "json-output", "", "Write the JSON report to this file")
	analyzeCmd.Flags().StringVar(&analyzeMarkdownOut, "markdown-output", "", "Write the Markdown report to this file")
	analyzeCmd.Flags().BoolVar(&analyzeIgnoreUnused, "ignore-unused", false, "Do not fail on non-critical changes with no usages")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Extraction and scan parallelism (default: CPU count)")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "Skip the extraction cache")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ParseLevel(logLevelFlag),
		Output: os.Stderr,
	})

	repoRoot, err := filepath.Abs(analyzeRepo)
	if err != nil {
		fail(logger, err)
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		fail(logger, err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		fail(logger, err)
	}

	// pyproject.toml layout hints round out roots the config omits.
	if proj, err := pyproject.Load(repoRoot); err == nil {
		cfg.Analysis.ModuleRoots = mergeRoots(cfg.Analysis.ModuleRoots, proj.ModuleRoots())
	} else {
		logger.Warn("pyproject.toml unreadable", map[string]interface{}{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := git.NewProvider(repoRoot, cfg.Git.BaseRef, cfg.Git.HeadRef, logger,
		git.WithTimeout(cfg.Git.Timeout()))
	if err := provider.Verify(ctx); err != nil {
		fail(logger, err)
	}

	var opts []detector.Option
	if cfg.Cache.Enabled && !analyzeNoCache {
		cache, err := storage.Open(filepath.Join(repoRoot, cfg.Cache.Path), logger)
		if err != nil {
			logger.Warn("extraction cache unavailable, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer cache.Close()
			opts = append(opts, detector.WithCache(cache))
		}
	}

	result, err := detector.New(cfg, provider, logger, opts...).Run(ctx)
	if err != nil {
		fail(logger, err)
	}

	if err := report.WriteConsole(os.Stdout, result); err != nil {
		fail(logger, err)
	}
	if analyzeJSONOutput != "" {
		if err := writeFile(analyzeJSONOutput, result, report.WriteJSON); err != nil {
			fail(logger, err)
		}
	}
	if analyzeMarkdownOut != "" {
		if err := writeFile(analyzeMarkdownOut, result, report.WriteMarkdown); err != nil {
			fail(logger, err)
		}
	}

	os.Exit(result.ExitCode)
}

// applyFlags overlays explicitly-set CLI flags onto the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if analyzeBaseRef != "" {
		cfg.Git.BaseRef = analyzeBaseRef
	}
	if analyzeHeadRef != "" {
		cfg.Git.HeadRef = analyzeHeadRef
	}
	if analyzeWorkers > 0 {
		cfg.Analysis.Workers = analyzeWorkers
	}
	if cmd.Flags().Changed("ignore-unused") {
		cfg.Analysis.IgnoreUnused = analyzeIgnoreUnused
	}
}

func mergeRoots(configured, inferred []string) []string {
	seen := make(map[string]bool, len(configured))
	merged := append([]string{}, configured...)
	for _, r := range configured {
		seen[r] = true
	}
	for _, r := range inferred {
		if !seen[r] {
			seen[r] = true
			merged = append(merged, r)
		}
	}
	return merged
}

func writeFile(path string, result *report.Result, render func(w io.Writer, r *report.Result) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render(f, result)
}

func fail(logger *logging.Logger, err error) {
	logger.Error("analysis failed", map[string]interface{}{"error": err.Error()})
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(report.ExitError)
}
