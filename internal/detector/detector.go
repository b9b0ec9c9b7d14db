// Package detector runs the full analysis pipeline: resolve changed
// files, diff their structural models, and scan the codebase for call
// sites the changes break.
package detector

import (
	"context"

	"pybreak/internal/breaking"
	"pybreak/internal/config"
	"pybreak/internal/impact"
	"pybreak/internal/logging"
	"pybreak/internal/report"
	"pybreak/internal/usage"
)

// CandidateLister enumerates the files eligible for usage scanning.
type CandidateLister func(root string, include, exclude []string) ([]string, error)

// Detector owns the pipeline wiring. The content provider and cache are
// injected so the pipeline runs against fakes in tests.
type Detector struct {
	cfg        *config.Config
	provider   breaking.ContentProvider
	cache      breaking.ModelCache
	scanner    impact.UsageScanner
	candidates CandidateLister
	logger     *logging.Logger
}

type Option func(*Detector)

// WithCache installs an extraction cache.
func WithCache(cache breaking.ModelCache) Option {
	return func(d *Detector) { d.cache = cache }
}

// WithScanner replaces the default file scanner.
func WithScanner(scanner impact.UsageScanner) Option {
	return func(d *Detector) { d.scanner = scanner }
}

// WithCandidateLister replaces the default filesystem walk.
func WithCandidateLister(list CandidateLister) Option {
	return func(d *Detector) { d.candidates = list }
}

func New(cfg *config.Config, provider breaking.ContentProvider, logger *logging.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Detector{
		cfg:      cfg,
		provider: provider,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.scanner == nil {
		d.scanner = usage.NewScanner(usage.OSFileReader(cfg.RepoRoot), cfg.Analysis.Workers, logger)
	}
	if d.candidates == nil {
		d.candidates = usage.ListCandidates
	}
	return d
}

// Run executes the pipeline and returns the assembled result. Per-file
// parse and read failures degrade to warnings inside the aggregator; Run
// fails only when the repository itself cannot be analyzed.
func (d *Detector) Run(ctx context.Context) (*report.Result, error) {
	suppressions, err := config.LoadSuppressions(d.cfg.RepoRoot, d.cfg.Analysis.SuppressionFile)
	if err != nil {
		return nil, err
	}

	aggregator := breaking.NewAggregator(
		d.provider,
		d.cfg.Git.BaseRef,
		d.cfg.Git.HeadRef,
		d.cfg.Analysis.Workers,
		d.logger,
	).WithSuppressions(suppressions)
	if d.cache != nil {
		aggregator = aggregator.WithCache(d.cache)
	}

	changes, filesAnalyzed, err := aggregator.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	d.logger.Info("diff complete", map[string]interface{}{
		"filesAnalyzed": filesAnalyzed,
		"changes":       len(changes),
	})

	var usages map[string][]usage.Location
	if len(changes) > 0 {
		candidates, err := d.candidates(d.cfg.RepoRoot, d.cfg.Analysis.IncludePatterns, d.cfg.Analysis.ExcludePatterns)
		if err != nil {
			return nil, err
		}
		coordinator := impact.NewCoordinator(d.scanner, d.cfg.Analysis.ModuleRoots, d.logger)
		usages = coordinator.ComputeImpact(ctx, changes, candidates)
	}

	result := report.NewResult(
		d.cfg.Git.BaseRef,
		d.cfg.Git.HeadRef,
		changes,
		usages,
		filesAnalyzed,
		d.cfg.Analysis.IgnoreUnused,
	)
	d.logger.Info("analysis complete", map[string]interface{}{
		"runId":    result.RunID,
		"changes":  len(changes),
		"exitCode": result.ExitCode,
	})
	return result, nil
}
