package breaking

import (
	"context"
	"sort"
	"sync"

	"pybreak/internal/config"
	"pybreak/internal/logging"
	"pybreak/internal/pysrc"
)

// ContentProvider supplies changed file paths and file text at a revision.
// ContentAt returns an empty string for a file absent at the revision; it
// only fails for unreachable revisions or I/O errors.
type ContentProvider interface {
	ChangedFiles(ctx context.Context) ([]string, error)
	ContentAt(ctx context.Context, filePath, revision string) (string, error)
}

// ModelCache lets the aggregator reuse previously extracted models. A nil
// cache, a miss, or a cache failure all degrade to re-extraction.
type ModelCache interface {
	Get(filePath, revision string, content []byte) (*pysrc.Module, bool)
	Put(filePath, revision string, content []byte, m *pysrc.Module)
}

// Aggregator orchestrates extraction and diffing across all changed files.
type Aggregator struct {
	provider     ContentProvider
	baseRef      string
	headRef      string
	workers      int
	suppressions *config.SuppressionList
	cache        ModelCache
	logger       *logging.Logger
}

// NewAggregator creates an aggregator. workers bounds the per-file worker
// pool; values below 1 are treated as 1.
func NewAggregator(provider ContentProvider, baseRef, headRef string, workers int, logger *logging.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Aggregator{
		provider: provider,
		baseRef:  baseRef,
		headRef:  headRef,
		workers:  workers,
		logger:   logger,
	}
}

// WithSuppressions installs a suppression list that filters reported records.
func (a *Aggregator) WithSuppressions(list *config.SuppressionList) *Aggregator {
	a.suppressions = list
	return a
}

// WithCache installs an extraction cache.
func (a *Aggregator) WithCache(cache ModelCache) *Aggregator {
	a.cache = cache
	return a
}

// Aggregate fetches both revisions of every changed file, extracts their
// structural models, and diffs them. Changed paths are sorted
// lexicographically before processing so output order is deterministic
// regardless of worker completion order. A failure on one file is logged
// and skipped; it never aborts the run. The returned count is the number of
// files analyzed.
func (a *Aggregator) Aggregate(ctx context.Context) ([]*ChangeRecord, int, error) {
	paths, err := a.provider.ChangedFiles(ctx)
	if err != nil {
		return nil, 0, err
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	a.logger.Info("aggregating structural changes", map[string]interface{}{
		"files":   len(sorted),
		"baseRef": a.baseRef,
		"headRef": a.headRef,
		"workers": a.workers,
	})

	// One result slot per file keeps merge order stable under concurrency.
	results := make([][]*ChangeRecord, len(sorted))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			extractor := pysrc.NewExtractor()
			for idx := range jobs {
				results[idx] = a.analyzeFile(ctx, extractor, sorted[idx])
			}
		}()
	}

dispatch:
	for idx := range sorted {
		select {
		case <-ctx.Done():
			// Stop issuing work; in-flight files drain.
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	var changes []*ChangeRecord
	for _, fileChanges := range results {
		for _, c := range fileChanges {
			if a.suppressions != nil && a.suppressions.Matches(c.FilePath, c.ElementName) {
				a.logger.Debug("change suppressed", map[string]interface{}{
					"file":    c.FilePath,
					"element": c.ElementName,
				})
				continue
			}
			changes = append(changes, c)
		}
	}

	return changes, len(sorted), ctx.Err()
}

// analyzeFile produces the change records for a single changed file. A
// parse failure on one side degrades that side to an empty model; any other
// per-file failure skips the file entirely.
func (a *Aggregator) analyzeFile(ctx context.Context, extractor *pysrc.Extractor, filePath string) []*ChangeRecord {
	oldContent, err := a.provider.ContentAt(ctx, filePath, a.baseRef)
	if err != nil {
		a.logger.Warn("skipping file, base content unavailable", map[string]interface{}{
			"file": filePath, "error": err.Error(),
		})
		return nil
	}
	newContent, err := a.provider.ContentAt(ctx, filePath, a.headRef)
	if err != nil {
		a.logger.Warn("skipping file, head content unavailable", map[string]interface{}{
			"file": filePath, "error": err.Error(),
		})
		return nil
	}

	if oldContent == "" && newContent == "" {
		return nil
	}

	oldModel := a.extract(ctx, extractor, filePath, a.baseRef, oldContent)
	newModel := a.extract(ctx, extractor, filePath, a.headRef, newContent)

	return Diff(oldModel, newModel, filePath)
}

// extract returns the structural model for one side of the comparison,
// consulting the cache first. Unparsable content degrades to an empty model
// so the other side can still be compared.
func (a *Aggregator) extract(ctx context.Context, extractor *pysrc.Extractor, filePath, revision, content string) *pysrc.Module {
	raw := []byte(content)

	if a.cache != nil {
		if m, ok := a.cache.Get(filePath, revision, raw); ok {
			return m
		}
	}

	m, err := extractor.Extract(ctx, raw, filePath)
	if err != nil {
		a.logger.Warn("unparsable revision treated as empty model", map[string]interface{}{
			"file":     filePath,
			"revision": revision,
			"error":    err.Error(),
		})
		return pysrc.NewModule(filePath)
	}

	if a.cache != nil {
		a.cache.Put(filePath, revision, raw, m)
	}
	return m
}
