// Package impact connects detected signature changes to the call sites
// that depend on them.
package impact

import (
	"context"
	"sort"

	"pybreak/internal/breaking"
	"pybreak/internal/logging"
	"pybreak/internal/usage"
)

// UsageScanner finds locations matching a set of usage patterns.
// This interface allows the coordinator to run against the regex/tree-sitter
// scanner in production and a fake in tests.
type UsageScanner interface {
	Scan(ctx context.Context, patterns []usage.Pattern, candidates []string, excludeFile string) []usage.Location
}

// Coordinator fans each change record out to a usage scan and folds the
// resulting locations back into the record.
type Coordinator struct {
	scanner     UsageScanner
	moduleRoots []string
	logger      *logging.Logger
}

func NewCoordinator(scanner UsageScanner, moduleRoots []string, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		scanner:     scanner,
		moduleRoots: moduleRoots,
		logger:      logger,
	}
}

// ComputeImpact scans the candidate files for usages of every changed
// element. The result maps each record's key ("<file>:<element>") to the
// locations that reference it; a change with no usages still gets an entry
// so callers can distinguish "unused" from "not analyzed". Each record's
// AffectedFiles set is populated as a side effect.
func (c *Coordinator) ComputeImpact(ctx context.Context, changes []*breaking.ChangeRecord, candidates []string) map[string][]usage.Location {
	usages := make(map[string][]usage.Location, len(changes))

	// Identical (file, element) pairs share one scan. A class removal and
	// the removals of its methods are distinct elements and scan separately.
	scanned := make(map[string][]usage.Location)

	for _, change := range changes {
		if ctx.Err() != nil {
			break
		}
		key := change.Key()
		locations, ok := scanned[key]
		if !ok {
			patterns := usage.GeneratePatterns(change.ElementName, change.FilePath, c.moduleRoots)
			locations = c.scanner.Scan(ctx, patterns, candidates, change.FilePath)
			scanned[key] = locations
		}
		usages[key] = locations

		for _, loc := range locations {
			change.AffectedFiles[loc.FilePath] = true
		}
		c.logger.Debug("impact computed", map[string]interface{}{
			"element": change.ElementName,
			"file":    change.FilePath,
			"usages":  len(locations),
			"files":   len(change.AffectedFiles),
		})
	}
	return usages
}

// AffectedFileList returns the union of affected files across all records,
// sorted for stable output.
func AffectedFileList(changes []*breaking.ChangeRecord) []string {
	set := make(map[string]bool)
	for _, change := range changes {
		for f := range change.AffectedFiles {
			set[f] = true
		}
	}
	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
