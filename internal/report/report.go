// Package report assembles analysis output into console, JSON and
// Markdown renderings.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"pybreak/internal/breaking"
	"pybreak/internal/usage"
)

// Exit codes returned by the analyze command.
const (
	ExitClean    = 0 // no breaking changes
	ExitBreaking = 1 // breaking changes found
	ExitError    = 2 // analysis could not run
)

// Result is the complete outcome of one analysis run.
type Result struct {
	RunID       string                      `json:"runId"`
	BaseRef     string                      `json:"baseRef"`
	HeadRef     string                      `json:"headRef"`
	GeneratedAt time.Time                   `json:"generatedAt"`
	Changes     []*breaking.ChangeRecord    `json:"changes"`
	Usages      map[string][]usage.Location `json:"usages"`
	Summary     *breaking.Summary           `json:"summary"`
	ExitCode    int                         `json:"exitCode"`
}

// NewResult stamps a fresh run with an identifier and derives the exit
// code from the change set. ignoreUnused waives non-critical changes
// whose affected-file set is empty.
func NewResult(baseRef, headRef string, changes []*breaking.ChangeRecord, usages map[string][]usage.Location, filesAnalyzed int, ignoreUnused bool) *Result {
	r := &Result{
		RunID:       uuid.NewString(),
		BaseRef:     baseRef,
		HeadRef:     headRef,
		GeneratedAt: time.Now().UTC(),
		Changes:     changes,
		Usages:      usages,
		Summary:     breaking.Summarize(changes, filesAnalyzed),
	}
	r.ExitCode = exitCode(changes, ignoreUnused)
	return r
}

func exitCode(changes []*breaking.ChangeRecord, ignoreUnused bool) int {
	for _, c := range changes {
		// The waiver never applies to outright removals; callers break
		// even if the scan found no usage.
		waivable := c.Kind != breaking.FunctionRemoved &&
			c.Kind != breaking.MethodRemoved &&
			c.Kind != breaking.ClassRemoved
		if ignoreUnused && waivable && len(c.AffectedFiles) == 0 {
			continue
		}
		return ExitBreaking
	}
	return ExitClean
}

// sortedChanges returns the changes ordered by severity (highest first),
// then file path, then line, so every renderer agrees on presentation
// order.
func sortedChanges(changes []*breaking.ChangeRecord) []*breaking.ChangeRecord {
	out := make([]*breaking.ChangeRecord, len(changes))
	copy(out, changes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return severityRank(out[i].Severity) > severityRank(out[j].Severity)
		}
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].ElementName < out[j].ElementName
	})
	return out
}

func severityRank(s breaking.Severity) int {
	switch s {
	case breaking.SeverityCritical:
		return 4
	case breaking.SeverityHigh:
		return 3
	case breaking.SeverityMedium:
		return 2
	case breaking.SeverityLow:
		return 1
	}
	return 0
}

// affectedFiles returns a record's affected set in sorted order.
func affectedFiles(c *breaking.ChangeRecord) []string {
	files := make([]string, 0, len(c.AffectedFiles))
	for f := range c.AffectedFiles {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
