package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"pybreak/internal/breaking"
)

// WriteJSON renders the result as indented JSON.
func WriteJSON(w io.Writer, r *Result) error {
	out := *r
	out.Changes = sortedChanges(r.Changes)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&out)
}

// WriteConsole renders a human-readable summary.
func WriteConsole(w io.Writer, r *Result) error {
	fmt.Fprintf(w, "pybreak %s...%s\n\n", r.BaseRef, r.HeadRef)

	if len(r.Changes) == 0 {
		fmt.Fprintf(w, "No breaking changes in %d analyzed file(s).\n", r.Summary.FilesAnalyzed)
		return nil
	}

	for _, c := range sortedChanges(r.Changes) {
		fmt.Fprintf(w, "[%s] %s %s:%d %s\n", strings.ToUpper(string(c.Severity)), c.Kind, c.FilePath, c.Line, c.ElementName)
		if c.OldSignature != "" {
			fmt.Fprintf(w, "  old: %s\n", c.OldSignature)
		}
		if c.NewSignature != "" {
			fmt.Fprintf(w, "  new: %s\n", c.NewSignature)
		}
		if c.Description != "" {
			fmt.Fprintf(w, "  %s\n", c.Description)
		}
		if files := affectedFiles(c); len(files) > 0 {
			fmt.Fprintf(w, "  affects: %s\n", strings.Join(files, ", "))
		} else {
			fmt.Fprintln(w, "  affects: no usages found")
		}
		fmt.Fprintln(w)
	}

	writeSummaryLines(w, r.Summary)
	return nil
}

// WriteMarkdown renders the result as a Markdown report suitable for a
// pull-request comment.
func WriteMarkdown(w io.Writer, r *Result) error {
	fmt.Fprintf(w, "# Breaking Change Report\n\n")
	fmt.Fprintf(w, "Comparing `%s` to `%s` (run `%s`).\n\n", r.BaseRef, r.HeadRef, r.RunID)

	if len(r.Changes) == 0 {
		fmt.Fprintf(w, "No breaking changes in %d analyzed file(s). :white_check_mark:\n", r.Summary.FilesAnalyzed)
		return nil
	}

	fmt.Fprintln(w, "| Severity | Kind | Location | Element | Affected files |")
	fmt.Fprintln(w, "|---|---|---|---|---|")
	for _, c := range sortedChanges(r.Changes) {
		affected := "none"
		if files := affectedFiles(c); len(files) > 0 {
			affected = strings.Join(files, "<br>")
		}
		fmt.Fprintf(w, "| %s | %s | `%s:%d` | `%s` | %s |\n",
			c.Severity, c.Kind, c.FilePath, c.Line, c.ElementName, affected)
	}
	fmt.Fprintln(w)

	for _, c := range sortedChanges(r.Changes) {
		if c.OldSignature == "" && c.NewSignature == "" {
			continue
		}
		fmt.Fprintf(w, "## `%s`\n\n", c.ElementName)
		fmt.Fprintln(w, "```python")
		if c.OldSignature != "" {
			fmt.Fprintf(w, "- %s\n", c.OldSignature)
		}
		if c.NewSignature != "" {
			fmt.Fprintf(w, "+ %s\n", c.NewSignature)
		}
		fmt.Fprintln(w, "```")
		fmt.Fprintln(w)
		if usages := r.Usages[c.Key()]; len(usages) > 0 {
			fmt.Fprintf(w, "%d usage(s) found:\n\n", len(usages))
			for _, u := range usages {
				fmt.Fprintf(w, "- `%s:%d` (%s, confidence %.1f)\n", u.FilePath, u.Line, u.Kind, u.Confidence)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w, "## Summary")
	fmt.Fprintln(w)
	writeSummaryLines(w, r.Summary)
	return nil
}

func writeSummaryLines(w io.Writer, s *breaking.Summary) {
	fmt.Fprintf(w, "%d change(s) across %d analyzed file(s).\n", s.TotalChanges, s.FilesAnalyzed)
	for _, sev := range sortedCountKeys(s.BySeverity) {
		fmt.Fprintf(w, "  %s: %d\n", sev, s.BySeverity[sev])
	}
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
