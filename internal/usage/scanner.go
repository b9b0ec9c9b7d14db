package usage

import (
	"context"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"pybreak/internal/logging"
)

// FileReader reads candidate file content. Injected so that scanning is
// testable without touching the real filesystem.
type FileReader func(path string) ([]byte, error)

// OSFileReader reads from the filesystem rooted at dir.
func OSFileReader(dir string) FileReader {
	return func(path string) ([]byte, error) {
		return os.ReadFile(dir + string(os.PathSeparator) + path)
	}
}

// Scanner locates usages of changed elements across candidate files using
// two passes per file: a line-level regex pass and a structural walk with
// import-alias tracking.
type Scanner struct {
	reader  FileReader
	workers int
	logger  *logging.Logger
}

// NewScanner creates a scanner. workers bounds the per-candidate-file pool.
func NewScanner(reader FileReader, workers int, logger *logging.Logger) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{reader: reader, workers: workers, logger: logger}
}

// Scan applies patterns to every candidate file except excludeFile (the file
// that produced the change; self-reference is not usage). Candidate files
// are processed by a bounded worker pool; the merged result is sorted by
// (file, line) so output is deterministic regardless of completion order.
//
// A pattern that fails to compile is skipped with a warning and degrades
// recall only; the remaining patterns still run.
func (s *Scanner) Scan(ctx context.Context, patterns []Pattern, candidates []string, excludeFile string) []Location {
	compiled := s.compile(patterns)
	elements := uniqueElements(patterns)

	files := make([]string, 0, len(candidates))
	for _, f := range candidates {
		if f == excludeFile {
			continue
		}
		files = append(files, f)
	}

	results := make([][]Location, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			walker := newWalker()
			for idx := range jobs {
				results[idx] = s.scanFile(ctx, walker, files[idx], compiled, elements)
			}
		}()
	}

dispatch:
	for idx := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	var locations []Location
	for _, fileLocs := range results {
		locations = append(locations, fileLocs...)
	}
	sort.SliceStable(locations, func(i, j int) bool {
		if locations[i].FilePath != locations[j].FilePath {
			return locations[i].FilePath < locations[j].FilePath
		}
		return locations[i].Line < locations[j].Line
	})
	return locations
}

type compiledPattern struct {
	re   *regexp.Regexp
	kind Kind
}

func (s *Scanner) compile(patterns []Pattern) []compiledPattern {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			s.logger.Warn("skipping invalid search pattern", map[string]interface{}{
				"pattern": p.Expr,
				"error":   err.Error(),
			})
			continue
		}
		out = append(out, compiledPattern{re: re, kind: p.Kind})
	}
	return out
}

// uniqueElements returns the distinct element names the patterns target,
// for the structural pass.
func uniqueElements(patterns []Pattern) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		if p.Element != "" && !seen[p.Element] {
			seen[p.Element] = true
			out = append(out, p.Element)
		}
	}
	return out
}

// scanFile runs both passes over one candidate file and concatenates their
// results. Unreadable files are skipped.
func (s *Scanner) scanFile(ctx context.Context, walker *walker, filePath string, compiled []compiledPattern, elements []string) []Location {
	content, err := s.reader(filePath)
	if err != nil {
		s.logger.Debug("cannot read candidate file", map[string]interface{}{
			"file": filePath, "error": err.Error(),
		})
		return nil
	}

	lines := strings.Split(string(content), "\n")

	locations := s.textPass(filePath, lines, compiled)
	locations = append(locations, walker.structuralPass(ctx, filePath, content, lines, elements)...)
	return locations
}

// textPass matches every compiled pattern against every line, capturing a
// two-lines-before/two-after context window per hit.
func (s *Scanner) textPass(filePath string, lines []string, compiled []compiledPattern) []Location {
	var locations []Location
	for _, cp := range compiled {
		for i, line := range lines {
			if !cp.re.MatchString(line) {
				continue
			}
			locations = append(locations, Location{
				FilePath:   filePath,
				Line:       i + 1,
				Context:    contextWindow(lines, i, 2, 2),
				Kind:       cp.kind,
				Confidence: cp.kind.Confidence(),
			})
		}
	}
	return locations
}

// contextWindow joins the lines around index i (0-based), clamped to the
// file bounds.
func contextWindow(lines []string, i, before, after int) string {
	start := i - before
	if start < 0 {
		start = 0
	}
	end := i + after + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}
