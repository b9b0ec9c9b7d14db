package usage

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// skipDirs are directory names never worth scanning.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
	"vendor":       true,
}

// ListCandidates walks root and returns the repo-relative paths of files
// eligible for usage scanning, sorted lexicographically. Hidden
// directories, well-known junk directories, and paths matched by the
// repository's .gitignore are skipped. The include/exclude globs are
// evaluated exclude-first: a file matching any exclude pattern is dropped
// even when an include pattern also matches it.
func ListCandidates(root string, include, exclude []string) ([]string, error) {
	ignore, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		// No .gitignore is the common case; fall back to no ignore rules.
		ignore = nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		if ShouldScan(rel, include, exclude) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ShouldScan applies the exclude-then-include glob policy to one
// repo-relative path.
func ShouldScan(rel string, include, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
