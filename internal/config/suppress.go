package config

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"pybreak/internal/errors"
)

// Suppression waives reported changes for a specific element. File is a
// doublestar glob; an empty Element suppresses every change in matching
// files, and an empty File matches the element in any file.
type Suppression struct {
	File    string `yaml:"file,omitempty"`
	Element string `yaml:"element,omitempty"`
	Reason  string `yaml:"reason,omitempty"`
}

// SuppressionList is the parsed contents of a .pybreak-ignore.yaml file.
type SuppressionList struct {
	Suppressions []Suppression `yaml:"suppressions"`
}

// LoadSuppressions reads the suppression file referenced by the config.
// A missing file is not an error; it yields an empty list.
func LoadSuppressions(repoRoot, path string) (*SuppressionList, error) {
	if path == "" {
		return &SuppressionList{}, nil
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(repoRoot, path)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return &SuppressionList{}, nil
		}
		return nil, errors.Wrap(errors.ConfigInvalid, "failed to read suppression file", err)
	}

	var list SuppressionList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid, "failed to parse suppression file", err)
	}

	return &list, nil
}

// Matches reports whether a change in filePath to elementName is suppressed.
func (l *SuppressionList) Matches(filePath, elementName string) bool {
	for _, s := range l.Suppressions {
		if s.File == "" && s.Element == "" {
			continue
		}
		if s.File != "" && !matchesFile(s.File, filePath) {
			continue
		}
		if s.Element != "" && s.Element != elementName {
			continue
		}
		return true
	}
	return false
}

// matchesFile treats pattern as a doublestar glob, falling back to literal
// comparison when the pattern does not compile.
func matchesFile(pattern, filePath string) bool {
	ok, err := doublestar.Match(pattern, filePath)
	if err != nil {
		return pattern == filePath
	}
	return ok
}
