// Package pyproject reads layout hints out of a repository's
// pyproject.toml so module paths resolve the way the project's own
// imports do.
package pyproject

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Project is the subset of pyproject.toml that affects import layout.
type Project struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Setuptools struct {
			PackageDir map[string]string `toml:"package-dir"`
			Packages   struct {
				Find struct {
					Where []string `toml:"where"`
				} `toml:"find"`
			} `toml:"packages"`
		} `toml:"setuptools"`
		Poetry struct {
			Name     string `toml:"name"`
			Packages []struct {
				Include string `toml:"include"`
				From    string `toml:"from"`
			} `toml:"packages"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Load parses repoRoot/pyproject.toml. A missing file returns an empty
// project; a malformed one returns the decode error.
func Load(repoRoot string) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, "pyproject.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Project{}, nil
		}
		return nil, err
	}
	var p Project
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ModuleRoots returns the source roots declared by the build backend,
// most specific first. Roots are returned as repo-relative slash paths
// with no duplicates; an empty result means the repository root itself
// is the import root.
func (p *Project) ModuleRoots() []string {
	seen := make(map[string]bool)
	var roots []string
	add := func(root string) {
		root = strings.Trim(strings.TrimSpace(filepath.ToSlash(root)), "/")
		if root == "" || root == "." || seen[root] {
			return
		}
		seen[root] = true
		roots = append(roots, root)
	}

	for _, dir := range p.Tool.Setuptools.PackageDir {
		add(dir)
	}
	for _, where := range p.Tool.Setuptools.Packages.Find.Where {
		add(where)
	}
	for _, pkg := range p.Tool.Poetry.Packages {
		add(pkg.From)
	}

	sort.Strings(roots)
	return roots
}

// Name returns the declared project name, preferring PEP 621 metadata
// over the poetry section.
func (p *Project) Name() string {
	if p.Project.Name != "" {
		return p.Project.Name
	}
	return p.Tool.Poetry.Name
}
