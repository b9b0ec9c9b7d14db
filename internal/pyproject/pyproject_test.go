package pyproject

import (
	"os"
	"path/filepath"
	"testing"
)

func writeToml(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadMissingFile(t *testing.T) {
	p, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("missing pyproject.toml should not error: %v", err)
	}
	if roots := p.ModuleRoots(); len(roots) != 0 {
		t.Errorf("empty project has no roots, got %v", roots)
	}
	if p.Name() != "" {
		t.Errorf("empty project has no name, got %q", p.Name())
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := writeToml(t, "[project\nname = broken")
	if _, err := Load(dir); err == nil {
		t.Error("malformed toml should error")
	}
}

func TestSetuptoolsSrcLayout(t *testing.T) {
	dir := writeToml(t, `
[project]
name = "netkit"

[tool.setuptools.package-dir]
"" = "src"

[tool.setuptools.packages.find]
where = ["src", "plugins"]
`)
	p, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "netkit" {
		t.Errorf("Name() = %q, want netkit", p.Name())
	}
	roots := p.ModuleRoots()
	want := []string{"plugins", "src"}
	if len(roots) != len(want) {
		t.Fatalf("roots = %v, want %v", roots, want)
	}
	for i := range want {
		if roots[i] != want[i] {
			t.Errorf("roots[%d] = %q, want %q", i, roots[i], want[i])
		}
	}
}

func TestPoetryLayout(t *testing.T) {
	dir := writeToml(t, `
[tool.poetry]
name = "netkit"

[[tool.poetry.packages]]
include = "netkit"
from = "lib"

[[tool.poetry.packages]]
include = "extras"
`)
	p, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "netkit" {
		t.Errorf("Name() = %q, want netkit", p.Name())
	}
	roots := p.ModuleRoots()
	if len(roots) != 1 || roots[0] != "lib" {
		t.Errorf("roots = %v, want [lib]", roots)
	}
}

func TestFlatLayoutHasNoRoots(t *testing.T) {
	dir := writeToml(t, `
[project]
name = "flatpkg"
`)
	p, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if roots := p.ModuleRoots(); len(roots) != 0 {
		t.Errorf("flat layout should yield no roots, got %v", roots)
	}
}
