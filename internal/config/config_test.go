package config

import (
	"os"
	"path/filepath"
	"testing"

	"pybreak/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() with no config file should succeed: %v", err)
	}

	if cfg.Git.BaseRef != "origin/main" {
		t.Errorf("BaseRef = %q, want origin/main", cfg.Git.BaseRef)
	}
	if cfg.Git.HeadRef != "HEAD" {
		t.Errorf("HeadRef = %q, want HEAD", cfg.Git.HeadRef)
	}
	if len(cfg.Analysis.IncludePatterns) == 0 {
		t.Error("IncludePatterns should have a default")
	}
	if cfg.Analysis.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", cfg.Analysis.Workers)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`git:
  baseRef: "v1.0.0"
  headRef: "v2.0.0"
analysis:
  moduleRoots: ["lib", "src"]
  ignoreUnused: true
`)
	if err := os.WriteFile(filepath.Join(dir, ".pybreak.yaml"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Git.BaseRef != "v1.0.0" || cfg.Git.HeadRef != "v2.0.0" {
		t.Errorf("refs = %q..%q, want v1.0.0..v2.0.0", cfg.Git.BaseRef, cfg.Git.HeadRef)
	}
	if len(cfg.Analysis.ModuleRoots) != 2 || cfg.Analysis.ModuleRoots[0] != "lib" {
		t.Errorf("ModuleRoots = %v", cfg.Analysis.ModuleRoots)
	}
	if !cfg.Analysis.IgnoreUnused {
		t.Error("IgnoreUnused should be true")
	}
	// Unset fields keep defaults.
	if cfg.Cache.Enabled != true {
		t.Error("Cache.Enabled default lost")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"empty base ref", func(c *Config) { c.Git.BaseRef = "" }, false},
		{"zero workers", func(c *Config) { c.Analysis.Workers = 0 }, false},
		{"no include patterns", func(c *Config) { c.Analysis.IncludePatterns = nil }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantOK && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tc.wantOK {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if errors.CodeOf(err) != errors.ConfigInvalid {
					t.Errorf("error code = %v, want CONFIG_INVALID", errors.CodeOf(err))
				}
			}
		})
	}
}

func TestSuppressions(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`suppressions:
  - file: "api/client.py"
    element: "connect"
    reason: "deprecated path, removal announced"
  - element: "legacy_helper"
  - file: "vendor_shims/**"
`)
	if err := os.WriteFile(filepath.Join(dir, ".pybreak-ignore.yaml"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := LoadSuppressions(dir, ".pybreak-ignore.yaml")
	if err != nil {
		t.Fatalf("LoadSuppressions() failed: %v", err)
	}

	tests := []struct {
		file, element string
		want          bool
	}{
		{"api/client.py", "connect", true},
		{"api/client.py", "disconnect", false},
		{"other/file.py", "connect", false},
		{"any/file.py", "legacy_helper", true},
		{"vendor_shims/deep/mod.py", "anything", true},
		{"src/mod.py", "anything", false},
	}
	for _, tc := range tests {
		if got := list.Matches(tc.file, tc.element); got != tc.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.file, tc.element, got, tc.want)
		}
	}
}

func TestSuppressionsMissingFile(t *testing.T) {
	list, err := LoadSuppressions(t.TempDir(), ".pybreak-ignore.yaml")
	if err != nil {
		t.Fatalf("missing suppression file should not error: %v", err)
	}
	if list.Matches("a.py", "f") {
		t.Error("empty list should match nothing")
	}
}
