package detector

import (
	"context"
	"testing"

	"pybreak/internal/breaking"
	"pybreak/internal/config"
	"pybreak/internal/errors"
	"pybreak/internal/logging"
	"pybreak/internal/report"
	"pybreak/internal/usage"
)

type fakeProvider struct {
	files     []string
	revisions map[string]map[string]string // revision -> path -> content
	err       error
}

func (f *fakeProvider) ChangedFiles(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

func (f *fakeProvider) ContentAt(_ context.Context, filePath, revision string) (string, error) {
	return f.revisions[revision][filePath], nil
}

type fakeScanner struct {
	locations []usage.Location
}

func (f *fakeScanner) Scan(context.Context, []usage.Pattern, []string, string) []usage.Location {
	return f.locations
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg.Analysis.Workers = 1
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	provider := &fakeProvider{
		files: []string{"src/client.py"},
		revisions: map[string]map[string]string{
			"origin/main": {"src/client.py": "def connect(host, port=22):\n    pass\n"},
			"HEAD":        {"src/client.py": "def connect(host):\n    pass\n"},
		},
	}
	scanner := &fakeScanner{locations: []usage.Location{
		{FilePath: "app/main.py", Line: 5, Kind: usage.KindFunctionCall, Confidence: 0.9},
	}}

	cfg := testConfig(t)
	d := New(cfg, provider, logging.NewNop(),
		WithScanner(scanner),
		WithCandidateLister(func(string, []string, []string) ([]string, error) {
			return []string{"app/main.py"}, nil
		}),
	)

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Changes) == 0 {
		t.Fatal("expected a parameter removal")
	}
	var removal *breaking.ChangeRecord
	for _, c := range result.Changes {
		if c.Kind == breaking.ParameterRemoved {
			removal = c
		}
	}
	if removal == nil {
		t.Fatalf("no parameter_removed in %+v", result.Changes)
	}
	if !removal.AffectedFiles["app/main.py"] {
		t.Errorf("impact not folded into the record: %v", removal.AffectedFiles)
	}
	if len(result.Usages[removal.Key()]) != 1 {
		t.Errorf("usages not attached under %q", removal.Key())
	}
	if result.ExitCode != report.ExitBreaking {
		t.Errorf("ExitCode = %d, want %d", result.ExitCode, report.ExitBreaking)
	}
	if result.Summary.FilesAnalyzed != 1 {
		t.Errorf("FilesAnalyzed = %d, want 1", result.Summary.FilesAnalyzed)
	}
}

func TestRunCleanRepoSkipsScan(t *testing.T) {
	provider := &fakeProvider{
		files: []string{"src/client.py"},
		revisions: map[string]map[string]string{
			"origin/main": {"src/client.py": "def f():\n    pass\n"},
			"HEAD":        {"src/client.py": "def f():\n    return 1\n"},
		},
	}

	cfg := testConfig(t)
	listed := false
	d := New(cfg, provider, logging.NewNop(),
		WithScanner(&fakeScanner{}),
		WithCandidateLister(func(string, []string, []string) ([]string, error) {
			listed = true
			return nil, nil
		}),
	)

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Changes) != 0 {
		t.Fatalf("unexpected changes: %+v", result.Changes)
	}
	if listed {
		t.Error("usage scan should be skipped when nothing broke")
	}
	if result.ExitCode != report.ExitClean {
		t.Errorf("ExitCode = %d, want %d", result.ExitCode, report.ExitClean)
	}
}

func TestRunPropagatesProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New(errors.GitUnavailable, "no repo")}

	d := New(testConfig(t), provider, logging.NewNop(), WithScanner(&fakeScanner{}))
	if _, err := d.Run(context.Background()); !errors.HasCode(err, errors.GitUnavailable) {
		t.Errorf("err = %v, want GIT_UNAVAILABLE", err)
	}
}

func TestRunIgnoreUnusedWaivesExitCode(t *testing.T) {
	provider := &fakeProvider{
		files: []string{"src/client.py"},
		revisions: map[string]map[string]string{
			"origin/main": {"src/client.py": "def connect(host, port=22):\n    pass\n"},
			"HEAD":        {"src/client.py": "def connect(host):\n    pass\n"},
		},
	}

	cfg := testConfig(t)
	cfg.Analysis.IgnoreUnused = true
	d := New(cfg, provider, logging.NewNop(),
		WithScanner(&fakeScanner{}), // finds nothing
		WithCandidateLister(func(string, []string, []string) ([]string, error) {
			return []string{"app/main.py"}, nil
		}),
	)

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Changes) == 0 {
		t.Fatal("changes should still be reported")
	}
	if result.ExitCode != report.ExitClean {
		t.Errorf("ExitCode = %d, want %d with unused changes waived", result.ExitCode, report.ExitClean)
	}
}
