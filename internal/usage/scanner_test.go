package usage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pybreak/internal/logging"
)

func mapReader(files map[string]string) FileReader {
	return func(path string) ([]byte, error) {
		content, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(content), nil
	}
}

func paths(files map[string]string) []string {
	out := make([]string, 0, len(files))
	for p := range files {
		out = append(out, p)
	}
	return out
}

func hasKind(locations []Location, kind Kind) bool {
	for _, l := range locations {
		if l.Kind == kind {
			return true
		}
	}
	return false
}

func filesOf(locations []Location) map[string]bool {
	out := make(map[string]bool)
	for _, l := range locations {
		out[l.FilePath] = true
	}
	return out
}

func TestScanFindsDirectImportAndCall(t *testing.T) {
	files := map[string]string{
		"app/main.py": "from net.client import connect\n\n\nconnect(\"db\", 5432)\n",
		"app/idle.py": "print('nothing relevant')\n",
	}
	patterns := GeneratePatterns("connect", "src/net/client.py", []string{"src"})

	scanner := NewScanner(mapReader(files), 2, logging.NewNop())
	locations := scanner.Scan(context.Background(), patterns, paths(files), "src/net/client.py")

	if len(locations) == 0 {
		t.Fatal("expected usages in app/main.py")
	}
	if !hasKind(locations, KindDirectImport) {
		t.Error("direct import not found")
	}
	if !hasKind(locations, KindFunctionCall) {
		t.Error("function call not found")
	}
	if filesOf(locations)["app/idle.py"] {
		t.Error("unrelated file reported")
	}
}

func TestScanSelfExclusion(t *testing.T) {
	files := map[string]string{
		"src/net/client.py": "def connect(host):\n    pass\n\nconnect('loopback')\n",
	}
	patterns := GeneratePatterns("connect", "src/net/client.py", []string{"src"})

	scanner := NewScanner(mapReader(files), 1, logging.NewNop())
	locations := scanner.Scan(context.Background(), patterns, paths(files), "src/net/client.py")

	if len(locations) != 0 {
		t.Errorf("declaring file must never appear in its own results: %v", locations)
	}
}

func TestScanWildcardImportRiskSignal(t *testing.T) {
	// The star import must be flagged even though `connect` never appears.
	files := map[string]string{
		"app/risky.py": "from net.client import *\n\nrun()\n",
	}
	patterns := GeneratePatterns("connect", "src/net/client.py", []string{"src"})

	scanner := NewScanner(mapReader(files), 1, logging.NewNop())
	locations := scanner.Scan(context.Background(), patterns, paths(files), "src/net/client.py")

	if !hasKind(locations, KindStarImport) {
		t.Error("wildcard import must always produce a star_import location")
	}
}

func TestScanResolvesImportAliases(t *testing.T) {
	files := map[string]string{
		"app/aliased.py": "import net.client as nc\n\nnc.connect('db')\n",
	}
	patterns := GeneratePatterns("connect", "src/net/client.py", []string{"src"})

	scanner := NewScanner(mapReader(files), 1, logging.NewNop())
	locations := scanner.Scan(context.Background(), patterns, paths(files), "src/net/client.py")

	if !hasKind(locations, KindMethodCall) {
		t.Errorf("alias-resolved call not detected: %v", locations)
	}
}

func TestScanSkipsUnparsableFileInStructuralPass(t *testing.T) {
	files := map[string]string{
		"app/broken.py": "def f(:\n\nconnect(\n",
	}
	patterns := GeneratePatterns("connect", "src/net/client.py", []string{"src"})

	scanner := NewScanner(mapReader(files), 1, logging.NewNop())
	locations := scanner.Scan(context.Background(), patterns, paths(files), "src/net/client.py")

	// The text pass still fires on the literal line.
	if !hasKind(locations, KindFunctionCall) {
		t.Error("text pass should survive a structural parse failure")
	}
	if hasKind(locations, KindNameReference) {
		t.Error("structural pass should be skipped for unparsable files")
	}
}

func TestScanInvalidPatternDegradesGracefully(t *testing.T) {
	files := map[string]string{
		"app/main.py": "connect('db')\n",
	}
	patterns := []Pattern{
		{Expr: `([`, Kind: KindQualifiedUsage, Element: "connect"},
		{Expr: `\bconnect\s*\(`, Kind: KindFunctionCall, Element: "connect"},
	}

	scanner := NewScanner(mapReader(files), 1, logging.NewNop())
	locations := scanner.Scan(context.Background(), patterns, paths(files), "other.py")

	if !hasKind(locations, KindFunctionCall) {
		t.Error("valid patterns must still run when another fails to compile")
	}
}

func TestScanDeterministicOrdering(t *testing.T) {
	files := map[string]string{
		"b.py": "connect(1)\n",
		"a.py": "connect(2)\nconnect(3)\n",
		"c.py": "connect(4)\n",
	}
	patterns := []Pattern{{Expr: `\bconnect\s*\(`, Kind: KindFunctionCall, Element: "connect"}}

	scanner := NewScanner(mapReader(files), 4, logging.NewNop())
	locations := scanner.Scan(context.Background(), patterns, paths(files), "zzz.py")

	for i := 1; i < len(locations); i++ {
		prev, cur := locations[i-1], locations[i]
		if prev.FilePath > cur.FilePath ||
			(prev.FilePath == cur.FilePath && prev.Line > cur.Line) {
			t.Errorf("locations not sorted by (file, line): %v then %v", prev, cur)
		}
	}
}

func TestScanContextWindow(t *testing.T) {
	files := map[string]string{
		"app/main.py": "l1\nl2\nl3\nconnect('db')\nl5\nl6\n",
	}
	patterns := []Pattern{{Expr: `\bconnect\s*\(`, Kind: KindFunctionCall, Element: "connect"}}

	scanner := NewScanner(mapReader(files), 1, logging.NewNop())
	locations := scanner.Scan(context.Background(), patterns, paths(files), "other.py")

	if len(locations) == 0 {
		t.Fatal("no match")
	}
	want := "l2\nl3\nconnect('db')\nl5\nl6"
	found := false
	for _, l := range locations {
		if l.Line != 4 {
			t.Errorf("line = %d, want 4", l.Line)
		}
		if l.Context == want {
			found = true
		}
	}
	if !found {
		t.Errorf("no location carried context %q", want)
	}
}

func TestListCandidates(t *testing.T) {
	root := t.TempDir()
	mkfile := func(rel, content string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mkfile("app/main.py", "x = 1\n")
	mkfile("app/test_main.py", "x = 1\n")
	mkfile("readme.md", "hi\n")
	mkfile("__pycache__/junk.py", "x\n")
	mkfile(".hidden/secret.py", "x\n")
	mkfile("generated/out.py", "x\n")
	mkfile(".gitignore", "generated/\n")

	include := []string{"**/*.py"}
	exclude := []string{"**/test_*.py"}

	files, err := ListCandidates(root, include, exclude)
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]bool)
	for _, f := range files {
		got[f] = true
	}

	if !got["app/main.py"] {
		t.Error("app/main.py should be listed")
	}
	for _, banned := range []string{
		"app/test_main.py", "readme.md", "__pycache__/junk.py",
		".hidden/secret.py", "generated/out.py",
	} {
		if got[banned] {
			t.Errorf("%s should be excluded", banned)
		}
	}
}

func TestShouldScanExcludeWins(t *testing.T) {
	include := []string{"**/*.py"}
	exclude := []string{"legacy/**"}

	if !ShouldScan("app/a.py", include, exclude) {
		t.Error("included file rejected")
	}
	// Excluded even though the include pattern also matches.
	if ShouldScan("legacy/a.py", include, exclude) {
		t.Error("exclude must win over include")
	}
}
