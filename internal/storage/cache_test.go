package storage

import (
	"path/filepath"
	"testing"

	"pybreak/internal/logging"
	"pybreak/internal/pysrc"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleModel(filePath string) *pysrc.Module {
	m := pysrc.NewModule(filePath)
	m.Functions["connect"] = &pysrc.FunctionSignature{
		Name:       "connect",
		Parameters: []string{"host", "port"},
		Defaults:   map[string]string{"port": "22"},
		Line:       3,
	}
	m.Imports["os"] = &pysrc.ImportDescriptor{Module: "os", Line: 1}
	return m
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestCache(t)
	content := []byte("def connect(host, port=22):\n    pass\n")

	if _, ok := c.Get("src/client.py", "HEAD", content); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Put("src/client.py", "HEAD", content, sampleModel("src/client.py"))

	got, ok := c.Get("src/client.py", "HEAD", content)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	fn := got.Functions["connect"]
	if fn == nil || len(fn.Parameters) != 2 || fn.Defaults["port"] != "22" {
		t.Errorf("model did not survive round trip: %+v", fn)
	}
	if got.Imports["os"] == nil {
		t.Error("imports lost in round trip")
	}
}

func TestCacheIsContentAddressed(t *testing.T) {
	c := openTestCache(t)
	content := []byte("x = 1\n")
	c.Put("a.py", "abc123", content, sampleModel("a.py"))

	// Same content under a different revision still hits.
	if _, ok := c.Get("a.py", "def456", content); !ok {
		t.Error("same content at another revision should hit")
	}
	// Different content misses.
	if _, ok := c.Get("a.py", "abc123", []byte("x = 2\n")); ok {
		t.Error("different content must miss")
	}
}

func TestCacheRewritesFilePathOnHit(t *testing.T) {
	c := openTestCache(t)
	content := []byte("y = 1\n")
	c.Put("old/name.py", "HEAD", content, sampleModel("old/name.py"))

	got, ok := c.Get("new/name.py", "HEAD", content)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.FilePath != "new/name.py" {
		t.Errorf("FilePath = %q, want caller's path", got.FilePath)
	}
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	c := openTestCache(t)
	content := []byte("z = 1\n")
	c.Put("a.py", "HEAD", content, sampleModel("a.py"))

	_, err := c.conn.Exec("UPDATE models SET model = ? WHERE content_hash = ?",
		[]byte("not zstd"), ContentHash(content))
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("a.py", "HEAD", content); ok {
		t.Fatal("corrupt entry must be a miss")
	}
	// The corrupt row is evicted, so a re-Put works cleanly.
	c.Put("a.py", "HEAD", content, sampleModel("a.py"))
	if _, ok := c.Get("a.py", "HEAD", content); !ok {
		t.Error("expected hit after re-Put over evicted entry")
	}
}

func TestCachePrune(t *testing.T) {
	c := openTestCache(t)
	c.Put("a.py", "HEAD", []byte("a = 1\n"), sampleModel("a.py"))

	n, err := c.Prune(0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}
	if _, ok := c.Get("a.py", "HEAD", []byte("a = 1\n")); ok {
		t.Error("pruned entry should miss")
	}
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash([]byte("same"))
	b := ContentHash([]byte("same"))
	if a != b {
		t.Error("hash must be deterministic")
	}
	if a == ContentHash([]byte("other")) {
		t.Error("distinct content must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
