// Package storage persists extracted structural models between runs so
// repeated analyses of unchanged file content skip the parse step.
package storage

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"pybreak/internal/errors"
	"pybreak/internal/logging"
	"pybreak/internal/pysrc"
)

const schema = `
CREATE TABLE IF NOT EXISTS models (
	content_hash TEXT PRIMARY KEY,
	file_path    TEXT NOT NULL,
	revision     TEXT NOT NULL,
	model        BLOB NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_models_file ON models(file_path);
`

// Cache is a content-addressed model store backed by SQLite. Entries are
// keyed by a hash of the file content, so a file reverted to an earlier
// state hits the cache regardless of revision.
type Cache struct {
	conn    *sql.DB
	logger  *logging.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the cache database at dbPath, creating parent
// directories as needed.
func Open(dbPath string, logger *logging.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Wrap(errors.CacheUnavailable, "failed to create cache directory", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.CacheUnavailable, "failed to open cache database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrap(errors.CacheUnavailable, "failed to set pragma", err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(errors.CacheUnavailable, "failed to initialize cache schema", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(errors.CacheUnavailable, "failed to create zstd encoder", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		conn.Close()
		return nil, errors.Wrap(errors.CacheUnavailable, "failed to create zstd decoder", err)
	}

	return &Cache{conn: conn, logger: logger, encoder: encoder, decoder: decoder}, nil
}

func (c *Cache) Close() error {
	c.encoder.Close()
	c.decoder.Close()
	return c.conn.Close()
}

// ContentHash derives the cache key for a piece of file content.
func ContentHash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached model for the given content, if present. A row
// that fails to decompress or decode is dropped and treated as a miss.
func (c *Cache) Get(filePath, revision string, content []byte) (*pysrc.Module, bool) {
	hash := ContentHash(content)

	var blob []byte
	err := c.conn.QueryRow("SELECT model FROM models WHERE content_hash = ?", hash).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", map[string]interface{}{
			"file":  filePath,
			"error": err.Error(),
		})
		return nil, false
	}

	raw, err := c.decoder.DecodeAll(blob, nil)
	if err != nil {
		c.evict(hash, filePath, "decompress", err)
		return nil, false
	}
	var model pysrc.Module
	if err := json.Unmarshal(raw, &model); err != nil {
		c.evict(hash, filePath, "decode", err)
		return nil, false
	}

	// The cached model may have been extracted under a different path.
	model.FilePath = filePath
	return &model, true
}

// Put stores the model for the given content. Failures are logged and
// swallowed; the cache is an optimization, never a correctness dependency.
func (c *Cache) Put(filePath, revision string, content []byte, model *pysrc.Module) {
	raw, err := json.Marshal(model)
	if err != nil {
		c.logger.Warn("cache encode failed", map[string]interface{}{
			"file":  filePath,
			"error": err.Error(),
		})
		return
	}
	blob := c.encoder.EncodeAll(raw, nil)

	_, err = c.conn.Exec(
		`INSERT OR REPLACE INTO models (content_hash, file_path, revision, model, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ContentHash(content), filePath, revision, blob, time.Now().Unix(),
	)
	if err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"file":  filePath,
			"error": err.Error(),
		})
	}
}

// Prune removes entries older than maxAge and returns how many were dropped.
func (c *Cache) Prune(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := c.conn.Exec("DELETE FROM models WHERE created_at <= ?", cutoff)
	if err != nil {
		return 0, errors.Wrap(errors.CacheUnavailable, "failed to prune cache", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (c *Cache) evict(hash, filePath, stage string, cause error) {
	c.logger.Warn("corrupt cache entry evicted", map[string]interface{}{
		"file":  filePath,
		"stage": stage,
		"error": cause.Error(),
	})
	_, _ = c.conn.Exec("DELETE FROM models WHERE content_hash = ?", hash)
}
