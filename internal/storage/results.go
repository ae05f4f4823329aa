package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"

	"themesniff/internal/diagnostics"
)

// Entry is one cached engine verdict for a single file.
type Entry struct {
	File    diagnostics.FileDiagnostics
	Fixable int
}

// ResultCache stores per-file engine output as zstd-compressed JSON. It is
// not a report history: only engine results are kept, keyed by content.
type ResultCache struct {
	db      *DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewResultCache wraps an open database.
func NewResultCache(db *DB) (*ResultCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ResultCache{db: db, encoder: enc, decoder: dec}, nil
}

// OpenResultCache opens the database at path and wraps it.
func OpenResultCache(path string, logger *slog.Logger) (*ResultCache, error) {
	d, err := Open(path, logger)
	if err != nil {
		return nil, err
	}
	rc, err := NewResultCache(d)
	if err != nil {
		d.Close()
		return nil, err
	}
	return rc, nil
}

// Key derives the cache key for a file from its path, content and the engine
// configuration fingerprint.
func Key(path string, content []byte, fingerprint string) string {
	h, _ := blake2b.New256(nil) // nil key never fails
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached entry for key, or nil on a miss.
func (c *ResultCache) Get(ctx context.Context, key string) (*Entry, error) {
	var payload []byte
	var fixable int

	err := c.db.conn.QueryRowContext(ctx,
		`SELECT payload, fixable FROM engine_results WHERE key = ?`, key).
		Scan(&payload, &fixable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("engine result lookup failed: %w", err)
	}

	raw, err := c.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress engine result: %w", err)
	}

	var fd diagnostics.FileDiagnostics
	if err := json.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("failed to decode engine result: %w", err)
	}
	return &Entry{File: fd.Clone(), Fixable: fixable}, nil
}

// Put stores an entry, replacing any previous one under the same key.
func (c *ResultCache) Put(ctx context.Context, key, engine string, e Entry) error {
	raw, err := json.Marshal(e.File)
	if err != nil {
		return fmt.Errorf("failed to encode engine result: %w", err)
	}
	payload := c.encoder.EncodeAll(raw, nil)

	_, err = c.db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO engine_results (key, engine, fixable, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, key, engine, e.Fixable, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store engine result: %w", err)
	}
	return nil
}

// PutAll stores entries in a single transaction.
func (c *ResultCache) PutAll(ctx context.Context, engine string, entries map[string]Entry) error {
	return c.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO engine_results (key, engine, fixable, payload, created_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC().Format(time.RFC3339)
		for key, e := range entries {
			raw, err := json.Marshal(e.File)
			if err != nil {
				return fmt.Errorf("failed to encode engine result: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, key, engine, e.Fixable, c.encoder.EncodeAll(raw, nil), now); err != nil {
				return fmt.Errorf("failed to store engine result: %w", err)
			}
		}
		return nil
	})
}

// Prune deletes entries older than maxAge and returns how many were removed.
func (c *ResultCache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)
	res, err := c.db.conn.ExecContext(ctx, `DELETE FROM engine_results WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune engine results: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of cached entries.
func (c *ResultCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM engine_results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count engine results: %w", err)
	}
	return n, nil
}

// Close releases the codec and the database.
func (c *ResultCache) Close() error {
	c.encoder.Close()
	c.decoder.Close()
	return c.db.Close()
}
