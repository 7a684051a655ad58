package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface.
// Timestamps are stored as unix milliseconds.
type SQLiteCache struct {
	db      *sql.DB
	logger  *zap.Logger
	cleaner *cleaner
	now     func() time.Time
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS classification_cache (
			cache_key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_expires_at ON classification_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
	cache.cleaner = newCleaner(cleanupFreq, cache.Cleanup, logger)

	return cache, nil
}

// Get retrieves a live cache entry
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var encoded, model string
	var createdAt, expiresAt int64

	err := c.db.QueryRowContext(ctx, `
		SELECT payload, model, created_at, expires_at
		FROM classification_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, c.now().UnixMilli()).Scan(&encoded, &model, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	p, err := decodePayload(encoded)
	if err != nil {
		return nil, err
	}

	return &core.CacheEntry{
		Key:       key,
		Labels:    p.Labels,
		Scores:    p.Scores,
		Model:     model,
		CreatedAt: time.UnixMilli(createdAt),
		ExpiresAt: time.UnixMilli(expiresAt),
	}, nil
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	encoded, err := encodePayload(entry.Labels, entry.Scores)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO classification_cache (cache_key, payload, model, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.Key, encoded, entry.Model, entry.CreatedAt.UnixMilli(), entry.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM classification_cache
		WHERE cache_key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM classification_cache
		WHERE expires_at <= ?
	`, c.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	c.cleaner.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
