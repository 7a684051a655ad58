package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mikey/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the CacheRepository interface.
// Timestamps are stored as unix milliseconds so comparisons do not depend on
// the server time zone.
type MySQLCache struct {
	db      *sql.DB
	logger  *zap.Logger
	cleaner *cleaner
	now     func() time.Time
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database %s at %s: %w", cfg.DBName, cfg.Addr, err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS classification_cache (
			cache_key CHAR(64) PRIMARY KEY,
			payload MEDIUMTEXT NOT NULL,
			model VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
	cache.cleaner = newCleaner(cleanupFreq, cache.Cleanup, logger)

	return cache, nil
}

// Get retrieves a live cache entry
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
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
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	encoded, err := encodePayload(entry.Labels, entry.Scores)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO classification_cache (cache_key, payload, model, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			payload = VALUES(payload),
			model = VALUES(model),
			created_at = VALUES(created_at),
			expires_at = VALUES(expires_at)
	`, entry.Key, encoded, entry.Model, entry.CreatedAt.UnixMilli(), entry.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
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
func (c *MySQLCache) Stop() {
	c.cleaner.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
