package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/llm-scam-detector/internal/core"
	"go.uber.org/zap"
)

// Statements shared by the SQLite and MySQL caches. Both dialects accept
// REPLACE INTO and ? placeholders. Timestamps are unix milliseconds.
const (
	selectEntrySQL  = `SELECT assessment, created_at, expires_at FROM assessment_cache WHERE cache_key = ? AND expires_at > ?`
	replaceEntrySQL = `REPLACE INTO assessment_cache (cache_key, assessment, created_at, expires_at) VALUES (?, ?, ?, ?)`
	deleteEntrySQL  = `DELETE FROM assessment_cache WHERE cache_key = ?`
	cleanupSQL      = `DELETE FROM assessment_cache WHERE expires_at <= ?`
)

// sqlCache implements CacheRepository on top of database/sql
type sqlCache struct {
	db      *sql.DB
	name    string
	logger  *zap.Logger
	janitor *janitor
	now     func() time.Time
}

func newSQLCache(db *sql.DB, name string, logger *zap.Logger, cleanupFreq time.Duration) *sqlCache {
	c := &sqlCache{
		db:     db,
		name:   name,
		logger: logger,
		now:    time.Now,
	}
	c.janitor = startJanitor(c, cleanupFreq, logger)
	return c
}

// Get retrieves a cached entry
func (c *sqlCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var assessment string
	var createdAt, expiresAt int64

	err := c.db.QueryRowContext(ctx, selectEntrySQL, key, c.now().UnixMilli()).
		Scan(&assessment, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query %s cache: %w", c.name, err)
	}

	var result core.RiskAssessment
	if err := json.Unmarshal([]byte(assessment), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached assessment: %w", err)
	}

	return &core.CacheEntry{
		Key:        key,
		Assessment: &result,
		CreatedAt:  time.UnixMilli(createdAt),
		ExpiresAt:  time.UnixMilli(expiresAt),
	}, nil
}

// Set stores a cache entry
func (c *sqlCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	data, err := json.Marshal(entry.Assessment)
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}

	_, err = c.db.ExecContext(ctx, replaceEntrySQL,
		entry.Key, string(data), entry.CreatedAt.UnixMilli(), entry.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert %s cache entry: %w", c.name, err)
	}
	return nil
}

// Delete removes a cache entry
func (c *sqlCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, deleteEntrySQL, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *sqlCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, cleanupSQL, c.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries",
			zap.String("backend", c.name),
			zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (c *sqlCache) Stop() {
	c.janitor.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.String("backend", c.name), zap.Error(err))
	}
}

func execAll(ctx context.Context, db *sql.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
