package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface
type SQLiteCache struct {
	*sqlCache
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite serializes writers
	db.SetMaxOpenConns(1)

	err = execAll(context.Background(), db,
		`CREATE TABLE IF NOT EXISTS assessment_cache (
			cache_key TEXT PRIMARY KEY,
			assessment TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessment_cache_expires_at ON assessment_cache(expires_at)`,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create SQLite schema: %w", err)
	}

	return &SQLiteCache{sqlCache: newSQLCache(db, "sqlite", logger, cleanupFreq)}, nil
}
