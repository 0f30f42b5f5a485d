package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the VerdictCache interface.
// Timestamps are stored as unix seconds.
type SQLiteCache struct {
	db       *sql.DB
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_cache (
			fingerprint TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			prediction TEXT NOT NULL,
			label TEXT NOT NULL,
			probability REAL NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_verdict_expires_at ON verdict_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:     db,
		logger: logger,
		stopCh: make(chan struct{}),
		now:    time.Now,
	}

	if cleanupFreq > 0 {
		go startCleanupTask(cache, cleanupFreq, cache.stopCh, logger)
	}

	return cache, nil
}

// Get retrieves a cached entry for a fingerprint
func (c *SQLiteCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	var entry core.CacheEntry
	var kind, prediction string
	var createdAt, expiresAt int64

	err := c.db.QueryRowContext(ctx, `
		SELECT fingerprint, kind, prediction, label, probability, created_at, expires_at
		FROM verdict_cache
		WHERE fingerprint = ? AND expires_at > ?
	`, fingerprint, c.now().Unix()).Scan(
		&entry.Fingerprint, &kind, &prediction, &entry.Label, &entry.Probability, &createdAt, &expiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry.Kind = core.AnalysisKind(kind)
	entry.Prediction = core.Verdict(prediction)
	entry.CreatedAt = time.Unix(createdAt, 0)
	entry.ExpiresAt = time.Unix(expiresAt, 0)
	return &entry, nil
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO verdict_cache (fingerprint, kind, prediction, label, probability, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Fingerprint, string(entry.Kind), string(entry.Prediction), entry.Label, entry.Probability,
		entry.CreatedAt.Unix(), entry.ExpiresAt.Unix())

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, fingerprint string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM verdict_cache
		WHERE fingerprint = ?
	`, fingerprint)

	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM verdict_cache
		WHERE expires_at <= ?
	`, c.now().Unix())

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
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
