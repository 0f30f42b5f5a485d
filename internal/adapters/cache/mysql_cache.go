package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the VerdictCache interface
type MySQLCache struct {
	db       *sql.DB
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	mysqlCfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	// DATETIME columns scan straight into time.Time
	mysqlCfg.ParseTime = true
	mysqlCfg.Loc = time.UTC

	connector, err := mysql.NewConnector(mysqlCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create MySQL connector: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_cache (
			fingerprint CHAR(64) PRIMARY KEY,
			kind VARCHAR(16) NOT NULL,
			prediction VARCHAR(16) NOT NULL,
			label VARCHAR(255) NOT NULL,
			probability DOUBLE NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			INDEX idx_verdict_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:     db,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go startCleanupTask(cache, cleanupFreq, cache.stopCh, logger)
	}

	return cache, nil
}

// Get retrieves a cached entry for a fingerprint
func (c *MySQLCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	var entry core.CacheEntry
	var kind, prediction string

	err := c.db.QueryRowContext(ctx, `
		SELECT fingerprint, kind, prediction, label, probability, created_at, expires_at
		FROM verdict_cache
		WHERE fingerprint = ? AND expires_at > UTC_TIMESTAMP()
	`, fingerprint).Scan(&entry.Fingerprint, &kind, &prediction, &entry.Label, &entry.Probability,
		&entry.CreatedAt, &entry.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry.Kind = core.AnalysisKind(kind)
	entry.Prediction = core.Verdict(prediction)
	return &entry, nil
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	label := entry.Label
	if len(label) > 255 {
		label = label[:255]
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO verdict_cache (fingerprint, kind, prediction, label, probability, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			kind = VALUES(kind),
			prediction = VALUES(prediction),
			label = VALUES(label),
			probability = VALUES(probability),
			created_at = VALUES(created_at),
			expires_at = VALUES(expires_at)
	`, entry.Fingerprint, string(entry.Kind), string(entry.Prediction), label, entry.Probability,
		entry.CreatedAt.UTC(), entry.ExpiresAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, fingerprint string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM verdict_cache
		WHERE expires_at <= UTC_TIMESTAMP()
	`)

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
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
