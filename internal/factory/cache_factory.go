package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/phishguard/internal/adapters/cache"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// VerdictCache is a cache adapter together with its shutdown hook
type VerdictCache interface {
	core.VerdictCache
	Stop()
}

// CacheFactory creates verdict caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVerdictCache creates the configured cache, or nil when caching is disabled
func (f *CacheFactory) CreateVerdictCache() (VerdictCache, error) {
	if !f.cfg.GetBool("cache.enabled") {
		return nil, nil
	}

	cacheType := f.cfg.GetString("cache.type")
	cleanupFreq, err := f.cfg.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	f.logger.Info("Verdict cache enabled", zap.String("type", cacheType), zap.Duration("cleanup_frequency", cleanupFreq))

	switch cacheType {
	case "memory":
		return cache.NewMemoryCache(f.logger, cleanupFreq), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("cache.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(sqlitePath, f.logger, cleanupFreq)
	case "mysql":
		return cache.NewMySQLCache(f.cfg.GetString("cache.mysql_dsn"), f.logger, cleanupFreq)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}
