package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/llm-email-classifier/internal/adapters/cache"
	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates cache repositories based on configuration
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

// CreateCacheRepository creates a cache repository based on the
// configuration. It returns nil when caching is disabled.
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}
	if !cacheCfg.Enabled {
		f.logger.Info("Inference cache disabled")
		return nil, nil
	}

	switch cacheCfg.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger, cacheCfg.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cacheCfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(cacheCfg.SQLitePath, f.logger, cacheCfg.CleanupFrequency)
	case "mysql":
		return cache.NewMySQLCache(cacheCfg.MySQLDSN, f.logger, cacheCfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}
