package factory

import (
	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// ServiceFactory assembles the classification service
type ServiceFactory struct {
	cfg        *config.Config
	logger     *zap.Logger
	classifier core.ZeroShotClassifier
	cache      core.CacheRepository
}

// NewServiceFactory creates a new service factory. cache may be nil.
func NewServiceFactory(cfg *config.Config, logger *zap.Logger, classifier core.ZeroShotClassifier, cache core.CacheRepository) *ServiceFactory {
	return &ServiceFactory{
		cfg:        cfg,
		logger:     logger,
		classifier: classifier,
		cache:      cache,
	}
}

// CreateService creates the classification service with the default
// categories plus any configured under classifier.categories.
func (f *ServiceFactory) CreateService() (*core.ClassificationService, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, err
	}

	categories := core.NewCategorySet(core.DefaultCategories...)
	if extra := f.cfg.GetClassifier().Categories; len(extra) > 0 {
		added := categories.Add(extra...)
		f.logger.Info("Loaded configured categories", zap.Int("added", added))
	}

	return core.NewClassificationService(
		f.classifier,
		f.cache,
		categories,
		f.logger,
		cacheCfg.Enabled,
		cacheCfg.TTL,
	), nil
}
