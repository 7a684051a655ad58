package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/factory"
	"github.com/mikey/llm-email-classifier/internal/logging"
	"github.com/mikey/llm-email-classifier/internal/utils"
)

// BuildContainer creates the dependency injection container for the SMTP
// filter daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideClassification(container); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) core.EmailFilter {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideClassification registers everything from the text processor up to
// the classification service. Config and logger must already be provided.
func provideClassification(container *dig.Container) error {
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewServiceFactory); err != nil {
		return err
	}

	// Register classifier backend
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.ZeroShotClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return err
	}

	// Register cache repository, nil when disabled
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return err
	}

	// Register classification service
	return container.Provide(func(f *factory.ServiceFactory) (*core.ClassificationService, error) {
		return f.CreateService()
	})
}

// cacheStopper is implemented by caches with a background cleanup task.
type cacheStopper interface {
	Stop()
}

// Shutdown releases the classifier and cache held by a container. Call it
// only after the classification service has been built.
func Shutdown(container *dig.Container) error {
	return container.Invoke(func(classifier core.ZeroShotClassifier, cache core.CacheRepository, logger *zap.Logger) {
		if closer, ok := classifier.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close classifier", zap.Error(err))
			}
		}
		if stopper, ok := cache.(cacheStopper); ok {
			stopper.Stop()
		}
	})
}
