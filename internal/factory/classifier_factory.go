package factory

import (
	"fmt"
	"strings"

	"github.com/mikey/llm-email-classifier/internal/adapters/bedrock"
	"github.com/mikey/llm-email-classifier/internal/adapters/gemini"
	"github.com/mikey/llm-email-classifier/internal/adapters/huggingface"
	"github.com/mikey/llm-email-classifier/internal/adapters/openai"
	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/utils"
	"go.uber.org/zap"
)

// ClassifierFactory creates the zero-shot backend named by classifier.provider
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new classifier based on the configuration
func (f *ClassifierFactory) CreateClassifier() (core.ZeroShotClassifier, error) {
	provider := strings.ToLower(f.cfg.GetClassifier().Provider)
	f.logger.Debug("Creating classifier", zap.String("provider", provider))

	switch provider {
	case "", "huggingface":
		return huggingface.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", provider)
	}
}
