package huggingface

import (
	"fmt"
	"net/http"

	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/utils"
	"go.uber.org/zap"
)

// Factory creates Hugging Face clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Hugging Face factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a new Hugging Face client
func (f *Factory) CreateClient() (*Client, error) {
	hfCfg, err := f.cfg.GetHuggingFace()
	if err != nil {
		return nil, err
	}
	if hfCfg.Endpoint == "" || hfCfg.Model == "" {
		return nil, fmt.Errorf("hugging face endpoint and model are required")
	}
	if hfCfg.APIToken == "" {
		f.logger.Warn("No Hugging Face API token configured, requests will be rate limited")
	}

	return NewClient(
		&http.Client{Timeout: hfCfg.Timeout},
		hfCfg.Endpoint,
		hfCfg.Model,
		hfCfg.APIToken,
		hfCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}
