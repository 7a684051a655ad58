package factory

import (
	"io"

	"github.com/mikey/llm-email-classifier/internal/adapters/filter"
	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/whitelist"
	"go.uber.org/zap"
)

// FilterFactory creates the SMTP content filter and the terminal renderer
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ClassificationService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.ClassificationService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates the SMTP content filter
func (f *FilterFactory) CreateEmailFilter() core.EmailFilter {
	return f.CreateSMTPFilter()
}

// CreateSMTPFilter creates the SMTP content filter with its trusted domains
func (f *FilterFactory) CreateSMTPFilter() *filter.SMTPFilter {
	serverCfg := f.cfg.GetServer()
	checker := whitelist.NewChecker(serverCfg.TrustedDomains, f.logger)
	return filter.NewSMTPFilter(f.service, checker, f.logger, serverCfg)
}

// CreateCliFilter creates a terminal renderer writing to out
func (f *FilterFactory) CreateCliFilter(out io.Writer, verbose bool) *filter.CliFilter {
	return filter.NewCliFilter(f.service, f.logger, out, verbose)
}
