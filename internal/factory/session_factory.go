package factory

import (
	"errors"
	"fmt"

	imapadapter "github.com/mikey/llm-email-classifier/internal/adapters/imap"
	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/credential"
	"go.uber.org/zap"
)

// SessionFactory creates mailbox sessions and the fetcher that drives them
type SessionFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	resolver *credential.Resolver
}

// NewSessionFactory creates a new session factory
func NewSessionFactory(cfg *config.Config, logger *zap.Logger, resolver *credential.Resolver) *SessionFactory {
	return &SessionFactory{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
	}
}

// Account returns the configured mailbox and its resolved password
func (f *SessionFactory) Account() (config.IMAPConfig, error) {
	imapCfg, err := f.cfg.GetIMAP()
	if err != nil {
		return config.IMAPConfig{}, fmt.Errorf("invalid IMAP configuration: %w", err)
	}
	if imapCfg.Username == "" {
		return config.IMAPConfig{}, errors.New("no mailbox configured, set GMAIL_ADDRESS or imap.username")
	}

	password, err := f.resolver.Resolve(imapCfg.Username, imapCfg.Password)
	if err != nil {
		return config.IMAPConfig{}, fmt.Errorf("resolving password for %s: %w", imapCfg.Username, err)
	}
	imapCfg.Password = password

	return imapCfg, nil
}

// NewFetcher creates a fetcher for an already resolved account
func (f *SessionFactory) NewFetcher(account config.IMAPConfig) *core.MailFetcher {
	session := imapadapter.NewSession(account.Address, account.Username, account.Password, account.Timeout, f.logger)
	return core.NewMailFetcher(session, account.Address, account.MaxFetch, f.logger)
}
