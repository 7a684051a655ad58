package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/mikey/llm-email-classifier/internal/core"
	"github.com/mikey/llm-email-classifier/internal/mailparse"
	"github.com/mikey/llm-email-classifier/internal/metrics"
	"github.com/mikey/llm-email-classifier/internal/whitelist"
	"go.uber.org/zap"
)

const (
	classifyTimeout = 30 * time.Second
	relayTimeout    = 30 * time.Second
	scoreHeaderTop  = 3
)

// relayFunc delivers a message to the next hop
type relayFunc func(sender string, recipients []string, data []byte) error

// SMTPFilter is a Postfix content filter that tags each message with its
// category before handing it back to Postfix.
type SMTPFilter struct {
	service   *core.ClassificationService
	whitelist *whitelist.Checker
	logger    *zap.Logger
	cfg       config.ServerConfig
	server    *smtp.Server
	relay     relayFunc
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	service *core.ClassificationService,
	checker *whitelist.Checker,
	logger *zap.Logger,
	cfg config.ServerConfig,
) *SMTPFilter {
	f := &SMTPFilter{
		service:   service,
		whitelist: checker,
		logger:    logger,
		cfg:       cfg,
	}
	f.relay = f.sendToPostfix
	return f
}

// Start starts the SMTP listener in the background
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = f.cfg.Hostname
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = f.cfg.MaxMessageBytes
	f.server.MaxRecipients = 50

	listener, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	f.logger.Info("SMTP filter starting",
		zap.String("address", f.cfg.ListenAddress),
		zap.String("relay", f.cfg.PostfixAddress))

	go func() {
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop closes the listener and all open sessions
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// Filter classifies a raw message and returns it with the classification
// headers prepended. Messages from trusted senders come back unchanged.
func (f *SMTPFilter) Filter(ctx context.Context, sender string, raw []byte) []byte {
	if f.whitelist != nil && f.whitelist.IsWhitelisted(sender) {
		metrics.IncrementFiltered("whitelisted")
		return raw
	}

	result, err := f.classify(ctx, raw)
	if err != nil {
		f.logger.Warn("Failed to classify message",
			zap.String("sender", sender),
			zap.Error(err))
		metrics.IncrementFiltered("error")
		return prependHeaders(raw, errorHeaders(f.cfg.Headers, err))
	}

	f.logger.Info("Classified message",
		zap.String("sender", sender),
		zap.String("id", result.ID),
		zap.String("category", result.Category),
		zap.Float64("confidence", result.Confidence),
		zap.String("model", result.ModelUsed))
	metrics.IncrementFiltered("classified")

	return prependHeaders(raw, resultHeaders(f.cfg.Headers, result))
}

func (f *SMTPFilter) classify(ctx context.Context, raw []byte) (*core.ClassificationResult, error) {
	msg, err := mailparse.Parse(raw)
	if err != nil {
		return nil, err
	}
	return f.service.Classify(ctx, mailparse.Extract(msg), msg.Subject())
}

// sendToPostfix relays the message to Postfix with the go-smtp client
func (f *SMTPFilter) sendToPostfix(sender string, recipients []string, data []byte) error {
	conn, err := net.DialTimeout("tcp", f.cfg.PostfixAddress, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(relayTimeout)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(f.cfg.Hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", rcpt),
				zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// header is a single header field in the order it is written.
type header struct {
	name  string
	value string
}

func resultHeaders(names config.HeaderNames, result *core.ClassificationResult) []header {
	top := result.Top(scoreHeaderTop)
	scores := make([]string, len(top))
	for i, s := range top {
		scores[i] = fmt.Sprintf("%s=%.2f", s.Label, s.Score)
	}

	return []header{
		{names.Category, result.Category},
		{names.Confidence, fmt.Sprintf("%.2f", result.Confidence)},
		{names.Scores, strings.Join(scores, "; ")},
		{names.ID, result.ID},
	}
}

func errorHeaders(names config.HeaderNames, err error) []header {
	return []header{{names.Error, err.Error()}}
}

// prependHeaders writes hs ahead of the existing header block. Values are
// folded onto one line so a classifier error cannot inject extra fields.
func prependHeaders(raw []byte, hs []header) []byte {
	var buf bytes.Buffer
	for _, h := range hs {
		if h.name == "" {
			continue
		}
		fmt.Fprintf(&buf, "%s: %s\r\n", h.name, singleLine(h.value))
	}
	buf.Write(raw)
	return buf.Bytes()
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message and relays it. Only a failed relay is
// reported back to Postfix, so it can retry later.
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), classifyTimeout)
	defer cancel()

	out := s.filter.Filter(ctx, s.sender, raw)

	if err := s.filter.relay(s.sender, s.recipients, out); err != nil {
		s.filter.logger.Error("Failed to relay message to Postfix",
			zap.String("sender", s.sender),
			zap.Error(err))
		metrics.IncrementFiltered("relay_failed")
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary failure relaying message",
		}
	}
	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
