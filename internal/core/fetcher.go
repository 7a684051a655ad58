package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mikey/llm-email-classifier/internal/mailparse"
	"github.com/mikey/llm-email-classifier/internal/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultFolder is used when no folder is given
	DefaultFolder = "INBOX"

	// DefaultMaxFetch bounds a single batch
	DefaultMaxFetch = 20

	// minBodyLength is the trimmed body length a message must exceed to be
	// kept in a batch
	minBodyLength = 10
)

// ErrInvalidCount is returned when a batch size is out of range.
var ErrInvalidCount = errors.New("invalid message count")

// MailFetcher pulls recent messages from a mailbox and reduces them to clean
// text
type MailFetcher struct {
	session  MailSession
	server   string
	maxCount int
	logger   *zap.Logger
}

// NewMailFetcher creates a fetcher over session. server only labels
// connection errors.
func NewMailFetcher(session MailSession, server string, maxCount int, logger *zap.Logger) *MailFetcher {
	if maxCount <= 0 {
		maxCount = DefaultMaxFetch
	}

	return &MailFetcher{
		session:  session,
		server:   server,
		maxCount: maxCount,
		logger:   logger,
	}
}

// FetchRecent returns up to count of the newest messages in folder, newest
// first. Messages that fail to fetch or parse are logged and skipped, as are
// messages with too little text to classify.
func (f *MailFetcher) FetchRecent(ctx context.Context, folder string, count int) ([]ExtractedEmail, error) {
	if count < 1 || count > f.maxCount {
		return nil, fmt.Errorf("%w: %d, must be between 1 and %d", ErrInvalidCount, count, f.maxCount)
	}
	if folder == "" {
		folder = DefaultFolder
	}

	if err := f.session.Connect(ctx); err != nil {
		f.logger.Error("Failed to connect to mail server",
			zap.String("server", f.server),
			zap.Error(err))
		return nil, &ConnectionError{Server: f.server, Err: err}
	}
	defer func() {
		if err := f.session.Disconnect(); err != nil {
			f.logger.Warn("Failed to disconnect from mail server", zap.Error(err))
		}
	}()

	ids, err := f.session.ListRecent(ctx, folder, count)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages in %s: %w", folder, err)
	}

	f.logger.Debug("Listed recent messages",
		zap.String("folder", folder),
		zap.Int("count", len(ids)))

	emails := make([]ExtractedEmail, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return emails, err
		}

		id := ids[i]
		email, err := f.extract(ctx, id)
		if err != nil {
			metrics.IncrementFetched("failed")
			f.logger.Warn("Skipping message",
				zap.String("id", id),
				zap.Error(err))
			continue
		}

		if utf8.RuneCountInString(strings.TrimSpace(email.BodyFull)) <= minBodyLength {
			metrics.IncrementFetched("short")
			f.logger.Debug("Skipping message with little text", zap.String("id", id))
			continue
		}

		metrics.IncrementFetched("kept")
		emails = append(emails, *email)
	}

	return emails, nil
}

// extract fetches and parses one message. A panic while parsing is turned
// into an error so the batch can continue.
func (f *MailFetcher) extract(ctx context.Context, id string) (email *ExtractedEmail, err error) {
	defer func() {
		if r := recover(); r != nil {
			email = nil
			err = fmt.Errorf("panic while processing message: %v", r)
		}
	}()

	raw, err := f.session.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	msg, err := mailparse.Parse(raw)
	if err != nil {
		return nil, err
	}

	body := mailparse.Extract(msg)

	return &ExtractedEmail{
		ID:       id,
		Subject:  msg.Subject(),
		Sender:   msg.From(),
		Date:     msg.Date(),
		Body:     Preview(body, PreviewLength),
		BodyFull: body,
	}, nil
}

// Preview returns the first n characters of s.
func Preview(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}

	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
