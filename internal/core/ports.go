package core

import (
	"context"
)

// ZeroShotClassifier scores a text against a set of candidate labels
type ZeroShotClassifier interface {
	// Classify returns the labels reordered by descending score. Scores form a
	// probability distribution over labels.
	Classify(ctx context.Context, text string, labels []string) (*ZeroShotOutput, error)

	// Name identifies the backend in logs and metrics
	Name() string
}

// CacheRepository defines the interface for memoizing classifier output
type CacheRepository interface {
	// Get retrieves a live entry, or ErrCacheMiss
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// MailSession is a stateful connection to a mailbox. A session is used by a
// single goroutine.
type MailSession interface {
	Connect(ctx context.Context) error

	// ListRecent returns the ids of the newest count messages in folder,
	// oldest first.
	ListRecent(ctx context.Context, folder string, count int) ([]string, error)

	// Fetch returns the full RFC 5322 message
	Fetch(ctx context.Context, id string) ([]byte, error)

	Disconnect() error
}

// EmailFilter is a long-running delivery channel that classifies mail as it
// passes through
type EmailFilter interface {
	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
