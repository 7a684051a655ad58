package core

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// UnableToClassify is the category reported when the input is too short to
// be worth sending to a classifier.
const UnableToClassify = "Unable to classify"

// PreviewLength is the number of characters kept in ExtractedEmail.Body.
const PreviewLength = 1500

// ExtractedEmail represents a fetched message reduced to clean text
type ExtractedEmail struct {
	ID      string
	Subject string
	Sender  string
	Date    string
	// Body is BodyFull cut to PreviewLength characters
	Body     string
	BodyFull string
}

// ClassificationResult represents the outcome of classifying one email
type ClassificationResult struct {
	ID         string
	Category   string
	Confidence float64
	// AllScores maps every candidate label to its percentage score
	AllScores    map[string]float64
	ModelUsed    string
	ClassifiedAt time.Time
}

// LabelScore is a single label with its percentage score.
type LabelScore struct {
	Label string
	Score float64
}

// Top returns up to n labels ordered by descending score. Ties keep label
// order stable so output is deterministic.
func (r *ClassificationResult) Top(n int) []LabelScore {
	scores := make([]LabelScore, 0, len(r.AllScores))
	for label, score := range r.AllScores {
		scores = append(scores, LabelScore{Label: label, Score: score})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Label < scores[j].Label
	})

	if n >= 0 && n < len(scores) {
		scores = scores[:n]
	}
	return scores
}

// ZeroShotOutput is what a classifier backend returns: labels ordered by
// descending score with a parallel slice of probabilities.
type ZeroShotOutput struct {
	Labels []string
	Scores []float64
	Model  string
}

// CacheEntry is a memoized classifier output
type CacheEntry struct {
	Key       string
	Labels    []string
	Scores    []float64
	Model     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer valid at t.
func (e *CacheEntry) Expired(t time.Time) bool {
	return !e.ExpiresAt.IsZero() && !t.Before(e.ExpiresAt)
}

// ErrCacheMiss is returned by cache repositories when no live entry exists.
var ErrCacheMiss = errors.New("cache miss")

// ConnectionError is returned when a mail session cannot be opened.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Hint is a user-facing suggestion for resolving the failure.
func (e *ConnectionError) Hint() string {
	return "use an app password generated for this account, not the account's regular password"
}

// AsConnectionError returns the ConnectionError wrapped by err, if any.
func AsConnectionError(err error) (*ConnectionError, bool) {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
