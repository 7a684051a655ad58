package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mikey/llm-email-classifier/internal/metrics"
	"go.uber.org/zap"
)

// MinClassifyLength is the shortest trimmed input, in characters, that is
// sent to the classifier.
const MinClassifyLength = 10

// ClassificationService is the core service for email classification
type ClassificationService struct {
	classifier   ZeroShotClassifier
	cache        CacheRepository
	categories   *CategorySet
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	now          func() time.Time
}

// NewClassificationService creates a new classification service
func NewClassificationService(
	classifier ZeroShotClassifier,
	cache CacheRepository,
	categories *CategorySet,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *ClassificationService {
	if categories == nil {
		categories = NewCategorySet(DefaultCategories...)
	}

	return &ClassificationService{
		classifier:   classifier,
		cache:        cache,
		categories:   categories,
		logger:       logger,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
		now:          time.Now,
	}
}

// Categories returns the candidate labels in the order they are offered to
// the classifier.
func (s *ClassificationService) Categories() []string {
	return s.categories.Labels()
}

// AddCategories appends new candidate labels and returns how many were new.
func (s *ClassificationService) AddCategories(names ...string) int {
	added := s.categories.Add(names...)
	if added > 0 {
		s.logger.Info("Added categories",
			zap.Int("added", added),
			zap.Int("total", s.categories.Len()))
	}
	return added
}

// Classify scores an email body and subject against the category set
func (s *ClassificationService) Classify(ctx context.Context, body, subject string) (*ClassificationResult, error) {
	text := body
	if subject != "" {
		text = fmt.Sprintf("Subject: %s\n\n%s", subject, body)
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinClassifyLength {
		s.logger.Debug("Input too short to classify", zap.Int("length", len(text)))
		metrics.RecordClassification(UnableToClassify)

		return &ClassificationResult{
			ID:           uuid.NewString(),
			Category:     UnableToClassify,
			Confidence:   0,
			AllScores:    map[string]float64{},
			ClassifiedAt: s.now(),
		}, nil
	}

	labels := s.categories.Labels()
	key := s.cacheKey(text, labels)

	output := s.lookup(ctx, key)
	if output == nil {
		var err error
		output, err = s.invoke(ctx, text, labels)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, output)
	}

	result, err := toResult(output)
	if err != nil {
		return nil, fmt.Errorf("invalid output from %s classifier: %w", s.classifier.Name(), err)
	}
	result.ID = uuid.NewString()
	result.ClassifiedAt = s.now()

	metrics.RecordClassification(result.Category)
	s.logger.Debug("Email classified",
		zap.String("id", result.ID),
		zap.String("category", result.Category),
		zap.Float64("confidence", result.Confidence),
		zap.String("model", result.ModelUsed))

	return result, nil
}

func (s *ClassificationService) invoke(ctx context.Context, text string, labels []string) (*ZeroShotOutput, error) {
	start := time.Now()
	output, err := s.classifier.Classify(ctx, text, labels)
	if err != nil {
		metrics.RecordClassifierLatency(s.classifier.Name(), "error", time.Since(start))
		return nil, fmt.Errorf("failed to classify with %s: %w", s.classifier.Name(), err)
	}
	metrics.RecordClassifierLatency(s.classifier.Name(), "success", time.Since(start))

	return output, nil
}

// lookup returns the memoized output for key, or nil.
func (s *ClassificationService) lookup(ctx context.Context, key string) *ZeroShotOutput {
	if !s.cacheEnabled {
		return nil
	}

	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			metrics.RecordCacheLookup("miss")
		} else {
			metrics.RecordCacheLookup("error")
			s.logger.Warn("Failed to read classification cache", zap.Error(err))
		}
		return nil
	}

	metrics.RecordCacheLookup("hit")
	s.logger.Debug("Cache hit", zap.String("key", key))

	return &ZeroShotOutput{
		Labels: entry.Labels,
		Scores: entry.Scores,
		Model:  entry.Model,
	}
}

func (s *ClassificationService) store(ctx context.Context, key string, output *ZeroShotOutput) {
	if !s.cacheEnabled {
		return
	}

	now := s.now()
	entry := &CacheEntry{
		Key:       key,
		Labels:    output.Labels,
		Scores:    output.Scores,
		Model:     output.Model,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cacheTTL),
	}
	if err := s.cache.Set(ctx, entry); err != nil {
		s.logger.Error("Failed to update cache", zap.Error(err))
	}
}

// cacheKey identifies a classifier call by backend, text and label order.
func (s *ClassificationService) cacheKey(text string, labels []string) string {
	h := sha256.New()
	h.Write([]byte(s.classifier.Name()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	for _, label := range labels {
		h.Write([]byte{0})
		h.Write([]byte(label))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// toResult converts probabilities to percentages rounded to two decimals.
// The category is the best scoring label; the earliest label wins a tie.
func toResult(output *ZeroShotOutput) (*ClassificationResult, error) {
	if output == nil || len(output.Labels) == 0 {
		return nil, errors.New("no labels returned")
	}
	if len(output.Labels) != len(output.Scores) {
		return nil, fmt.Errorf("got %d labels and %d scores", len(output.Labels), len(output.Scores))
	}

	result := &ClassificationResult{
		AllScores: make(map[string]float64, len(output.Labels)),
		ModelUsed: output.Model,
	}

	best := -1.0
	for i, label := range output.Labels {
		score := roundPercent(output.Scores[i])
		result.AllScores[label] = score
		if score > best {
			best = score
			result.Category = label
		}
	}
	result.Confidence = best

	return result, nil
}

func roundPercent(p float64) float64 {
	return math.Round(p*100*100) / 100
}
