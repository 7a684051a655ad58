package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeClassifier struct {
	calls  int
	texts  []string
	labels [][]string
	err    error
	output func(labels []string) *ZeroShotOutput
}

func (f *fakeClassifier) Name() string { return "fake" }

func (f *fakeClassifier) Classify(_ context.Context, text string, labels []string) (*ZeroShotOutput, error) {
	f.calls++
	f.texts = append(f.texts, text)
	f.labels = append(f.labels, labels)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output(labels), nil
	}
	return descending(labels), nil
}

// descending gives the first label the highest probability and each later
// label a little less.
func descending(labels []string) *ZeroShotOutput {
	out := &ZeroShotOutput{Model: "fake-model"}
	total := 0.0
	for i := range labels {
		total += float64(len(labels) - i)
	}
	for i, label := range labels {
		out.Labels = append(out.Labels, label)
		out.Scores = append(out.Scores, float64(len(labels)-i)/total)
	}
	return out
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*CacheEntry)}
}

func (c *fakeCache) Get(_ context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return e, nil
}

func (c *fakeCache) Set(_ context.Context, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[entry.Key] = entry
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Cleanup(context.Context) error { return nil }

func newTestService(t *testing.T, classifier ZeroShotClassifier, cache CacheRepository) *ClassificationService {
	t.Helper()
	return NewClassificationService(classifier, cache, nil, zaptest.NewLogger(t), cache != nil, time.Hour)
}

func TestClassifyShortInput(t *testing.T) {
	classifier := &fakeClassifier{}
	svc := newTestService(t, classifier, nil)

	for _, body := range []string{"", "hi", "   short   ", "123456789"} {
		result, err := svc.Classify(context.Background(), body, "")
		require.NoError(t, err)

		assert.Equal(t, UnableToClassify, result.Category)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Empty(t, result.AllScores)
		assert.NotNil(t, result.AllScores)
		assert.NotEmpty(t, result.ID)
	}

	assert.Equal(t, 0, classifier.calls)
}

func TestClassifyCombinesSubjectAndBody(t *testing.T) {
	classifier := &fakeClassifier{}
	svc := newTestService(t, classifier, nil)

	_, err := svc.Classify(context.Background(), "Please reset my password.", "Login Problem")
	require.NoError(t, err)

	require.Len(t, classifier.texts, 1)
	assert.Equal(t, "Subject: Login Problem\n\nPlease reset my password.", classifier.texts[0])
	assert.Equal(t, DefaultCategories, classifier.labels[0])
}

func TestClassifyScoresFormDistribution(t *testing.T) {
	svc := newTestService(t, &fakeClassifier{}, nil)

	result, err := svc.Classify(context.Background(),
		"I cannot log into my account and need a password reset", "Login Problem")
	require.NoError(t, err)

	require.Len(t, result.AllScores, len(DefaultCategories))

	total, best, bestLabel := 0.0, -1.0, ""
	for label, score := range result.AllScores {
		total += score
		if score > best {
			best, bestLabel = score, label
		}
	}

	assert.InDelta(t, 100.0, total, 0.1)
	assert.Equal(t, best, result.Confidence)
	assert.Equal(t, bestLabel, result.Category)
	assert.Equal(t, "Customer Support Request", result.Category)
	assert.Equal(t, "fake-model", result.ModelUsed)
}

func TestClassifyRoundsToTwoDecimals(t *testing.T) {
	classifier := &fakeClassifier{output: func([]string) *ZeroShotOutput {
		return &ZeroShotOutput{
			Labels: []string{"Sales Inquiry", "Spam or Unwanted"},
			Scores: []float64{0.876543, 0.123457},
		}
	}}
	svc := newTestService(t, classifier, nil)

	result, err := svc.Classify(context.Background(), "Do you offer volume discounts?", "")
	require.NoError(t, err)

	assert.Equal(t, "Sales Inquiry", result.Category)
	assert.Equal(t, 87.65, result.Confidence)
	assert.Equal(t, map[string]float64{"Sales Inquiry": 87.65, "Spam or Unwanted": 12.35}, result.AllScores)
}

func TestClassifyTieKeepsFirstLabel(t *testing.T) {
	classifier := &fakeClassifier{output: func([]string) *ZeroShotOutput {
		return &ZeroShotOutput{
			Labels: []string{"Billing Question", "Sales Inquiry"},
			Scores: []float64{0.5, 0.5},
		}
	}}
	svc := newTestService(t, classifier, nil)

	result, err := svc.Classify(context.Background(), "How much is the annual plan?", "")
	require.NoError(t, err)

	assert.Equal(t, "Billing Question", result.Category)
	assert.Equal(t, 50.0, result.Confidence)
}

func TestClassifyRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name   string
		output *ZeroShotOutput
	}{
		{"empty", &ZeroShotOutput{}},
		{"length mismatch", &ZeroShotOutput{Labels: []string{"a", "b"}, Scores: []float64{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &fakeClassifier{output: func([]string) *ZeroShotOutput { return tt.output }}
			svc := newTestService(t, classifier, nil)

			_, err := svc.Classify(context.Background(), "This body is long enough to classify.", "")
			assert.Error(t, err)
		})
	}
}

func TestClassifyPropagatesClassifierError(t *testing.T) {
	boom := errors.New("service unavailable")
	svc := newTestService(t, &fakeClassifier{err: boom}, nil)

	_, err := svc.Classify(context.Background(), "This body is long enough to classify.", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestClassifyCacheHitSkipsClassifier(t *testing.T) {
	classifier := &fakeClassifier{}
	cache := newFakeCache()
	svc := newTestService(t, classifier, cache)

	first, err := svc.Classify(context.Background(), "Where is my invoice for March?", "Invoice")
	require.NoError(t, err)
	second, err := svc.Classify(context.Background(), "Where is my invoice for March?", "Invoice")
	require.NoError(t, err)

	assert.Equal(t, 1, classifier.calls)
	assert.Len(t, cache.entries, 1)
	assert.Equal(t, first.AllScores, second.AllScores)
	assert.Equal(t, first.Category, second.Category)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestClassifyCacheKeyDependsOnCategories(t *testing.T) {
	classifier := &fakeClassifier{}
	cache := newFakeCache()
	svc := newTestService(t, classifier, cache)

	_, err := svc.Classify(context.Background(), "Where is my invoice for March?", "")
	require.NoError(t, err)

	svc.AddCategories("Legal")

	_, err = svc.Classify(context.Background(), "Where is my invoice for March?", "")
	require.NoError(t, err)

	assert.Equal(t, 2, classifier.calls)
}

func TestClassifyCacheFailuresAreNotFatal(t *testing.T) {
	classifier := &fakeClassifier{}
	cache := newFakeCache()
	cache.getErr = errors.New("database is locked")
	cache.setErr = errors.New("database is locked")
	svc := newTestService(t, classifier, cache)

	result, err := svc.Classify(context.Background(), "Where is my invoice for March?", "")
	require.NoError(t, err)

	assert.Equal(t, "Customer Support Request", result.Category)
	assert.Equal(t, 1, classifier.calls)
}

func TestAddCategories(t *testing.T) {
	classifier := &fakeClassifier{}
	svc := newTestService(t, classifier, nil)

	added := svc.AddCategories("Legal", "Sales Inquiry", "Partnership", "Legal", "  ")
	assert.Equal(t, 2, added)

	want := append(append([]string{}, DefaultCategories...), "Legal", "Partnership")
	assert.Equal(t, want, svc.Categories())

	_, err := svc.Classify(context.Background(), "We would like to discuss a partnership.", "")
	require.NoError(t, err)
	assert.Equal(t, want, classifier.labels[0])
}

func TestResultTop(t *testing.T) {
	result := &ClassificationResult{AllScores: map[string]float64{
		"a": 10, "b": 50, "c": 30, "d": 10,
	}}

	assert.Equal(t, []LabelScore{{"b", 50}, {"c", 30}}, result.Top(2))
	assert.Equal(t, []LabelScore{{"b", 50}, {"c", 30}, {"a", 10}, {"d", 10}}, result.Top(10))
	assert.Empty(t, (&ClassificationResult{}).Top(5))
}
