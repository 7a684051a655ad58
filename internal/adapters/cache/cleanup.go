package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cleaner runs a cleanup function on a fixed period until stopped
type cleaner struct {
	freq   time.Duration
	run    func(ctx context.Context) error
	logger *zap.Logger
	stopCh chan struct{}
	once   sync.Once
}

func newCleaner(freq time.Duration, run func(ctx context.Context) error, logger *zap.Logger) *cleaner {
	c := &cleaner{
		freq:   freq,
		run:    run,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	// A non-positive frequency leaves cleanup to explicit calls
	if freq > 0 {
		go c.loop()
	}
	return c
}

func (c *cleaner) loop() {
	ticker := time.NewTicker(c.freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.run(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

func (c *cleaner) stop() {
	c.once.Do(func() { close(c.stopCh) })
}

// payload is the serialized form of a classifier output in SQL stores
type payload struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func encodePayload(labels []string, scores []float64) (string, error) {
	b, err := json.Marshal(payload{Labels: labels, Scores: scores})
	if err != nil {
		return "", fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return string(b), nil
}

func decodePayload(s string) (payload, error) {
	var p payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return payload{}, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return p, nil
}
