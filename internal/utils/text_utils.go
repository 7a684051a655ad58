package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TruncationMarker is appended to text cut by TruncateText.
const TruncationMarker = "\n[... Content truncated due to size limits ...]"

// TextProcessor prepares classifier input so it fits a backend's request
// limits
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText cuts text to at most maxSize bytes without splitting a
// character. A maxSize of zero or less disables truncation.
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	truncated := text[:cut]

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + TruncationMarker
}

// SanitizeUTF8 replaces invalid UTF-8 sequences with U+FFFD
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "\uFFFD")
	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText sanitizes and then truncates text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.TruncateText(tp.SanitizeUTF8(text), maxSize)
}
