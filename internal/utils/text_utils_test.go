package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	assert.Equal(t, "short", tp.TruncateText("short", 10))
	assert.Equal(t, "unlimited", tp.TruncateText("unlimited", 0))
	assert.Equal(t, "abc"+TruncationMarker, tp.TruncateText("abcdef", 3))
}

func TestTruncateTextKeepsCharactersWhole(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	// "é" is two bytes; a limit of 4 would split the second one
	got := tp.TruncateText("aéé", 4)

	assert.Equal(t, "aé"+TruncationMarker, got)
	assert.True(t, utf8.ValidString(got))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	assert.Equal(t, "valid ✓", tp.SanitizeUTF8("valid ✓"))
	assert.Equal(t, "a\uFFFDb", tp.SanitizeUTF8("a\xffb"))
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	got := tp.ProcessText(strings.Repeat("x\xff", 100), 10)

	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, TruncationMarker))
	assert.LessOrEqual(t, len(got), 10+len(TruncationMarker))
}
