package logging

import (
	"testing"

	"github.com/mikey/llm-email-classifier/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestInitLogger(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("logging.level", "debug")
	v.Set("logging.format", "console")

	logger, err := InitLogger(config.NewFromViper(v))
	require.NoError(t, err)

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestInitConsoleLogger(t *testing.T) {
	quiet, err := InitConsoleLogger(false, false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))

	verbose, err := InitConsoleLogger(true, true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}
