package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, Level(-1))
	assert.Equal(t, zapcore.WarnLevel, Level(0))
	assert.Equal(t, zapcore.InfoLevel, Level(1))
	assert.Equal(t, zapcore.DebugLevel, Level(2))
	assert.Equal(t, zapcore.DebugLevel, Level(5))
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Verbosity: 1, Output: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("read file", zap.String("path", "a.fast5"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "read file")
	assert.Contains(t, out, `"path": "a.fast5"`)
}

func TestQuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Output: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONLogger(t *testing.T) {
	log, err := New(Config{Verbosity: 2, JSON: true})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
