package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/dogadopt-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := logger.ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &logger.TestLogBuffer{}
	l := logger.New(buf, "warn")

	l.Info("suppressed")
	l.Warn("emitted", "key", "value")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "emitted", entries[0]["msg"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "value", entries[0]["key"])
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	ctx, buf := logger.NewLogCaptureContext(t)
	logger.FromContext(ctx).Info("from context", "trace_id", "abc")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["trace_id"])
}

func TestFromContextOrDefaultFallback(t *testing.T) {
	t.Parallel()

	fallback, buf := logger.NewTestLogger(t)
	logger.FromContextOrDefault(context.Background(), fallback).Debug("fallback used")

	assert.Contains(t, buf.String(), "fallback used")
	assert.Equal(t, slog.Default(), logger.FromContextOrDefault(context.Background(), nil))
}
