package log

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/levenlabs/go-llog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	ctx := context.Background()

	// Test Ctx without a logger in the context
	l1 := Ctx(ctx)
	require.NotNil(t, l1, "Ctx returned nil instead of default logger")
	assert.Equal(t, defaultLogger, l1, "Ctx should return defaultLogger")

	// Create a new logger to test With
	customLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	require.NotEqual(t, defaultLogger, customLogger, "Failed to create a distinct custom logger for testing")

	// Test With and Ctx with a logger in the context
	ctxWithLogger := With(ctx, customLogger)
	l2 := Ctx(ctxWithLogger)
	require.NotNil(t, l2, "Ctx returned nil, expected custom logger")
	assert.Equal(t, customLogger, l2, "Ctx should return customLogger")
}

func TestWithAttrs(t *testing.T) {
	ctx := WithAttrs(context.Background(), slog.String("cycleID", "abc"))
	l := Ctx(ctx)
	require.NotNil(t, l)
	assert.NotEqual(t, defaultLogger, l, "WithAttrs should derive a new logger")
}

func TestFromLLog(t *testing.T) {
	cases := []struct {
		in   llog.Level
		want slog.Level
	}{
		{llog.DebugLevel, slog.LevelDebug},
		{llog.InfoLevel, slog.LevelInfo},
		{llog.WarnLevel, slog.LevelWarn},
		{llog.ErrorLevel, slog.LevelError},
	}
	for _, tc := range cases {
		t.Run(tc.in.String(), func(t *testing.T) {
			got, err := FromLLog(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSetDefaultLogLevel(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { SetDefaultLogLevel(slog.LevelInfo) })

	SetDefaultLogLevel(slog.LevelInfo)
	assert.False(t, Ctx(ctx).Enabled(ctx, slog.LevelDebug))

	SetDefaultLogLevel(slog.LevelDebug)
	assert.True(t, Ctx(ctx).Enabled(ctx, slog.LevelDebug), "the fallback logger follows the configured level")

	// derived loggers share the level
	assert.True(t, Ctx(WithAttrs(ctx, slog.String("cycleID", "abc"))).Enabled(ctx, slog.LevelDebug))

	SetDefaultLogLevel(slog.LevelError)
	assert.False(t, Ctx(ctx).Enabled(ctx, slog.LevelWarn))
}
