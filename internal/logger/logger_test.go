package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestParseFormat accepts console, json and the empty string.
func TestParseFormat(t *testing.T) {
	t.Parallel()

	got, ok := ParseFormat("JSON")
	require.True(t, ok)
	require.Equal(t, FormatJSON, got)

	got, ok = ParseFormat("")
	require.True(t, ok)
	require.Equal(t, FormatConsole, got)

	_, ok = ParseFormat("xml")
	require.False(t, ok)
}

// TestContextHelpers checks that the context logger carries name and fields.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)

	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "promote")
	ctx = WithKV(ctx, "channel", "stable")

	InfoKV(ctx, "copied", "key", "channels/stable/x")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "promote", entries[0].LoggerName)
	require.Equal(t, "stable", entries[0].ContextMap()["channel"])
	require.Equal(t, "channels/stable/x", entries[0].ContextMap()["key"])
}

// TestFromContext_FallsBackToGlobal returns the global logger for bare contexts.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}
