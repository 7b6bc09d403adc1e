package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitConfiguresGlobalLogger(t *testing.T) {
	t.Cleanup(func() { Replace(nil) })

	require.NoError(t, Init(Options{Level: "debug"}))

	logger := Logger()
	require.NotNil(t, logger)
	require.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestInitFallsBackToInfoOnUnknownLevel(t *testing.T) {
	t.Cleanup(func() { Replace(nil) })

	require.NoError(t, Init(Options{Level: "chatty", Encoding: "console"}))

	logger := Logger()
	require.False(t, logger.Core().Enabled(zap.DebugLevel))
	require.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestLoggingHelpersEmitEntries(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	t.Cleanup(func() { Replace(nil) })
	Replace(zap.New(core))

	Info("info message", zap.String("k", "v"))
	Error("error message")
	Warn("warn message")
	Debug("debug message")

	require.Equal(t, 4, recorded.Len())

	want := []string{"info message", "error message", "warn message", "debug message"}
	for i, entry := range recorded.All() {
		require.Equal(t, want[i], entry.Message)
	}
	require.Equal(t, "v", recorded.All()[0].ContextMap()["k"])
}

func TestWithModuleAttachesModuleField(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	t.Cleanup(func() { Replace(nil) })
	Replace(zap.New(core))

	WithModule("offline").Info("module test")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "offline", entries[0].ContextMap()["module"])
}
