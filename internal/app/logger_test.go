package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigureLogging(t *testing.T) {
	require.NoError(t, ConfigureLogging("debug", "console"))
	require.NoError(t, ConfigureLogging(" WARN ", "JSON"))
	require.NoError(t, ConfigureLogging("", ""))
}

func TestConfigureLoggingRejectsUnknownEncoding(t *testing.T) {
	err := ConfigureLogging("info", "logfmt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "logfmt")
}
