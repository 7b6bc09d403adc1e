package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/dabifac/pkg/logger"
)

// ConfigureLogging installs the global logger. Level defaults to info and
// encoding to json; an unknown encoding is rejected rather than guessed.
func ConfigureLogging(level, encoding string) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}

	encoding = strings.ToLower(strings.TrimSpace(encoding))
	switch encoding {
	case "":
		encoding = "json"
	case "json", "console":
	default:
		return fmt.Errorf("app: unsupported log encoding %q", encoding)
	}

	if err := logger.Init(logger.Options{Level: level, Encoding: encoding}); err != nil {
		return fmt.Errorf("app: configure logging: %w", err)
	}
	logger.WithModule("app").Debug("logging configured",
		zap.String("level", level),
		zap.String("encoding", encoding),
	)
	return nil
}
