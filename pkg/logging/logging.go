// Package logging configures the process-wide structured logger.
// The server speaks JSON-RPC on stdout, so every log line goes to
// stderr; stdout is reserved for the protocol.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	apperrors "github.com/entrhq/chronos/pkg/errors"
)

// Options controls logger construction.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Output defaults to stderr.
	Output io.Writer
}

// Setup builds the logger and installs it as the slog default.
func Setup(opts Options) (*slog.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, apperrors.NewValidationError("unknown log level %q", s)
	}
}
