package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// New builds the process logger. Format is "pretty" or "json"; level is a
// slog level name such as "debug" or "warn".
func New(w io.Writer, format string, level string) (*slog.Logger, error) {
	lvl := slog.LevelInfo
	if strings.TrimSpace(level) != "" {
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var base slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatPretty:
		base = NewPrettyHandler(w, opts)
	case FormatJSON:
		base = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return slog.New(NewContextHandler(base)), nil
}
