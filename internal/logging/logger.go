// Package logging defines a minimal structured-logging interface used across
// the project, with adapters for log/slog and rs/zerolog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "driver", driver)
type Logger interface {
	// Debug logs diagnostic detail that is off in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatZerolog = "zerolog"
	FormatConsole = "console"
)

// New builds a Logger writing to w. "json" uses slog's JSON handler,
// "zerolog" writes zerolog JSON and "console" uses zerolog's human-readable
// writer. An empty w means stdout.
func New(format, level string, w io.Writer) (Logger, error) {
	if w == nil {
		w = os.Stdout
	}

	switch strings.ToLower(format) {
	case "", FormatJSON:
		var l slog.Level
		if err := l.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))), nil

	case FormatZerolog, FormatConsole:
		l, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		if format == FormatConsole {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}
		return NewZerologLogger(zerolog.New(w).Level(l).With().Timestamp().Logger()), nil

	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
