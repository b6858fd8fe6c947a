// Package logger builds the process zerolog logger and carries request
// scoped loggers through contexts.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger writing to w at the given level. pretty switches to
// zerolog's human readable console writer.
func New(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// SetGlobal makes lg the logger behind github.com/rs/zerolog/log.
func SetGlobal(lg zerolog.Logger) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = lg
}

// Set returns a context carrying lg.
func Set(ctx context.Context, lg *zerolog.Logger) context.Context {
	return lg.WithContext(ctx)
}

// Get returns the logger stored in ctx, or the global logger when none is set.
func Get(ctx context.Context) *zerolog.Logger {
	if lg := zerolog.Ctx(ctx); lg != nil && lg.GetLevel() != zerolog.Disabled {
		return lg
	}
	return &log.Logger
}
