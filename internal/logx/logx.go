// Package logx builds the zerolog loggers used by the command line tools.
package logx

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	Level zerolog.Level
	JSON  bool // Structured output instead of the console format
}

// New returns a logger writing to w. Console output is the default.
func New(w io.Writer, opts Options) zerolog.Logger {
	zerolog.CallerMarshalFunc = shortCaller

	out := w
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(out).
		Level(opts.Level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ParseLevel maps a level name such as "debug" to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// shortCaller keeps only the file name, padded so messages line up.
func shortCaller(_ uintptr, file string, line int) string {
	return fmt.Sprintf("%-24s", fmt.Sprintf("%s:%d", filepath.Base(file), line))
}
