package slog

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
)

// LoggerOptions selects where and how log records are written.
type LoggerOptions struct {
	// Level is the minimum level written
	Level slog.Level
	// Format is "text" (default) or "json"
	Format string
	// File, when set, sends records to a size-rotated file instead of Output
	File string
	// MaxSizeMB is the size at which File is rotated (default 10)
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept (default 3)
	MaxBackups int
	// MaxAgeDays removes rotated files older than this; 0 keeps them
	MaxAgeDays int
	// Output is used when File is empty; os.Stderr when nil.
	// The stdio transport owns stdout, so logs never go there by default.
	Output io.Writer
}

// NewLogger builds a slog.Logger from opts. The returned closer releases the
// log file, if any; it is a no-op otherwise.
func NewLogger(opts LoggerOptions) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = opts.Output
		closer io.Closer = nopCloser{}
	)

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     opts.MaxAgeDays,
		}
		w, closer = rotating, rotating
	} else if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler), closer
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
