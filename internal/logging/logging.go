// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and destination of diagnostics.
type Options struct {
	Debug bool
	// File, when set, receives the log instead of stderr and is rotated
	// once it reaches MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New configures the shared slog logger and calls slog.SetDefault so the
// stdlib log package also routes through the same handler. The returned
// closer releases the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 20), // megabytes
			MaxBackups: orDefault(opts.MaxBackups, 3),
		}
		w, closer = lj, lj
	}
	logger := slog.New(newHandler(w, opts.Debug))
	slog.SetDefault(logger)
	return logger, closer
}

func newHandler(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
