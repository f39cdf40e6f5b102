// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON logger writing to stdout. When file is non-empty every
// line is also written to a size-rotated log file. The returned closer
// releases the file and is safe to call when no file is configured.
func New(stdout io.Writer, level slog.Level, file string) (*slog.Logger, io.Closer) {
	var (
		w      = stdout
		closer io.Closer = nopCloser{}
	)
	if file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(stdout, lj)
		closer = lj
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
