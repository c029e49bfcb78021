package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init configures the shared slog logger and installs it with
// slog.SetDefault so the stdlib log package routes through the same
// handler. w defaults to stderr.
func Init(debug bool, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// Err wraps an error as the conventional "error" attribute.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
