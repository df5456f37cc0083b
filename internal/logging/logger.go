// Package logging builds the structured loggers handed to the pipeline.
//
// There is no package level logger: every run gets its own *slog.Logger carrying a run id, and
// that logger is passed down to the runner and to each stage.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// New returns a logger writing to w.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ForRun returns a logger scoped to one pipeline run, along with the generated run id.
func ForRun(logger *slog.Logger, dataset string) (*slog.Logger, string) {
	runID := uuid.New().String()

	return logger.With("run_id", runID, "dataset", dataset), runID
}

// Discard returns a logger dropping every entry.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
