package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

// NewCaptured creates a logger with two sinks: the console and an in-memory
// transcript. The transcript is what scheduled runs attach to summary and
// error emails; callers that hold only the *slog.Logger never see it.
func NewCaptured(level string) (*slog.Logger, *Transcript) {
	lv := levelFromString(level)
	transcript := &Transcript{}

	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv})
	capture := slog.NewTextHandler(transcript, &slog.HandlerOptions{Level: lv})

	return slog.New(fanout(console, capture)), transcript
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
