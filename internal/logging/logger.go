package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithVisitor returns a logger with visitor identity fields attached.
// Use this for all logging within a visit submission.
func WithVisitor(name string, agentType *string) *slog.Logger {
	at := ""
	if agentType != nil {
		at = *agentType
	}
	return slog.With(
		"visitor_name", name,
		"agent_type", at,
	)
}

// WithStore returns a logger scoped to a storage backend.
func WithStore(backend string) *slog.Logger {
	return slog.With("store", backend)
}
