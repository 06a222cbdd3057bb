package soundalike

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with soundalike-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithStrategy adds the recommendation strategy to the logger.
func (l *Logger) WithStrategy(s Strategy) *Logger {
	return &Logger{
		Logger: l.Logger.With("strategy", s.String()),
	}
}

// WithTrack adds a track id field to the logger.
func (l *Logger) WithTrack(trackID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("track_id", trackID),
	}
}

// WithTopN adds the requested result count to the logger.
func (l *Logger) WithTopN(topN int) *Logger {
	return &Logger{
		Logger: l.Logger.With("top_n", topN),
	}
}

// LogRecommend logs a recommendation call. Failures are logged at warn
// level since they are caused by the request, not by the engine.
func (l *Logger) LogRecommend(ctx context.Context, seed string, returned int, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "recommend failed",
			"seed", seed,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "recommend completed",
		"seed", seed,
		"results", returned,
		"duration", elapsed,
	)
}

// LogReload logs the installation of a new feature store.
func (l *Logger) LogReload(ctx context.Context, tracks, dim, clusters int, version uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reload failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "feature store loaded",
		"tracks", tracks,
		"dimension", dim,
		"clusters", clusters,
		"version", version,
	)
}
