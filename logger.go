package xrdgo

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/xrdgo/dataset"
	"github.com/hupe1980/xrdgo/scrape"
	"github.com/hupe1980/xrdgo/snapshot"
)

// Logger wraps slog.Logger with pipeline-specific helpers.
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
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSnapshot adds a snapshot field to the logger.
func (l *Logger) WithSnapshot(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("snapshot", name),
	}
}

// WithSource adds a radiation source field to the logger.
func (l *Logger) WithSource(source string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", source),
	}
}

// LogScrape logs the outcome of a scrape run.
func (l *Logger) LogScrape(ctx context.Context, r scrape.Report, err error) {
	if err != nil {
		l.ErrorContext(ctx, "scrape failed",
			"requested", r.Requested,
			"duration", r.Duration,
			"error", err,
		)
		return
	}
	if len(r.Skipped) > 0 {
		l.WarnContext(ctx, "scrape completed with skipped entries",
			"requested", r.Requested,
			"assembled", r.Assembled,
			"skipped", len(r.Skipped),
			"retries", r.Retries,
			"duration", r.Duration,
		)
		return
	}
	l.InfoContext(ctx, "scrape completed",
		"requested", r.Requested,
		"assembled", r.Assembled,
		"vectors", r.Vectors,
		"missing_sources", r.MissingSources,
		"retries", r.Retries,
		"duration", r.Duration,
	)
}

// LogStage logs one dataset builder stage.
func (l *Logger) LogStage(ctx context.Context, s dataset.Summary) {
	l.DebugContext(ctx, "dataset stage completed",
		"stage", s.Stage,
		"samples", s.Samples,
		"classes", s.Classes,
		"duration", s.Duration,
	)
}

// LogDataset logs the outcome of a dataset build.
func (l *Logger) LogDataset(ctx context.Context, ds *dataset.Dataset, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dataset build failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "dataset built",
		"source", ds.Source,
		"classes", len(ds.Classes),
		"train", ds.Train.Len(),
		"test", ds.Test.Len(),
	)
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, m *snapshot.Manifest, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+op+" failed",
			"snapshot", name,
			"error", err,
		)
		return
	}
	attrs := []any{"snapshot", name}
	if m != nil {
		attrs = append(attrs,
			"entries", m.Entries,
			"size", m.Size,
			"compression", m.Compression.String(),
		)
	}
	l.InfoContext(ctx, "snapshot "+op+" completed", attrs...)
}
