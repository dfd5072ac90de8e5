package batch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Logger wraps slog.Logger with lattice job fields.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler logs
// text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human readable text to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON records to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewTextLogger(io.Discard, slog.Level(1000))
}

// WithJob adds the job id and name to the logger.
func (l *Logger) WithJob(job Job) *Logger {
	return &Logger{Logger: l.Logger.With("job", job.ID, "name", job.Name)}
}

// LogResult logs the outcome of a job.
func (l *Logger) LogResult(ctx context.Context, r Result) {
	if r.Err != nil {
		l.ErrorContext(ctx, "job failed",
			"points", r.Points,
			"elapsed", r.Elapsed.Round(time.Microsecond),
			"error", r.Err,
		)
		return
	}
	l.InfoContext(ctx, "job completed",
		"points", humanize.Comma(int64(r.Points)),
		"vertices", humanize.Comma(int64(r.Lattice.NumVertices())),
		"edges", humanize.Comma(int64(r.Lattice.NumEdges())),
		"elapsed", r.Elapsed.Round(time.Microsecond),
	)
}

// LogRun logs a summary of a finished run.
func (l *Logger) LogRun(ctx context.Context, results []Result, elapsed time.Duration) {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		l.WarnContext(ctx, "run completed with failures",
			"total", len(results),
			"failed", failed,
			"success", len(results)-failed,
			"elapsed", elapsed.Round(time.Millisecond),
		)
		return
	}
	l.InfoContext(ctx, "run completed",
		"jobs", len(results),
		"elapsed", elapsed.Round(time.Millisecond),
	)
}

var (
	setupOnce sync.Once
	installed *Logger
)

// Setup installs l as the process wide logger used by Run and as the slog
// default. Only the first call has an effect. It reports whether this call
// installed l.
func Setup(l *Logger) bool {
	did := false
	setupOnce.Do(func() {
		if l == nil {
			l = NewLogger(nil)
		}
		installed = l
		slog.SetDefault(l.Logger)
		did = true
	})
	return did
}

// Log returns the logger installed by Setup, installing the default logger
// if Setup was never called.
func Log() *Logger {
	Setup(nil)
	return installed
}
