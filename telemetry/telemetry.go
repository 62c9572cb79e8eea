// Package telemetry defines the fire-and-forget reporting sink the engine
// uses for terminal drops and watchdog observations. A Sink never blocks
// its caller and never fails visibly.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
)

// Context carries structured key/value detail alongside a report.
type Context map[string]string

// Sink receives exception reports. Implementations must be safe for
// concurrent use and must not block.
type Sink interface {
	// Report records err with its context. Fire-and-forget: errors in the
	// sink itself are swallowed.
	Report(ctx context.Context, err error, detail Context)
}

// ──────────────────────────────────────────────────
// Log sink
// ──────────────────────────────────────────────────

// LogSink reports through a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a Sink backed by the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Report implements Sink.
func (s *LogSink) Report(_ context.Context, err error, detail Context) {
	attrs := make([]any, 0, 2+2*len(detail))
	attrs = append(attrs, slog.String("error", err.Error()))
	for k, v := range detail {
		attrs = append(attrs, slog.String(k, v))
	}
	s.logger.Warn("telemetry report", attrs...)
}

// ──────────────────────────────────────────────────
// Noop sink
// ──────────────────────────────────────────────────

// Noop discards all reports.
type Noop struct{}

// Report implements Sink.
func (Noop) Report(context.Context, error, Context) {}

// ──────────────────────────────────────────────────
// Recorder (for tests)
// ──────────────────────────────────────────────────

// Report is a single recorded report.
type Report struct {
	Err    error
	Detail Context
}

// Recorder captures reports in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report implements Sink.
func (r *Recorder) Report(_ context.Context, err error, detail Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{Err: err, Detail: detail})
}

// Reports returns a copy of everything recorded so far.
func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Len returns the number of recorded reports.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}
