// Package observability provides a metrics extension recording sync
// lifecycle counters via OpenTelemetry. Register it with the engine to
// automatically track submissions, attempts, completions, retries, drops,
// and expirations. With no global MeterProvider installed the counters are
// noop and the extension has zero overhead.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/syncengine/ext"
	"github.com/xraph/syncengine/job"
)

// meterName is the instrumentation scope name for syncengine metrics.
const meterName = "github.com/xraph/syncengine"

// Compile-time interface checks.
var (
	_ ext.Extension      = (*MetricsExtension)(nil)
	_ ext.JobSubmitted   = (*MetricsExtension)(nil)
	_ ext.AttemptStarted = (*MetricsExtension)(nil)
	_ ext.JobCompleted   = (*MetricsExtension)(nil)
	_ ext.JobRetrying    = (*MetricsExtension)(nil)
	_ ext.JobDropped     = (*MetricsExtension)(nil)
	_ ext.JobExpired     = (*MetricsExtension)(nil)
)

// MetricsExtension records lifecycle metrics through an otel Meter.
type MetricsExtension struct {
	submitted metric.Int64Counter
	attempts  metric.Int64Counter
	completed metric.Int64Counter
	retried   metric.Int64Counter
	dropped   metric.Int64Counter
	expired   metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension using the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided Meter. Use for testing or when multiple providers are in use.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}
	m.submitted, _ = meter.Int64Counter("sync.job.submitted")
	m.attempts, _ = meter.Int64Counter("sync.job.attempts")
	m.completed, _ = meter.Int64Counter("sync.job.completed")
	m.retried, _ = meter.Int64Counter("sync.job.retried")
	m.dropped, _ = meter.Int64Counter("sync.job.dropped")
	m.expired, _ = meter.Int64Counter("sync.job.expired")
	m.duration, _ = meter.Float64Histogram("sync.job.duration_seconds")
	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobSubmitted implements ext.JobSubmitted.
func (m *MetricsExtension) OnJobSubmitted(ctx context.Context, j *job.Job) error {
	m.submitted.Add(ctx, 1, commandAttr(j))
	return nil
}

// OnAttemptStarted implements ext.AttemptStarted.
func (m *MetricsExtension) OnAttemptStarted(ctx context.Context, j *job.Job) error {
	m.attempts.Add(ctx, 1, commandAttr(j))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error {
	m.completed.Add(ctx, 1, commandAttr(j))
	m.duration.Record(ctx, elapsed.Seconds(), commandAttr(j))
	return nil
}

// OnJobRetrying implements ext.JobRetrying.
func (m *MetricsExtension) OnJobRetrying(ctx context.Context, j *job.Job, _ int, _ time.Time) error {
	m.retried.Add(ctx, 1, commandAttr(j))
	return nil
}

// OnJobDropped implements ext.JobDropped.
func (m *MetricsExtension) OnJobDropped(ctx context.Context, j *job.Job, reason ext.DropReason, _ error) error {
	m.dropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sync.command", j.Request.Command),
		attribute.String("sync.drop_reason", string(reason)),
	))
	return nil
}

// OnJobExpired implements ext.JobExpired.
func (m *MetricsExtension) OnJobExpired(ctx context.Context, j *job.Job) error {
	m.expired.Add(ctx, 1, commandAttr(j))
	return nil
}

func commandAttr(j *job.Job) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("sync.command", j.Request.Command))
}
