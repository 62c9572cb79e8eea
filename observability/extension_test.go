package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/syncengine/ext"
	"github.com/xraph/syncengine/job"
	"github.com/xraph/syncengine/observability"
)

// With no global MeterProvider the counters are noop; the hooks must still
// run cleanly and return nil.
func TestMetricsExtension_HooksSucceedWithNoopMeter(t *testing.T) {
	m := observability.NewMetricsExtension()

	if m.Name() != "observability-metrics" {
		t.Errorf("Name() = %q", m.Name())
	}

	ctx := context.Background()
	j := job.New(job.Request{Command: "send_message"})

	if err := m.OnJobSubmitted(ctx, j); err != nil {
		t.Errorf("OnJobSubmitted: %v", err)
	}
	if err := m.OnAttemptStarted(ctx, j); err != nil {
		t.Errorf("OnAttemptStarted: %v", err)
	}
	if err := m.OnJobCompleted(ctx, j, time.Second); err != nil {
		t.Errorf("OnJobCompleted: %v", err)
	}
	if err := m.OnJobRetrying(ctx, j, 1, time.Now()); err != nil {
		t.Errorf("OnJobRetrying: %v", err)
	}
	if err := m.OnJobDropped(ctx, j, ext.DropExhausted, errors.New("boom")); err != nil {
		t.Errorf("OnJobDropped: %v", err)
	}
	if err := m.OnJobExpired(ctx, j); err != nil {
		t.Errorf("OnJobExpired: %v", err)
	}
}
