package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/syncengine/job"
	"github.com/xraph/syncengine/middleware"
)

// Without a global TracerProvider the noop tracer is used; the middleware
// must still be a faithful pass-through.
func TestTracing_PassThrough(t *testing.T) {
	mw := middleware.Tracing()

	res := mw(context.Background(), testJob(), func(_ context.Context) job.Result {
		return job.Success()
	})
	if !res.OK() {
		t.Errorf("unexpected failure: %v", res.Err)
	}

	fail := mw(context.Background(), testJob(), func(_ context.Context) job.Result {
		return job.Fatal(errors.New("boom"))
	})
	if fail.OK() || fail.Retryable {
		t.Errorf("tracing must not alter the result, got %+v", fail)
	}
}
