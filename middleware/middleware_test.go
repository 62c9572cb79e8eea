package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/syncengine/job"
	"github.com/xraph/syncengine/middleware"
	"github.com/xraph/syncengine/telemetry"
)

func testJob() *job.Job {
	return job.New(job.Request{Command: "send_message", ConversationID: "conv-1"})
}

func TestChain_Order(t *testing.T) {
	var order []string

	mk := func(name string) middleware.Middleware {
		return func(ctx context.Context, _ *job.Job, next middleware.Handler) job.Result {
			order = append(order, name+":before")
			res := next(ctx)
			order = append(order, name+":after")
			return res
		}
	}

	chain := middleware.Chain(mk("outer"), mk("inner"))
	res := chain(context.Background(), testJob(), func(_ context.Context) job.Result {
		order = append(order, "handler")
		return job.Success()
	})

	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestChain_Empty(t *testing.T) {
	chain := middleware.Chain()
	res := chain(context.Background(), testJob(), func(_ context.Context) job.Result {
		return job.Retry(errors.New("x"))
	})
	if res.OK() || !res.Retryable {
		t.Errorf("empty chain should pass the result through, got %+v", res)
	}
}

func TestRecover_ConvertsPanicToRetryableFailure(t *testing.T) {
	mw := middleware.Recover(slog.Default())

	res := mw(context.Background(), testJob(), func(_ context.Context) job.Result {
		panic("handler exploded")
	})

	if res.OK() {
		t.Fatal("expected a failure result")
	}
	if !res.Retryable {
		t.Error("panic should yield a retryable failure")
	}
	if res.Err == nil || res.Err.Error() == "" {
		t.Error("expected a descriptive error")
	}
}

func TestRecover_PassesThroughNormalResults(t *testing.T) {
	mw := middleware.Recover(slog.Default())

	want := job.Fatal(errors.New("domain says no")).WithReport()
	res := mw(context.Background(), testJob(), func(_ context.Context) job.Result {
		return want
	})

	if res.Retryable != want.Retryable || res.Report != want.Report || !errors.Is(res.Err, want.Err) {
		t.Errorf("result altered: %+v, want %+v", res, want)
	}
}

func TestWatchdog_ReportsLongAttemptWithoutCancelling(t *testing.T) {
	rec := telemetry.NewRecorder()
	mw := middleware.Watchdog(rec, 20*time.Millisecond)

	j := testJob()
	res := mw(context.Background(), j, func(ctx context.Context) job.Result {
		time.Sleep(60 * time.Millisecond)
		if ctx.Err() != nil {
			return job.Fatal(ctx.Err())
		}
		return job.Success()
	})

	if !res.OK() {
		t.Fatalf("watchdog must not affect the in-flight call: %v", res.Err)
	}
	if rec.Len() != 1 {
		t.Fatalf("got %d reports, want 1", rec.Len())
	}

	detail := rec.Reports()[0].Detail
	if detail["job_id"] != j.ID.String() {
		t.Errorf("report job_id = %q, want %q", detail["job_id"], j.ID.String())
	}
	if detail["command"] != "send_message" {
		t.Errorf("report command = %q, want %q", detail["command"], "send_message")
	}
}

func TestWatchdog_NoReportForFastAttempt(t *testing.T) {
	rec := telemetry.NewRecorder()
	mw := middleware.Watchdog(rec, time.Minute)

	_ = mw(context.Background(), testJob(), func(_ context.Context) job.Result {
		return job.Success()
	})

	// Give a stray timer a moment to fire if the stop were broken.
	time.Sleep(10 * time.Millisecond)
	if rec.Len() != 0 {
		t.Errorf("got %d reports, want 0", rec.Len())
	}
}

func TestLogging_PassesResultThrough(t *testing.T) {
	mw := middleware.Logging(slog.Default())

	res := mw(context.Background(), testJob(), func(_ context.Context) job.Result {
		return job.Retry(errors.New("transient"))
	})
	if res.OK() || !res.Retryable {
		t.Errorf("logging must not alter the result, got %+v", res)
	}
}
