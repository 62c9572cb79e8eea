package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/syncengine"
	"github.com/xraph/syncengine/backoff"
	"github.com/xraph/syncengine/droplog"
	"github.com/xraph/syncengine/ext"
	"github.com/xraph/syncengine/job"
	"github.com/xraph/syncengine/middleware"
	"github.com/xraph/syncengine/netstate"
	"github.com/xraph/syncengine/scheduler"
	"github.com/xraph/syncengine/store/memory"
	"github.com/xraph/syncengine/telemetry"
	"github.com/xraph/syncengine/worker"
)

type fixture struct {
	store    *memory.Store
	registry *job.Registry
	net      *netstate.Manual
	sink     *telemetry.Recorder
	exec     *worker.Executor
}

// newFixture wires an Executor with an in-memory store, an always-online
// network, a short constant backoff, and a recovery middleware, the same
// shape the engine assembles in production.
func newFixture(t *testing.T, opts ...worker.Option) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		store:    memory.New(),
		registry: job.NewRegistry(),
		net:      netstate.NewManual(true),
		sink:     telemetry.NewRecorder(),
	}

	base := []worker.Option{
		worker.WithBackoff(backoff.NewConstant(5*time.Millisecond), backoff.NewConstant(5*time.Millisecond)),
		worker.WithMiddleware(middleware.Recover(logger)),
	}
	f.exec = worker.NewExecutor(
		f.registry,
		ext.NewRegistry(logger),
		f.store,
		scheduler.New(scheduler.WithFallbackInterval(20*time.Millisecond)),
		f.net,
		f.sink,
		logger,
		append(base, opts...)...,
	)
	return f
}

func (f *fixture) submit(t *testing.T, j *job.Job) {
	t.Helper()
	if err := f.store.CreateJob(context.Background(), j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
}

func (f *fixture) mustBeGone(t *testing.T, j *job.Job) {
	t.Helper()
	if _, err := f.store.GetJob(context.Background(), j.ID); !errors.Is(err, syncengine.ErrJobNotFound) {
		t.Fatalf("expected job removed from store, got %v", err)
	}
}

func TestRun_SuccessRemovesJob(t *testing.T) {
	f := newFixture(t)

	var calls int32
	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		atomic.AddInt32(&calls, 1)
		return job.Success()
	})

	j := job.New(job.Request{Command: "send_message", ConversationID: "conv-1"})
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("handler called %d times, want 1", n)
	}
	f.mustBeGone(t, j)
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	f := newFixture(t)

	var calls int32
	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		if atomic.AddInt32(&calls, 1) <= 3 {
			return job.Retry(errors.New("remote unavailable"))
		}
		return job.Success()
	})

	j := job.New(job.Request{Command: "send_message"})
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if !res.OK() {
		t.Fatalf("expected eventual success, got %v", res.Err)
	}
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("handler called %d times, want 4", n)
	}
	f.mustBeGone(t, j)
	if f.sink.Len() != 0 {
		t.Fatalf("expected no telemetry reports, got %d", f.sink.Len())
	}
}

func TestRun_FatalRemovesWithoutRetry(t *testing.T) {
	f := newFixture(t)

	var calls int32
	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		atomic.AddInt32(&calls, 1)
		return job.Fatal(errors.New("malformed request"))
	})

	j := job.New(job.Request{Command: "send_message"})
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if res.OK() || res.Retryable {
		t.Fatalf("expected terminal failure, got %+v", res)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("handler called %d times, want 1", n)
	}
	f.mustBeGone(t, j)
	// Fatal without WithReport stays out of telemetry.
	if f.sink.Len() != 0 {
		t.Fatalf("expected no telemetry reports, got %d", f.sink.Len())
	}
}

func TestRun_FatalWithReportReachesTelemetry(t *testing.T) {
	f := newFixture(t)

	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		return job.Fatal(errors.New("rejected by server")).WithReport()
	})

	j := job.New(job.Request{Command: "send_message"})
	f.submit(t, j)

	f.exec.Run(context.Background(), j)
	if f.sink.Len() != 1 {
		t.Fatalf("expected 1 telemetry report, got %d", f.sink.Len())
	}
	if got := f.sink.Reports()[0].Detail["reason"]; got != "fatal" {
		t.Fatalf("got reason %q, want fatal", got)
	}
}

func TestRun_ExhaustionAfterCeiling(t *testing.T) {
	f := newFixture(t, worker.WithMaxAttempts(3))

	var calls int32
	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		atomic.AddInt32(&calls, 1)
		return job.Retry(errors.New("remote unavailable"))
	})

	j := job.New(job.Request{Command: "send_message"})
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if res.OK() || res.Retryable {
		t.Fatalf("expected terminal failure, got %+v", res)
	}
	if !errors.Is(res.Err, syncengine.ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted, got %v", res.Err)
	}

	// Ceiling 3 means the 4th attempt is the one that trips it.
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("handler called %d times, want 4", n)
	}
	f.mustBeGone(t, j)

	if f.sink.Len() != 1 {
		t.Fatalf("expected exactly 1 telemetry report, got %d", f.sink.Len())
	}
	if got := f.sink.Reports()[0].Detail["reason"]; got != "exhausted" {
		t.Fatalf("got reason %q, want exhausted", got)
	}
}

func TestRun_DeadlineElapsedAfterRetryableFailure(t *testing.T) {
	f := newFixture(t)

	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		return job.Retry(errors.New("remote unavailable"))
	})

	j := job.New(job.Request{Command: "send_message"})
	j.Deadline = time.Now().UTC().Add(-time.Second)
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if res.OK() || res.Retryable {
		t.Fatalf("expected terminal failure, got %+v", res)
	}
	if !errors.Is(res.Err, syncengine.ErrDeadlineElapsed) {
		t.Fatalf("expected ErrDeadlineElapsed, got %v", res.Err)
	}
	f.mustBeGone(t, j)

	if f.sink.Len() != 1 {
		t.Fatalf("expected 1 telemetry report, got %d", f.sink.Len())
	}
	if got := f.sink.Reports()[0].Detail["reason"]; got != "timed_out" {
		t.Fatalf("got reason %q, want timed_out", got)
	}
}

func TestRun_OptionalPastDeadlineNeverExecutes(t *testing.T) {
	f := newFixture(t)

	var calls int32
	f.registry.Register("send_typing", func(_ context.Context, _ job.Request) job.Result {
		atomic.AddInt32(&calls, 1)
		return job.Success()
	})

	j := job.New(job.Request{Command: "send_typing", ConversationID: "conv-1"})
	j.Optional = true
	j.Deadline = time.Now().UTC().Add(-time.Second)
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if !res.OK() {
		t.Fatalf("expected silent success for expired optional job, got %v", res.Err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("handler called %d times, want 0", n)
	}
	f.mustBeGone(t, j)
	if f.sink.Len() != 0 {
		t.Fatalf("expected no telemetry reports, got %d", f.sink.Len())
	}
}

func TestRun_RetryableFailureReschedules(t *testing.T) {
	f := newFixture(t)

	// One failure, then block until the test inspects the stored record.
	release := make(chan struct{})
	var calls int32
	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		if atomic.AddInt32(&calls, 1) == 1 {
			return job.Retry(errors.New("remote unavailable"))
		}
		<-release
		return job.Success()
	})

	j := job.New(job.Request{Command: "send_message"})
	f.submit(t, j)

	before := time.Now().UTC()
	done := make(chan job.Result, 1)
	go func() { done <- f.exec.Run(context.Background(), j) }()

	// Wait until the second attempt is in flight; by then the record has
	// gone through the failed state with a rescheduled NextAttemptAt.
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&calls) < 2 {
		select {
		case <-deadline:
			t.Fatal("second attempt never started")
		case <-time.After(time.Millisecond):
		}
	}

	got, err := f.store.GetJob(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.State != job.StateSyncing {
		t.Fatalf("got state %q, want syncing during attempt", got.State)
	}
	if got.Attempts != 2 {
		t.Fatalf("got attempts %d, want 2", got.Attempts)
	}
	if !got.NextAttemptAt.After(before) {
		t.Fatal("NextAttemptAt not pushed past the first failure")
	}

	close(release)
	if res := <-done; !res.OK() {
		t.Fatalf("expected success, got %v", res.Err)
	}
}

func TestRun_UnknownCommandIsFatal(t *testing.T) {
	f := newFixture(t)

	j := job.New(job.Request{Command: "not_registered"})
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if res.OK() || res.Retryable {
		t.Fatalf("expected terminal failure, got %+v", res)
	}
	if !errors.Is(res.Err, syncengine.ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", res.Err)
	}
	f.mustBeGone(t, j)
	if f.sink.Len() != 1 {
		t.Fatalf("expected 1 telemetry report, got %d", f.sink.Len())
	}
}

func TestRun_HandlerPanicIsRetryable(t *testing.T) {
	f := newFixture(t, worker.WithMaxAttempts(1))

	var calls int32
	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		atomic.AddInt32(&calls, 1)
		panic("handler bug")
	})

	j := job.New(job.Request{Command: "send_message"})
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if res.OK() || res.Retryable {
		t.Fatalf("expected exhaustion after panics, got %+v", res)
	}
	if !errors.Is(res.Err, syncengine.ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted, got %v", res.Err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("handler called %d times, want 2", n)
	}
}

func TestRun_OfflineFlagSetWhileOffline(t *testing.T) {
	// The fixture scheduler carries no network condition, so attempts run
	// even while the provider reports offline. The handler inspects its
	// own record mid-attempt to observe the flag written at attempt start.
	f := newFixture(t)
	f.net.SetOnline(false)

	j := job.New(job.Request{Command: "send_message"})

	var observedOffline atomic.Bool
	f.registry.Register("send_message", func(ctx context.Context, _ job.Request) job.Result {
		cur, err := f.store.GetJob(ctx, j.ID)
		if err == nil && cur.Offline {
			observedOffline.Store(true)
		}
		return job.Success()
	})
	f.submit(t, j)

	res := f.exec.Run(context.Background(), j)
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if !observedOffline.Load() {
		t.Fatal("Offline flag not set while the network was down")
	}
}

func TestRun_DropLogRecordsExhaustion(t *testing.T) {
	st := memory.New()
	svc := droplog.NewService(st, st)
	f := newFixtureWithStore(t, st, worker.WithMaxAttempts(1), worker.WithDropLog(svc))

	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		return job.Retry(errors.New("remote unavailable"))
	})

	j := job.New(job.Request{Command: "send_message", ConversationID: "conv-9"})
	f.submit(t, j)

	f.exec.Run(context.Background(), j)

	entries, err := st.ListDrops(context.Background(), droplog.ListOpts{})
	if err != nil {
		t.Fatalf("ListDrops: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d drop-log entries, want 1", len(entries))
	}
	e := entries[0]
	if e.JobID != j.ID {
		t.Fatalf("got job ID %s, want %s", e.JobID, j.ID)
	}
	if e.Reason != string(ext.DropExhausted) {
		t.Fatalf("got reason %q, want %q", e.Reason, ext.DropExhausted)
	}
	if e.Attempts != 2 {
		t.Fatalf("got attempts %d, want 2", e.Attempts)
	}
}

// newFixtureWithStore is newFixture with a caller-supplied store, for
// tests that need to share the backend with other collaborators.
func newFixtureWithStore(t *testing.T, st *memory.Store, opts ...worker.Option) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		store:    st,
		registry: job.NewRegistry(),
		net:      netstate.NewManual(true),
		sink:     telemetry.NewRecorder(),
	}

	base := []worker.Option{
		worker.WithBackoff(backoff.NewConstant(5*time.Millisecond), backoff.NewConstant(5*time.Millisecond)),
		worker.WithMiddleware(middleware.Recover(slog.New(slog.NewTextHandler(io.Discard, nil)))),
	}
	f.exec = worker.NewExecutor(
		f.registry,
		ext.NewRegistry(logger),
		st,
		scheduler.New(scheduler.WithFallbackInterval(20*time.Millisecond)),
		f.net,
		f.sink,
		logger,
		append(base, opts...)...,
	)
	return f
}

func TestRun_ContextCancelDuringBackoffWait(t *testing.T) {
	f := newFixture(t, worker.WithBackoff(backoff.NewConstant(time.Hour), backoff.NewConstant(time.Hour)))

	f.registry.Register("send_message", func(_ context.Context, _ job.Request) job.Result {
		return job.Retry(errors.New("remote unavailable"))
	})

	j := job.New(job.Request{Command: "send_message"})
	f.submit(t, j)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan job.Result, 1)
	go func() { done <- f.exec.Run(ctx, j) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		if res.OK() || res.Retryable {
			t.Fatalf("expected terminal failure on cancellation, got %+v", res)
		}
		if !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled in chain, got %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// The failed record survives cancellation for a later recovery sweep.
	got, err := f.store.GetJob(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.State != job.StateFailed {
		t.Fatalf("got state %q, want failed", got.State)
	}
}
