package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/syncengine"
	"github.com/xraph/syncengine/backoff"
	"github.com/xraph/syncengine/droplog"
	"github.com/xraph/syncengine/ext"
	"github.com/xraph/syncengine/id"
	"github.com/xraph/syncengine/job"
	mw "github.com/xraph/syncengine/middleware"
	"github.com/xraph/syncengine/netstate"
	"github.com/xraph/syncengine/observability"
	"github.com/xraph/syncengine/scheduler"
	"github.com/xraph/syncengine/store"
	"github.com/xraph/syncengine/telemetry"
	"github.com/xraph/syncengine/worker"
)

// Engine drives sync jobs from submission to terminal outcome. Each
// submitted job gets its own driver goroutine that survives retries and
// backoff waits; Shutdown cancels them all and waits for drain.
type Engine struct {
	cfg        syncengine.Config
	st         store.Store
	registry   *job.Registry
	extensions *ext.Registry
	sched      *scheduler.Scheduler
	exec       *worker.Executor
	drops      *droplog.Service
	net        netstate.Provider
	sink       telemetry.Sink
	logger     *slog.Logger

	pendingExts []ext.Extension
	mws         []mw.Middleware
	conditions  []scheduler.Condition
	general     backoff.Strategy
	conv        backoff.Strategy

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConfig replaces the engine's configuration.
func WithConfig(cfg syncengine.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithMaxAttempts sets the retry ceiling shared across jobs.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) { e.cfg.MaxAttempts = n }
}

// WithExtension registers an extension with the engine.
func WithExtension(x ext.Extension) Option {
	return func(e *Engine) { e.pendingExts = append(e.pendingExts, x) }
}

// WithMiddleware appends middleware to the engine's chain, after the
// default stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(e *Engine) { e.mws = append(e.mws, m) }
}

// WithCondition adds a readiness condition to the scheduler, alongside the
// network condition installed by default.
func WithCondition(c scheduler.Condition) Option {
	return func(e *Engine) { e.conditions = append(e.conditions, c) }
}

// WithNetwork sets the network state provider. Defaults to a manual
// provider that reports online.
func WithNetwork(p netstate.Provider) Option {
	return func(e *Engine) { e.net = p }
}

// WithTelemetry sets the telemetry sink for exhaustion, timeout, and
// flagged fatal reports. Defaults to a logging sink.
func WithTelemetry(s telemetry.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithBackoff sets the retry policies: general for independent jobs,
// conversation for conversation-scoped jobs.
func WithBackoff(general, conversation backoff.Strategy) Option {
	return func(e *Engine) {
		e.general = general
		e.conv = conversation
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the tracing
// middleware. If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// extension. If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}

// New creates an Engine over the given store backend.
func New(st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, syncengine.ErrNoStore
	}

	e := &Engine{
		cfg:      syncengine.DefaultConfig(),
		st:       st,
		registry: job.NewRegistry(),
		logger:   slog.Default(),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.extensions = ext.NewRegistry(e.logger)
	for _, x := range e.pendingExts {
		e.extensions.Register(x)
	}

	if e.net == nil {
		e.net = netstate.NewManual(true)
	}
	if e.sink == nil {
		e.sink = telemetry.NewLogSink(e.logger)
	}
	if e.general == nil {
		e.general = backoff.General()
	}
	if e.conv == nil {
		e.conv = backoff.Conversation()
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if e.meterProvider != nil {
		meter := e.meterProvider.Meter("github.com/xraph/syncengine/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	e.extensions.Register(obsExt)

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if e.tracerProvider != nil {
		tracer := e.tracerProvider.Tracer("github.com/xraph/syncengine")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Default middleware stack: logging → tracing → recover → watchdog.
	defaultMws := []mw.Middleware{
		mw.Logging(e.logger),
		tracingMw,
		mw.Recover(e.logger),
		mw.Watchdog(e.sink, e.cfg.WatchdogTimeout),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(e.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, e.mws...)

	schedOpts := []scheduler.Option{
		scheduler.WithCondition(scheduler.Network(e.net)),
		scheduler.WithFallbackInterval(e.cfg.ReadyPollFallback),
		scheduler.WithLogger(e.logger),
	}
	for _, c := range e.conditions {
		schedOpts = append(schedOpts, scheduler.WithCondition(c))
	}
	e.sched = scheduler.New(schedOpts...)

	e.drops = droplog.NewService(st, st)

	e.exec = worker.NewExecutor(
		e.registry,
		e.extensions,
		e.st,
		e.sched,
		e.net,
		e.sink,
		e.logger,
		worker.WithMiddleware(allMws...),
		worker.WithBackoff(e.general, e.conv),
		worker.WithMaxAttempts(e.cfg.MaxAttempts),
		worker.WithDropLog(e.drops),
	)

	e.runCtx, e.cancel = context.WithCancel(context.Background())

	return e, nil
}

// Register registers a typed command definition with the engine.
func Register[T any](e *Engine, def *job.Definition[T]) {
	job.RegisterDefinition(e.registry, def)
}

// Submit creates and starts driving a job for a typed payload.
func Submit[T any](ctx context.Context, e *Engine, command string, payload T, opts ...job.Option) (*job.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("syncengine/engine: marshal payload for command %q: %w", command, err)
	}
	return e.SubmitRequest(ctx, job.Request{Command: command, Payload: data}, opts...)
}

// SubmitRequest persists a job for the given request and starts driving it
// in the background. Requests without an idempotency key get a generated
// one. The returned job reflects the record as persisted; its execution
// outcome is observable through extensions and the drop log.
func (e *Engine) SubmitRequest(ctx context.Context, req job.Request, opts ...job.Option) (*job.Job, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, syncengine.ErrShuttingDown
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	j := job.NewWithOptions(req, opts...)

	if err := e.st.CreateJob(ctx, j); err != nil {
		return nil, err
	}

	e.extensions.EmitJobSubmitted(ctx, j)
	e.drive(j)

	cp := *j
	return &cp, nil
}

// Resume re-drives every persisted job that this engine is not already
// driving. Call it once at startup to pick up work left over from a
// previous process.
func (e *Engine) Resume(ctx context.Context) error {
	jobs, err := e.st.ListJobs(ctx, job.ListOpts{})
	if err != nil {
		return fmt.Errorf("syncengine/engine: list jobs for resume: %w", err)
	}

	var resumed int
	for _, j := range jobs {
		if e.drive(j) {
			resumed++
		}
	}

	if resumed > 0 {
		e.logger.Info("resumed persisted sync jobs", slog.Int("count", resumed))
	}
	return nil
}

// drive starts a goroutine running the job to a terminal outcome, keyed by
// job ID so the same record is never driven twice concurrently. Reports
// whether a new driver was started.
func (e *Engine) drive(j *job.Job) bool {
	key := j.ID.String()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	if _, ok := e.inflight[key]; ok {
		e.mu.Unlock()
		return false
	}
	e.inflight[key] = struct{}{}
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.inflight, key)
			e.mu.Unlock()
		}()

		e.exec.Run(e.runCtx, j)
	}()
	return true
}

// Shutdown stops accepting submissions, cancels all in-flight drivers, and
// waits for them to drain, bounded by the configured shutdown timeout and
// the given context. Interrupted jobs stay persisted for a later Resume.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(e.cfg.ShutdownTimeout)
	defer timer.Stop()

	var drainErr error
	select {
	case <-done:
	case <-timer.C:
		e.logger.Warn("shutdown timed out waiting for in-flight jobs")
	case <-ctx.Done():
		drainErr = ctx.Err()
	}

	e.extensions.EmitShutdown(context.WithoutCancel(ctx))
	return drainErr
}

// Replay resubmits a dropped entry's request as a fresh job and starts
// driving it.
func (e *Engine) Replay(ctx context.Context, entryID id.DropID) (*job.Job, error) {
	j, err := e.drops.Replay(ctx, entryID)
	if err != nil {
		return nil, err
	}
	e.extensions.EmitJobSubmitted(ctx, j)
	e.drive(j)
	return j, nil
}

// Registry returns the command handler registry.
func (e *Engine) Registry() *job.Registry { return e.registry }

// Extensions returns the extension registry.
func (e *Engine) Extensions() *ext.Registry { return e.extensions }

// DropLog returns the drop-log service for inspection and replay.
func (e *Engine) DropLog() *droplog.Service { return e.drops }

// Store returns the underlying store backend.
func (e *Engine) Store() store.Store { return e.st }

// Network returns the network state provider.
func (e *Engine) Network() netstate.Provider { return e.net }

// Scheduler returns the readiness scheduler.
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }
