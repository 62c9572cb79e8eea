package job

// Result is the outcome of a single handler invocation: either success,
// or a failure that is retryable or fatal. A fatal failure may additionally
// be flagged as worth reporting to the telemetry sink.
type Result struct {
	// Err is nil on success.
	Err error `json:"-"`

	// Retryable keeps the job alive for another attempt. Ignored when
	// Err is nil.
	Retryable bool `json:"retryable,omitempty"`

	// Report flags the failure as worth a telemetry report when it
	// retires the job.
	Report bool `json:"report,omitempty"`
}

// Success returns the successful result.
func Success() Result {
	return Result{}
}

// Retry returns a retryable failure. The job stays in the store and is
// rescheduled with backoff (until the attempts ceiling or deadline).
func Retry(err error) Result {
	return Result{Err: err, Retryable: true}
}

// Fatal returns a non-retryable failure. The job is removed from the store.
func Fatal(err error) Result {
	return Result{Err: err}
}

// WithReport marks the result as worth a telemetry report on terminal drop.
func (r Result) WithReport() Result {
	r.Report = true
	return r
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Err == nil
}
