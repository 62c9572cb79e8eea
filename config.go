package syncengine

import "time"

// Config holds configuration for the sync engine.
type Config struct {
	// MaxAttempts is the retry ceiling shared across all jobs. A retryable
	// failure whose attempt count exceeds this ceiling is terminal.
	MaxAttempts int

	// WatchdogTimeout is how long a single handler invocation may run
	// before the watchdog emits a telemetry report. The watchdog is
	// observational only; it never cancels the in-flight call.
	WatchdogTimeout time.Duration

	// ReadyPollFallback is the periodic re-check interval inside the
	// precondition gate, so jobs whose retry time has passed are picked up
	// even when no external wake signal arrives.
	ReadyPollFallback time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       10,
		WatchdogTimeout:   10 * time.Minute,
		ReadyPollFallback: 30 * time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}
