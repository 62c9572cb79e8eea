package syncengine

import "errors"

var (
	// Store errors.
	ErrNoStore         = errors.New("syncengine: no store configured")
	ErrStoreClosed     = errors.New("syncengine: store closed")
	ErrMigrationFailed = errors.New("syncengine: migration failed")

	// Not found errors.
	ErrJobNotFound  = errors.New("syncengine: job not found")
	ErrDropNotFound = errors.New("syncengine: drop entry not found")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("syncengine: job already exists")

	// Execution errors.
	ErrNoHandler         = errors.New("syncengine: no handler registered for command")
	ErrAttemptsExhausted = errors.New("syncengine: retry attempts exhausted")
	ErrDeadlineElapsed   = errors.New("syncengine: job deadline elapsed")
	ErrShuttingDown      = errors.New("syncengine: engine shutting down")
)
