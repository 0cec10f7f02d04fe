package scheduler

import "errors"

// Sentinel errors for scheduler operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrNotStarted indicates work was posted before Start.
	ErrNotStarted = errors.New("scheduler not started")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrShuttingDown indicates work was posted after Stop began.
	ErrShuttingDown = errors.New("scheduler shutting down")

	// ErrStopped is passed to Cancel for work that never ran because the
	// scheduler stopped.
	ErrStopped = errors.New("scheduler stopped")

	// ErrTaskPanic indicates scheduled work panicked.
	ErrTaskPanic = errors.New("scheduled task panicked")
)
