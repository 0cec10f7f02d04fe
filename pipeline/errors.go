package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline admission.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrBackpressure indicates the in-flight ceiling was reached. The frame
	// was not queued.
	ErrBackpressure = errors.New("in-flight frame limit reached")

	// ErrNilCallback indicates a submission without a completion callback.
	ErrNilCallback = errors.New("completion callback is nil")

	// ErrInvalidOutput indicates an unknown output mode.
	ErrInvalidOutput = errors.New("invalid output mode")
)

// FrameError reports a frame that failed after admission. It is delivered
// through the frame's callback, never returned by Submit.
type FrameError struct {
	// ID is the failed task.
	ID TaskID
	// Stage is the state the task was in when it failed.
	Stage State
	// Err is the cause. It wraps render.ErrContext, effect.ErrEffect or
	// scheduler.ErrStopped.
	Err error
}

// Error implements error.
func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d failed while %s: %v", e.ID, e.Stage, e.Err)
}

// Unwrap returns the cause.
func (e *FrameError) Unwrap() error {
	return e.Err
}
