package render

import (
	"errors"
	"fmt"
)

// Sentinel errors for render operations.
// These errors enable reliable error classification using errors.Is().

// Lifecycle errors.
var (
	// ErrLifecycle indicates an operation invoked before Init or after Deinit.
	ErrLifecycle = errors.New("render target lifecycle violation")

	// ErrNotInitialized indicates the handle has not been initialized.
	ErrNotInitialized = fmt.Errorf("%w: not initialized", ErrLifecycle)

	// ErrAlreadyInitialized indicates Init was called twice.
	ErrAlreadyInitialized = fmt.Errorf("%w: already initialized", ErrLifecycle)

	// ErrDeinitialized indicates the handle was deinitialized.
	ErrDeinitialized = fmt.Errorf("%w: deinitialized", ErrLifecycle)
)

// Context errors.
var (
	// ErrContext indicates a failure reported by the graphics context.
	ErrContext = errors.New("render context failure")

	// ErrContextBusy indicates the context is already inside a render pass.
	ErrContextBusy = fmt.Errorf("%w: context busy", ErrContext)

	// ErrContextInactive indicates a render operation without an active context.
	ErrContextInactive = fmt.Errorf("%w: context not active", ErrContext)

	// ErrInvalidOrientation indicates a rotation that is not a right angle.
	ErrInvalidOrientation = fmt.Errorf("%w: invalid orientation", ErrContext)
)
