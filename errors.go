package offscreen

import (
	"github.com/opd-ai/offscreen/effect"
	"github.com/opd-ai/offscreen/pipeline"
	"github.com/opd-ai/offscreen/render"
	"github.com/opd-ai/offscreen/scheduler"
)

// Error classes reported by a Player. Match them with errors.Is.
var (
	// ErrLifecycle reports an operation before start or after Close.
	ErrLifecycle = render.ErrLifecycle

	// ErrBackpressure reports a frame refused at the in-flight ceiling.
	ErrBackpressure = pipeline.ErrBackpressure

	// ErrContext reports a graphics context activation, render or
	// read-back failure.
	ErrContext = render.ErrContext

	// ErrEffect reports an effect load or application failure.
	ErrEffect = effect.ErrEffect

	// ErrShutdown reports work submitted while Close is in progress.
	ErrShutdown = scheduler.ErrShuttingDown

	// ErrStopped is delivered to frames cancelled by Close.
	ErrStopped = scheduler.ErrStopped
)
