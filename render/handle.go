package render

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/offscreen/interfaces"
	"github.com/opd-ai/offscreen/limits"
)

const (
	stateUninitialized int32 = iota
	stateReady
	stateDeinitialized
)

// A target's Init may leave its context current, so right after Init the
// handle does not know whether the context is current.
const (
	contextUnknown = iota
	contextCurrent
	contextReleased
)

// Handle guards an IRenderTarget with lifecycle and single-owner checks.
//
// Every method except SharingContext is meant to run on the render worker.
// The busy flag detects a second render pass entering while one is in
// progress, which would mean the context escaped its owner.
type Handle struct {
	target interfaces.IRenderTarget
	state  atomic.Int32
	busy   atomic.Bool

	// Render-worker only.
	context     int
	orientation interfaces.Orientation
}

// NewHandle wraps target. The target is not touched until Init.
func NewHandle(target interfaces.IRenderTarget) *Handle {
	return &Handle{target: target}
}

// Init initializes the underlying target.
func (h *Handle) Init() error {
	switch h.state.Load() {
	case stateReady:
		return ErrAlreadyInitialized
	case stateDeinitialized:
		return ErrDeinitialized
	}

	if err := h.target.Init(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Handle.Init",
			"error":    err.Error(),
		}).Error("Render target initialization failed")
		return fmt.Errorf("%w: init: %w", ErrContext, err)
	}
	h.state.Store(stateReady)

	logrus.WithFields(logrus.Fields{
		"function": "Handle.Init",
	}).Debug("Render target initialized")
	return nil
}

// Deinit deactivates the context if needed and releases the target. The
// handle is unusable afterwards.
func (h *Handle) Deinit() error {
	if err := h.checkReady(); err != nil {
		return err
	}
	if h.busy.Load() {
		return ErrContextBusy
	}

	if h.context == contextCurrent {
		if err := h.target.DeactivateContext(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Handle.Deinit",
				"error":    err.Error(),
			}).Warn("Context deactivation before deinit failed")
		}
		h.context = contextReleased
	}

	h.state.Store(stateDeinitialized)
	if err := h.target.Deinit(); err != nil {
		return fmt.Errorf("%w: deinit: %w", ErrContext, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Handle.Deinit",
	}).Debug("Render target deinitialized")
	return nil
}

// Initialized reports whether Init succeeded and Deinit has not run.
func (h *Handle) Initialized() bool {
	return h.state.Load() == stateReady
}

// SurfaceChanged resizes the target. Fails with ErrContextBusy mid-render.
func (h *Handle) SurfaceChanged(width, height int) error {
	if err := h.checkReady(); err != nil {
		return err
	}
	if err := limits.ValidateDimensions(width, height); err != nil {
		return err
	}
	if !h.busy.CompareAndSwap(false, true) {
		return ErrContextBusy
	}
	defer h.busy.Store(false)

	if err := h.target.SurfaceChanged(width, height); err != nil {
		return fmt.Errorf("%w: surface changed: %w", ErrContext, err)
	}
	return nil
}

// Begin enters a render pass. Every successful Begin must be paired with End.
func (h *Handle) Begin() error {
	if err := h.checkReady(); err != nil {
		return err
	}
	if !h.busy.CompareAndSwap(false, true) {
		return ErrContextBusy
	}
	return nil
}

// End leaves the render pass started by Begin.
func (h *Handle) End() {
	h.busy.Store(false)
}

// Activate makes the context current unless it already is.
func (h *Handle) Activate() error {
	if err := h.checkReady(); err != nil {
		return err
	}
	if h.context == contextCurrent {
		return nil
	}
	if err := h.target.ActivateContext(); err != nil {
		return fmt.Errorf("%w: activate: %w", ErrContext, err)
	}
	h.context = contextCurrent
	return nil
}

// Deactivate releases the context so a peer context can share resources
// with it. The next Activate makes it current again. Right after Init the
// call always reaches the target.
func (h *Handle) Deactivate() error {
	if err := h.checkReady(); err != nil {
		return err
	}
	if h.context == contextReleased {
		return nil
	}
	if err := h.target.DeactivateContext(); err != nil {
		return fmt.Errorf("%w: deactivate: %w", ErrContext, err)
	}
	h.context = contextReleased
	return nil
}

// Active reports whether the context is current on the render worker.
func (h *Handle) Active() bool {
	return h.context == contextCurrent
}

// Prepare readies the back buffer and returns the canvas for this pass.
func (h *Handle) Prepare() (interfaces.ICanvas, error) {
	if err := h.checkRendering(); err != nil {
		return nil, err
	}
	canvas, err := h.target.PrepareRendering()
	if err != nil {
		return nil, fmt.Errorf("%w: prepare rendering: %w", ErrContext, err)
	}
	return canvas, nil
}

// Orient sets the output transform and remembers it as the default.
func (h *Handle) Orient(o interfaces.Orientation) error {
	if err := h.checkReady(); err != nil {
		return err
	}
	if !o.Rotation.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidOrientation, o)
	}
	if err := h.target.OrientImage(o); err != nil {
		return fmt.Errorf("%w: orient: %w", ErrContext, err)
	}
	h.orientation = o
	return nil
}

// Orientation returns the orientation most recently applied.
func (h *Handle) Orientation() interfaces.Orientation {
	return h.orientation
}

// ReadCurrentBuffer reads the rendered pixels back. Blocks the render worker.
func (h *Handle) ReadCurrentBuffer() (*interfaces.Data, error) {
	if err := h.checkRendering(); err != nil {
		return nil, err
	}
	data, err := h.target.ReadCurrentBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: read back: %w", ErrContext, err)
	}
	return data, nil
}

// CurrentBufferTexture returns the texture handle of the rendered buffer.
func (h *Handle) CurrentBufferTexture() (interfaces.TextureID, error) {
	if err := h.checkRendering(); err != nil {
		return 0, err
	}
	id, err := h.target.CurrentBufferTexture()
	if err != nil {
		return 0, fmt.Errorf("%w: texture: %w", ErrContext, err)
	}
	return id, nil
}

// SharingContext returns the target's opaque sharing token. Safe from any
// goroutine.
func (h *Handle) SharingContext() (interfaces.SharingContext, error) {
	if h.state.Load() == stateDeinitialized {
		return 0, ErrDeinitialized
	}
	return h.target.SharingContext(), nil
}

func (h *Handle) checkReady() error {
	switch h.state.Load() {
	case stateUninitialized:
		return ErrNotInitialized
	case stateDeinitialized:
		return ErrDeinitialized
	}
	return nil
}

func (h *Handle) checkRendering() error {
	if err := h.checkReady(); err != nil {
		return err
	}
	if h.context != contextCurrent {
		return ErrContextInactive
	}
	return nil
}
