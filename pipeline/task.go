package pipeline

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/offscreen/frame"
	"github.com/opd-ai/offscreen/interfaces"
	"github.com/opd-ai/offscreen/scheduler"
)

// TaskID identifies a RenderTask. IDs increase in admission order and are
// never reused by a Pipeline.
type TaskID uint64

// Callback receives the outcome of one frame. Exactly one of the arguments
// is non-nil. It runs on the delivery worker, never on the caller's
// goroutine or the render worker.
type Callback func(*Result, error)

// Result is a processed frame. The receiver owns Data.
type Result struct {
	ID TaskID
	// Data holds the read-back pixels. Nil for OutputTexture.
	Data *interfaces.Data
	// Texture is set for OutputTexture.
	Texture interfaces.TextureID
	// Effect is the effect that rendered the frame, "" when none.
	Effect string
	// Generation counts effect loads and unloads up to this frame.
	Generation uint64
	// Orientation is the transform applied at read-back.
	Orientation interfaces.Orientation
}

// SubmitOption customizes one submission.
type SubmitOption func(*RenderTask)

// WithOrientation requests an output transform for this frame only.
func WithOrientation(o interfaces.Orientation) SubmitOption {
	return func(t *RenderTask) {
		t.orientation = &o
	}
}

// WithOutput selects the output mode for this frame.
func WithOutput(m OutputMode) SubmitOption {
	return func(t *RenderTask) {
		t.output = m
	}
}

// RenderTask is one frame's journey through the pipeline. The pipeline owns
// it from admission until its callback has fired.
type RenderTask struct {
	id          TaskID
	p           *Pipeline
	frame       *frame.Frame
	orientation *interfaces.Orientation
	output      OutputMode
	callback    Callback

	state atomic.Uint32
	once  sync.Once
}

// ID returns the task identifier.
func (t *RenderTask) ID() TaskID {
	return t.id
}

// State returns the current state.
func (t *RenderTask) State() State {
	return State(t.state.Load())
}

func (t *RenderTask) setState(s State) {
	t.state.Store(uint32(s))
	logrus.WithFields(logrus.Fields{
		"function": "RenderTask.setState",
		"task_id":  t.id,
		"state":    s.String(),
	}).Trace("Frame state changed")
}

// Run drives the frame through the render context on the render worker.
func (t *RenderTask) Run() {
	res, err := t.render()
	if err != nil {
		t.deliver(func() (*Result, error) { return nil, err })
		return
	}

	switch t.output {
	case OutputNV12, OutputI420:
		t.convert(res)
	default:
		t.deliver(func() (*Result, error) { return res, nil })
	}
}

// Cancel fails the task with err. Used when the scheduler stops before the
// task ran, or when Run panicked.
func (t *RenderTask) Cancel(err error) {
	t.deliver(func() (*Result, error) { return nil, t.failure(err) })
}

func (t *RenderTask) render() (*Result, error) {
	h := t.p.handle

	t.setState(StateActivating)
	if err := h.Activate(); err != nil {
		return nil, t.failure(err)
	}
	if err := h.Begin(); err != nil {
		return nil, t.failure(err)
	}
	defer h.End()

	t.setState(StateRendering)
	orient := h.Orientation()
	if t.orientation != nil && *t.orientation != orient {
		previous := orient
		if err := h.Orient(*t.orientation); err != nil {
			return nil, t.failure(err)
		}
		defer func() {
			if err := h.Orient(previous); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "RenderTask.render",
					"task_id":  t.id,
					"error":    err.Error(),
				}).Warn("Failed to restore default orientation")
			}
		}()
		orient = *t.orientation
	}

	canvas, err := h.Prepare()
	if err != nil {
		return nil, t.failure(err)
	}
	if err := t.p.draw(t.frame, canvas); err != nil {
		return nil, t.failure(err)
	}

	t.setState(StateReadingBack)
	res := &Result{
		ID:          t.id,
		Effect:      t.p.effectName(),
		Generation:  t.p.generation.Load(),
		Orientation: orient,
	}
	if t.output == OutputTexture {
		id, err := h.CurrentBufferTexture()
		if err != nil {
			return nil, t.failure(err)
		}
		res.Texture = id
		return res, nil
	}

	data, err := h.ReadCurrentBuffer()
	if err != nil {
		return nil, t.failure(err)
	}
	res.Data = data
	return res, nil
}

// convert packs the read-back on the auxiliary pool. The delivery worker
// waits for it, so callbacks keep admission order.
func (t *RenderTask) convert(res *Result) {
	format := frame.FormatNV12
	if t.output == OutputI420 {
		format = frame.FormatI420
	}

	ready := make(chan struct{})
	var packed []byte
	var convErr error

	err := t.p.sched.Go(func() error {
		defer close(ready)
		img := &image.RGBA{
			Pix:    res.Data.Pix,
			Stride: res.Data.Width * 4,
			Rect:   image.Rect(0, 0, res.Data.Width, res.Data.Height),
		}
		packed, convErr = frame.Pack(img, format)
		return convErr
	})
	if err != nil {
		convErr = fmt.Errorf("%w: conversion not started: %w", scheduler.ErrStopped, err)
		close(ready)
	}

	t.deliver(func() (*Result, error) {
		<-ready
		if convErr != nil {
			return nil, t.failure(convErr)
		}
		res.Data = &interfaces.Data{
			Pix:    packed,
			Width:  res.Data.Width,
			Height: res.Data.Height,
			Format: format,
		}
		return res, nil
	})
}

func (t *RenderTask) failure(err error) error {
	var fe *FrameError
	if errors.As(err, &fe) {
		return err
	}
	return &FrameError{ID: t.id, Stage: t.State(), Err: err}
}

// deliver queues the completion on the delivery worker. outcome runs there
// too. Only the first call per task has any effect.
func (t *RenderTask) deliver(outcome func() (*Result, error)) {
	t.once.Do(func() {
		finish := func() {
			res, err := outcome()
			t.p.complete(t, res, err)
		}
		if err := t.p.sched.Deliver(finish); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "RenderTask.deliver",
				"task_id":  t.id,
				"error":    err.Error(),
			}).Warn("Delivery worker unavailable, completing inline")
			finish()
		}
	})
}
