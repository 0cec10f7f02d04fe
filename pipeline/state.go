package pipeline

import "fmt"

// State is a RenderTask's position in the pipeline.
type State uint32

const (
	// StateSubmitted means the frame passed admission.
	StateSubmitted State = iota
	// StateQueued means the task waits on the render worker queue.
	StateQueued
	// StateActivating means the render worker is making the context current.
	StateActivating
	// StateRendering means the effect is drawing the frame.
	StateRendering
	// StateReadingBack means pixels or a texture are being retrieved.
	StateReadingBack
	// StateCompleted means the callback received a result.
	StateCompleted
	// StateFailed means the callback received an error.
	StateFailed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StateQueued:
		return "queued"
	case StateActivating:
		return "activating"
	case StateRendering:
		return "rendering"
	case StateReadingBack:
		return "reading back"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// OutputMode selects what read-back produces.
type OutputMode int

const (
	// OutputRGBA delivers the raw RGBA read-back.
	OutputRGBA OutputMode = iota
	// OutputNV12 delivers NV12, converted off the render worker.
	OutputNV12
	// OutputI420 delivers I420, converted off the render worker.
	OutputI420
	// OutputTexture delivers a texture handle instead of bytes.
	OutputTexture
)

// String returns the mode name.
func (m OutputMode) String() string {
	switch m {
	case OutputRGBA:
		return "rgba"
	case OutputNV12:
		return "nv12"
	case OutputI420:
		return "i420"
	case OutputTexture:
		return "texture"
	default:
		return fmt.Sprintf("OutputMode(%d)", int(m))
	}
}

func (m OutputMode) valid() bool {
	return m >= OutputRGBA && m <= OutputTexture
}
