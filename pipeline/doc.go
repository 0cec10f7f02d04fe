// Package pipeline takes frames from submission to delivery.
//
// A frame moves through these states:
//
//	Submitted -> Queued -> Activating -> Rendering -> ReadingBack -> Completed
//
// with Failed reachable from every non-terminal state. Admission is the only
// place a frame can be refused: Submit checks the lifecycle and the
// in-flight Counter and returns ErrBackpressure, render.ErrLifecycle or
// scheduler.ErrShuttingDown synchronously. Once admitted, a frame is never
// dropped or reordered. Its callback fires exactly once, on the delivery
// worker, in admission order.
//
// Mid-pipeline failures arrive in the callback as *FrameError, which wraps
// render.ErrContext, effect.ErrEffect or scheduler.ErrStopped:
//
//	id, err := p.Submit(f, func(res *pipeline.Result, err error) {
//		if errors.Is(err, render.ErrContext) {
//			// activation or read-back failed; later frames still run
//		}
//	}, pipeline.WithOutput(pipeline.OutputNV12))
//
// Effect loads, unloads, scripting calls and resizes are queued on the same
// render worker as frames, so they take effect between frames in the order
// they were requested.
package pipeline
