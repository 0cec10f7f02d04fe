// Package testing provides instrumented collaborators for deterministic
// tests of the offscreen pipeline.
//
// # Overview
//
// The pipeline's guarantees are about who touches the render context and
// when. The doubles in this package make those guarantees observable:
//
//   - InstrumentedTarget wraps a render.SoftwareTarget. Every context
//     operation passes through a reentrancy guard that records a violation
//     when two operations overlap, and every call is appended to a log.
//     Activation and read-back failures can be injected, and rendering can
//     be slowed down or held on a gate to build up a queue.
//
//   - RecordingEffectPlayer implements interfaces.IEffectPlayer without any
//     effect engine. It records loads, unloads and draws together with the
//     effect that was active, so tests can assert what each frame saw.
//
// # Usage
//
//	target := testsim.NewInstrumentedTarget(4, 4)
//	player := testsim.NewRecordingEffectPlayer()
//	p, _ := pipeline.New(cfg, target, player)
//	_ = p.Start()
//	// ... submit frames ...
//	_ = p.Close()
//
//	if v := target.Violations(); v != 0 {
//	    t.Fatalf("%d overlapping context operations", v)
//	}
//	if n := target.CallsAfterDeinit(); n != 0 {
//	    t.Fatalf("%d context operations after deinit", n)
//	}
//
// # Thread Safety
//
// Inspection methods (Calls, Violations, Draws, ...) are safe from any
// goroutine. Fault injection setters are safe as well.
package testing
