// Package offscreen runs visual effects over camera frames on a dedicated
// render worker that owns the graphics context.
//
// A Player admits frames, renders them through the loaded effect in
// submission order and delivers each result to its callback exactly once.
// Every context-bound operation (rendering, read-back, effect load and
// unload, surface resize) runs on the render worker; callers never touch
// the context directly.
//
// # Getting Started
//
//	opts := offscreen.NewOptions()
//	opts.Width, opts.Height = 640, 480
//
//	player, err := offscreen.New(opts, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer player.Close()
//
//	player.CallbackEffectLoaded(func(path string, err error) {
//	    log.Printf("effect %q: %v", path, err)
//	})
//	_ = player.LoadEffect("effects/warm")
//
//	_, err = player.ProcessImageAsync(f, func(res *offscreen.Result, err error) {
//	    if err != nil {
//	        return
//	    }
//	    consume(res.Data.Pix)
//	})
//
// Passing a nil render target selects the software target from the render
// package.
//
// # Admission and Backpressure
//
// At most Options.MaxInFlight frames may be admitted but not yet delivered.
// ProcessImageAsync fails fast with ErrBackpressure instead of queueing
// more. Lifecycle and shutdown errors are also returned synchronously;
// failures after admission (context, effect) arrive through the callback.
//
// # Effects
//
// Effects are directories holding an effect.yaml manifest. Relative paths
// are searched in Options.ResourcePaths. Load and unload requests are
// queued behind frames already admitted, so every frame renders with the
// effect that was current when it was admitted. With Options.WatchEffects
// set, a loaded manifest is reloaded whenever it changes on disk.
//
// # Shutdown
//
// Close refuses new work, fails queued frames with ErrStopped, lets the
// frame being rendered finish and deinitializes the render target on the
// render worker. No callback fires after Close returns.
package offscreen
