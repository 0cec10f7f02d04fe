// Package scheduler runs work on a dedicated render worker, a small
// auxiliary pool and an ordered delivery worker.
//
// A Sequence is a single goroutine draining a FIFO queue. When created
// with lockThread set it pins itself to an OS thread for its whole life,
// which is what graphics contexts bound to a thread require. Work is
// posted, never called directly, so everything touching the context is
// serialized in submission order.
//
// A Scheduler combines three executors:
//
//   - the render sequence, the only goroutine allowed to touch the context
//   - an auxiliary errgroup with a bounded number of goroutines for work
//     that must stay off the render worker, such as pixel format conversion
//   - the delivery sequence, which fires completion callbacks in the order
//     they were queued so callers never run on the render worker
//
// # Shutdown
//
// Stop closes render admission first (Post returns ErrShuttingDown),
// cancels render work that has not started with ErrStopped, lets the
// running task finish, runs the teardown function on the render worker,
// then closes and waits for the auxiliary pool and finally drains the
// delivery sequence. Work the running task hands to the auxiliary pool is
// still accepted. Nothing queued
// is dropped without its Cancel being called.
//
// Example:
//
//	s := scheduler.New(scheduler.Config{AuxWorkers: 2, LockThread: true})
//	if err := s.Start(target.Init); err != nil {
//		return err
//	}
//	defer s.Stop(func() { _ = target.Deinit() })
//
//	s.ScheduleWithDone(render, func(err error) {
//		log.Println("frame done:", err)
//	})
package scheduler
