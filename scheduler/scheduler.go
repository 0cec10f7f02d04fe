package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Config sizes a Scheduler.
type Config struct {
	// Name prefixes the sequence names in logs.
	Name string
	// AuxWorkers bounds concurrent auxiliary work. Values below 1 mean 1.
	AuxWorkers int
	// LockThread pins the render worker to an OS thread.
	LockThread bool
}

// Scheduler owns the render worker, the auxiliary pool and the delivery
// worker.
type Scheduler struct {
	render   *Sequence
	delivery *Sequence

	auxMu sync.Mutex
	aux   *errgroup.Group

	stopOnce sync.Once
	stopping chan struct{}
}

// New creates a scheduler. Nothing runs until Start.
func New(cfg Config) *Scheduler {
	name := cfg.Name
	if name == "" {
		name = "offscreen"
	}
	workers := cfg.AuxWorkers
	if workers < 1 {
		workers = 1
	}

	aux := new(errgroup.Group)
	aux.SetLimit(workers)

	return &Scheduler{
		render:   NewSequence(name+"-render", cfg.LockThread),
		delivery: NewSequence(name+"-delivery", false),
		aux:      aux,
		stopping: make(chan struct{}),
	}
}

// SetPauseHooks forwards to the render sequence. Must be called before
// Start.
func (s *Scheduler) SetPauseHooks(onPause, onResume func()) {
	s.render.SetPauseHooks(onPause, onResume)
}

// Start launches the delivery worker and then the render worker, running
// setup on the render worker first.
func (s *Scheduler) Start(setup func() error) error {
	if err := s.delivery.Start(nil); err != nil {
		return err
	}
	if err := s.render.Start(setup); err != nil {
		s.delivery.Stop(DrainPending, nil)
		return err
	}
	return nil
}

// Submit posts t to the render worker.
func (s *Scheduler) Submit(t Task) error {
	return s.render.Post(t)
}

// Schedule posts work to the render worker. Its error is logged.
func (s *Scheduler) Schedule(work func() error) error {
	return s.ScheduleWithDone(work, nil)
}

// ScheduleWithDone posts work to the render worker. onDone receives the
// result of work, or ErrStopped if work never ran, on the delivery worker.
func (s *Scheduler) ScheduleWithDone(work func() error, onDone func(error)) error {
	return s.render.Post(&doneTask{s: s, work: work, onDone: onDone})
}

// Go runs fn on the auxiliary pool, blocking while the pool is full. It
// returns ErrShuttingDown once Stop has begun.
func (s *Scheduler) Go(fn func() error) error {
	select {
	case <-s.stopping:
		return ErrShuttingDown
	default:
	}

	s.auxMu.Lock()
	defer s.auxMu.Unlock()
	select {
	case <-s.stopping:
		return ErrShuttingDown
	default:
	}

	s.aux.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
			}
		}()
		if err := fn(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Scheduler.Go",
				"error":    err.Error(),
			}).Debug("Auxiliary work failed")
		}
		return nil
	})
	return nil
}

// Deliver queues fn on the delivery worker. Delivery keeps accepting work
// until the render worker and auxiliary pool have stopped, so cancellations
// produced during Stop are still delivered.
func (s *Scheduler) Deliver(fn func()) error {
	return s.delivery.Post(TaskFunc(fn))
}

// Pause closes the render gate. The running task finishes; queued tasks
// wait until Resume.
func (s *Scheduler) Pause() {
	s.render.Pause()
}

// Resume opens the render gate.
func (s *Scheduler) Resume() {
	s.render.Resume()
}

// Paused reports whether the render gate is closed.
func (s *Scheduler) Paused() bool {
	return s.render.Paused()
}

// Pending returns the number of render tasks waiting to run.
func (s *Scheduler) Pending() int {
	return s.render.Len()
}

// Stop shuts everything down. See the package documentation for the order.
// Safe to call more than once; later calls wait for the first.
func (s *Scheduler) Stop(teardown func()) {
	s.stopOnce.Do(func() {
		// The running render task may still hand conversions to the
		// auxiliary pool, so the pool closes only after the render worker.
		s.render.Stop(CancelPending, teardown)
		close(s.stopping)

		// Holding auxMu makes sure no Go call is between its check and
		// aux.Go while Wait runs.
		s.auxMu.Lock()
		_ = s.aux.Wait()
		s.auxMu.Unlock()

		s.delivery.Stop(DrainPending, nil)

		logrus.WithFields(logrus.Fields{
			"function": "Scheduler.Stop",
			"sequence": s.render.Name(),
		}).Info("Scheduler stopped")
	})
	<-s.delivery.Done()
}

// Wait blocks until Stop finished or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case <-s.delivery.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type doneTask struct {
	s      *Scheduler
	work   func() error
	onDone func(error)
	once   sync.Once
}

func (t *doneTask) Run() {
	err := t.work()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "doneTask.Run",
			"error":    err.Error(),
		}).Debug("Scheduled work failed")
	}
	t.finish(err)
}

func (t *doneTask) Cancel(err error) {
	t.finish(err)
}

func (t *doneTask) finish(err error) {
	t.once.Do(func() {
		if t.onDone == nil {
			return
		}
		if derr := t.s.Deliver(func() { t.onDone(err) }); derr != nil {
			logrus.WithFields(logrus.Fields{
				"function": "doneTask.finish",
				"error":    derr.Error(),
			}).Warn("Completion could not be delivered")
		}
	})
}
