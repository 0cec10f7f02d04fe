package scheduler

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// Task is a unit of work for a Sequence. Exactly one of Run or Cancel is
// called for every task accepted by Post, except that Cancel also follows a
// Run that panicked.
type Task interface {
	// Run executes the task on the sequence goroutine.
	Run()

	// Cancel reports that the task will not run, or that Run panicked.
	Cancel(err error)
}

// TaskFunc adapts a function to Task. Cancellation is ignored.
type TaskFunc func()

// Run calls f.
func (f TaskFunc) Run() { f() }

// Cancel does nothing.
func (f TaskFunc) Cancel(error) {}

// StopMode selects what happens to queued tasks on Stop.
type StopMode int

const (
	// CancelPending calls Cancel(ErrStopped) on every queued task.
	CancelPending StopMode = iota
	// DrainPending runs every queued task before stopping.
	DrainPending
)

// String returns the mode name.
func (m StopMode) String() string {
	switch m {
	case CancelPending:
		return "cancel"
	case DrainPending:
		return "drain"
	default:
		return fmt.Sprintf("StopMode(%d)", int(m))
	}
}

const (
	seqIdle int = iota
	seqRunning
	seqStopping
	seqStopped
)

// Sequence runs posted tasks one at a time, in posting order, on a single
// goroutine.
type Sequence struct {
	name       string
	lockThread bool

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Task
	state    int
	paused   bool
	mode     StopMode
	teardown func()
	onPause  func()
	onResume func()
	done     chan struct{}
}

// NewSequence creates a stopped sequence. With lockThread set the worker
// goroutine is wired to its OS thread from Start until it exits.
func NewSequence(name string, lockThread bool) *Sequence {
	s := &Sequence{
		name:       name,
		lockThread: lockThread,
		done:       make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Name returns the sequence name used in logs.
func (s *Sequence) Name() string {
	return s.name
}

// SetPauseHooks registers functions the worker calls when it observes the
// pause gate closing and opening. Must be called before Start.
func (s *Sequence) SetPauseHooks(onPause, onResume func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPause = onPause
	s.onResume = onResume
}

// Start launches the worker and runs setup on it before any task. A setup
// error stops the sequence and is returned.
func (s *Sequence) Start(setup func() error) error {
	s.mu.Lock()
	if s.state != seqIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = seqRunning
	s.mu.Unlock()

	initErr := make(chan error)
	go s.loop(setup, initErr)
	if err := <-initErr; err != nil {
		s.mu.Lock()
		s.state = seqStopped
		s.mu.Unlock()

		logrus.WithFields(logrus.Fields{
			"function": "Sequence.Start",
			"sequence": s.name,
			"error":    err.Error(),
		}).Error("Sequence setup failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Sequence.Start",
		"sequence":    s.name,
		"lock_thread": s.lockThread,
	}).Debug("Sequence started")
	return nil
}

// Post appends t to the queue.
func (s *Sequence) Post(t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case seqIdle:
		return ErrNotStarted
	case seqStopping:
		return ErrShuttingDown
	case seqStopped:
		return ErrStopped
	}
	s.queue = append(s.queue, t)
	s.cond.Signal()
	return nil
}

// Len returns the number of queued tasks, excluding the running one.
func (s *Sequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Pause closes the gate: the running task finishes, queued tasks wait.
func (s *Sequence) Pause() {
	s.mu.Lock()
	s.paused = true
	s.cond.Signal()
	s.mu.Unlock()
}

// Resume opens the gate.
func (s *Sequence) Resume() {
	s.mu.Lock()
	s.paused = false
	s.cond.Signal()
	s.mu.Unlock()
}

// Paused reports whether the gate is closed.
func (s *Sequence) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Stop closes admission, disposes of queued tasks according to mode, waits
// for the running task and then runs teardown on the worker. A stopped
// sequence ignores the pause gate. Stop is idempotent; later calls wait for
// the first to finish and their arguments are ignored.
func (s *Sequence) Stop(mode StopMode, teardown func()) {
	s.mu.Lock()
	switch s.state {
	case seqIdle:
		s.state = seqStopped
		close(s.done)
		s.mu.Unlock()
		return
	case seqRunning:
		s.state = seqStopping
		s.mode = mode
		s.teardown = teardown
		s.cond.Signal()
	}
	s.mu.Unlock()

	<-s.done

	logrus.WithFields(logrus.Fields{
		"function": "Sequence.Stop",
		"sequence": s.name,
		"mode":     mode.String(),
	}).Debug("Sequence stopped")
}

// Done is closed once the worker has exited.
func (s *Sequence) Done() <-chan struct{} {
	return s.done
}

func (s *Sequence) loop(setup func() error, initErr chan<- error) {
	if s.lockThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	if setup != nil {
		if err := s.protect("setup", setup); err != nil {
			s.mu.Lock()
			pending := s.queue
			s.queue = nil
			s.state = seqStopped
			s.mu.Unlock()

			for _, t := range pending {
				t.Cancel(fmt.Errorf("%w: setup failed: %w", ErrStopped, err))
			}
			close(s.done)
			initErr <- err
			return
		}
	}
	initErr <- nil
	defer close(s.done)

	gated := false
	for {
		s.mu.Lock()
		for {
			if s.state == seqStopping && (s.mode == CancelPending || len(s.queue) == 0) {
				break
			}
			if s.paused && s.state != seqStopping {
				if !gated {
					gated = true
					s.runHook(s.onPause)
					continue
				}
				s.cond.Wait()
				continue
			}
			if gated && s.state != seqStopping {
				gated = false
				s.runHook(s.onResume)
				continue
			}
			if len(s.queue) > 0 {
				break
			}
			s.cond.Wait()
		}

		if s.state == seqStopping && (s.mode == CancelPending || len(s.queue) == 0) {
			pending := s.queue
			s.queue = nil
			teardown := s.teardown
			s.state = seqStopped
			s.mu.Unlock()

			for _, t := range pending {
				t.Cancel(ErrStopped)
			}
			if teardown != nil {
				_ = s.protect("teardown", func() error { teardown(); return nil })
			}
			return
		}

		t := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.run(t)
	}
}

// runHook calls hook with s.mu released. Caller holds s.mu.
func (s *Sequence) runHook(hook func()) {
	if hook == nil {
		return
	}
	s.mu.Unlock()
	_ = s.protect("pause hook", func() error { hook(); return nil })
	s.mu.Lock()
}

func (s *Sequence) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrTaskPanic, r)
			logrus.WithFields(logrus.Fields{
				"function": "Sequence.run",
				"sequence": s.name,
				"panic":    fmt.Sprint(r),
			}).Error("Task panicked")
			t.Cancel(err)
		}
	}()
	t.Run()
}

// protect runs fn and converts a panic into an error.
func (s *Sequence) protect(what string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTaskPanic, what, r)
			logrus.WithFields(logrus.Fields{
				"function": "Sequence.protect",
				"sequence": s.name,
				"stage":    what,
				"panic":    fmt.Sprint(r),
			}).Error("Worker callback panicked")
		}
	}()
	return fn()
}
