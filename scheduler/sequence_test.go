package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTask logs Run and Cancel into a shared slice.
type recordingTask struct {
	id  int
	mu  *sync.Mutex
	log *[]string
	err error
}

func (r *recordingTask) Run() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.log = append(*r.log, "run")
}

func (r *recordingTask) Cancel(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	*r.log = append(*r.log, "cancel")
}

func startedSequence(t *testing.T, lock bool) *Sequence {
	t.Helper()
	s := NewSequence("test", lock)
	require.NoError(t, s.Start(nil))
	t.Cleanup(func() { s.Stop(CancelPending, nil) })
	return s
}

func TestSequenceRunsInOrder(t *testing.T) {
	s := startedSequence(t, true)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, s.Post(TaskFunc(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})))
	}
	s.Stop(DrainPending, nil)

	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestSequenceSingleWorker(t *testing.T) {
	s := startedSequence(t, false)

	var running, overlaps atomic.Int32
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Post(TaskFunc(func() {
			if running.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(100 * time.Microsecond)
			running.Add(-1)
		})))
	}
	s.Stop(DrainPending, nil)
	assert.Zero(t, overlaps.Load())
}

func TestSequenceLifecycleErrors(t *testing.T) {
	s := NewSequence("test", false)
	assert.ErrorIs(t, s.Post(TaskFunc(func() {})), ErrNotStarted)

	require.NoError(t, s.Start(nil))
	assert.ErrorIs(t, s.Start(nil), ErrAlreadyStarted)

	s.Stop(CancelPending, nil)
	assert.ErrorIs(t, s.Post(TaskFunc(func() {})), ErrStopped)

	// Second Stop returns immediately.
	s.Stop(CancelPending, nil)
}

func TestSequenceSetupRunsOnWorker(t *testing.T) {
	s := NewSequence("test", true)
	boom := errors.New("no context")
	assert.ErrorIs(t, s.Start(func() error { return boom }), boom)
	assert.ErrorIs(t, s.Post(TaskFunc(func() {})), ErrStopped)
	s.Stop(CancelPending, nil)
}

func TestSequenceSetupFailureCancelsQueued(t *testing.T) {
	s := NewSequence("test", false)
	boom := errors.New("no context")
	inSetup := make(chan struct{})
	release := make(chan struct{})

	started := make(chan error, 1)
	go func() {
		started <- s.Start(func() error {
			close(inSetup)
			<-release
			return boom
		})
	}()
	<-inSetup

	var mu sync.Mutex
	var log []string
	task := &recordingTask{mu: &mu, log: &log}
	require.NoError(t, s.Post(task), "posting while setup runs is accepted")

	close(release)
	assert.ErrorIs(t, <-started, boom)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"cancel"}, log)
	assert.ErrorIs(t, task.err, ErrStopped)
	assert.ErrorIs(t, task.err, boom)
}

func TestSequenceStopCancelsPending(t *testing.T) {
	s := startedSequence(t, false)

	var mu sync.Mutex
	var log []string

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Post(TaskFunc(func() {
		close(started)
		<-release
	})))
	<-started

	tasks := make([]*recordingTask, 3)
	for i := range tasks {
		tasks[i] = &recordingTask{id: i, mu: &mu, log: &log}
		require.NoError(t, s.Post(tasks[i]))
	}
	assert.Equal(t, 3, s.Len())

	var tornDown atomic.Bool
	stopped := make(chan struct{})
	go func() {
		s.Stop(CancelPending, func() { tornDown.Store(true) })
		close(stopped)
	}()

	// Admission closes before the running task finishes.
	assert.Eventually(t, func() bool {
		return errors.Is(s.Post(TaskFunc(func() {})), ErrShuttingDown)
	}, time.Second, time.Millisecond)

	close(release)
	<-stopped

	assert.True(t, tornDown.Load())
	assert.Equal(t, []string{"cancel", "cancel", "cancel"}, log)
	for _, task := range tasks {
		assert.ErrorIs(t, task.err, ErrStopped)
	}
}

func TestSequencePauseGate(t *testing.T) {
	s := NewSequence("test", false)
	var paused, resumed atomic.Int32
	s.SetPauseHooks(func() { paused.Add(1) }, func() { resumed.Add(1) })
	require.NoError(t, s.Start(nil))
	defer s.Stop(CancelPending, nil)

	s.Pause()
	assert.True(t, s.Paused())
	assert.Eventually(t, func() bool { return paused.Load() == 1 }, time.Second, time.Millisecond)

	var ran atomic.Bool
	require.NoError(t, s.Post(TaskFunc(func() { ran.Store(true) })))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load(), "task ran through a closed gate")
	assert.Equal(t, 1, s.Len())

	s.Resume()
	assert.Eventually(t, ran.Load, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), resumed.Load())
}

func TestSequenceDrainIgnoresPause(t *testing.T) {
	s := startedSequence(t, false)
	s.Pause()

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Post(TaskFunc(func() { ran.Add(1) })))
	}
	s.Stop(DrainPending, nil)
	assert.Equal(t, int32(3), ran.Load())
}

func TestSequenceRecoversPanics(t *testing.T) {
	s := startedSequence(t, false)

	var mu sync.Mutex
	var log []string
	task := &panicTask{recordingTask{mu: &mu, log: &log}}
	require.NoError(t, s.Post(task))

	var after atomic.Bool
	require.NoError(t, s.Post(TaskFunc(func() { after.Store(true) })))
	s.Stop(DrainPending, nil)

	assert.True(t, after.Load(), "worker died after panic")
	assert.ErrorIs(t, task.err, ErrTaskPanic)
}

type panicTask struct {
	recordingTask
}

func (p *panicTask) Run() { panic("effect crashed") }

func TestStopModeString(t *testing.T) {
	assert.Equal(t, "cancel", CancelPending.String())
	assert.Equal(t, "drain", DrainPending.String())
	assert.Equal(t, "StopMode(7)", StopMode(7).String())
}
