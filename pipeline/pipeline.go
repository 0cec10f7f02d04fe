package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/offscreen/effect"
	"github.com/opd-ai/offscreen/frame"
	"github.com/opd-ai/offscreen/interfaces"
	"github.com/opd-ai/offscreen/limits"
	"github.com/opd-ai/offscreen/render"
	"github.com/opd-ai/offscreen/scheduler"
)

const (
	lifecycleIdle int32 = iota
	lifecycleStarting
	lifecycleRunning
	lifecycleStopping
	lifecycleClosed
)

// Config configures a Pipeline.
type Config struct {
	// Name labels the worker sequences in logs.
	Name string
	// MaxInFlight is the admission ceiling.
	MaxInFlight int
	// AuxWorkers bounds concurrent output conversions.
	AuxWorkers int
	// LockThread pins the render worker to an OS thread.
	LockThread bool
	// DefaultOrientation is applied at start and restored after frames that
	// request their own.
	DefaultOrientation interfaces.Orientation
	// Width and Height, when set, are passed to the effect player at start.
	Width, Height int
}

// Pipeline schedules frames through a render target and an optional effect
// player. The render target and effect player are touched only from the
// render worker.
type Pipeline struct {
	cfg     Config
	sched   *scheduler.Scheduler
	handle  *render.Handle
	player  interfaces.IEffectPlayer
	counter *Counter
	stats   counters

	lifecycle atomic.Int32
	startMu   sync.Mutex

	mu      sync.Mutex
	tasks   map[TaskID]*RenderTask
	nextID  TaskID
	changed chan struct{}

	generation atomic.Uint64
	effect     atomic.Value // string
}

// New creates a pipeline around target. player may be nil, in which case
// frames are drawn unmodified.
func New(cfg Config, target interfaces.IRenderTarget, player interfaces.IEffectPlayer) (*Pipeline, error) {
	if target == nil {
		return nil, errors.New("render target is nil")
	}
	if err := limits.ValidateCeiling(cfg.MaxInFlight); err != nil {
		return nil, err
	}
	if !cfg.DefaultOrientation.Rotation.Valid() {
		return nil, fmt.Errorf("%w: %s", render.ErrInvalidOrientation, cfg.DefaultOrientation)
	}

	p := &Pipeline{
		cfg: cfg,
		sched: scheduler.New(scheduler.Config{
			Name:       cfg.Name,
			AuxWorkers: cfg.AuxWorkers,
			LockThread: cfg.LockThread,
		}),
		handle:  render.NewHandle(target),
		player:  player,
		counter: NewCounter(cfg.MaxInFlight),
		tasks:   make(map[TaskID]*RenderTask),
		changed: make(chan struct{}),
	}
	p.effect.Store("")
	return p, nil
}

// Start initializes the render target on the render worker, releases its
// context for sharing and opens admission. Work submitted while Start runs
// fails with render.ErrNotInitialized; Close waits for Start to finish.
func (p *Pipeline) Start() error {
	p.startMu.Lock()
	defer p.startMu.Unlock()

	if !p.lifecycle.CompareAndSwap(lifecycleIdle, lifecycleStarting) {
		if p.lifecycle.Load() == lifecycleClosed {
			return render.ErrDeinitialized
		}
		return render.ErrAlreadyInitialized
	}

	if p.player != nil {
		p.sched.SetPauseHooks(p.player.Pause, p.player.Resume)
	}
	err := p.sched.Start(func() error {
		if err := p.handle.Init(); err != nil {
			return err
		}
		if err := p.handle.Orient(p.cfg.DefaultOrientation); err != nil {
			_ = p.handle.Deinit()
			return err
		}
		// Released so peers can share resources through SharingContext
		// before the first frame makes it current again.
		if err := p.handle.Deactivate(); err != nil {
			_ = p.handle.Deinit()
			return err
		}
		if p.player != nil && p.cfg.Width > 0 && p.cfg.Height > 0 {
			p.player.SurfaceChanged(p.cfg.Width, p.cfg.Height)
		}
		return nil
	})
	if err != nil {
		p.lifecycle.Store(lifecycleClosed)
		p.sched.Stop(nil)
		return err
	}
	p.lifecycle.Store(lifecycleRunning)

	logrus.WithFields(logrus.Fields{
		"function":      "Pipeline.Start",
		"max_in_flight": p.counter.Ceiling(),
		"orientation":   p.cfg.DefaultOrientation.String(),
	}).Info("Frame pipeline started")
	return nil
}

// Submit admits f and queues it on the render worker. Admission failures
// are returned here; everything after admission is reported through cb,
// which fires exactly once.
func (p *Pipeline) Submit(f *frame.Frame, cb Callback, opts ...SubmitOption) (TaskID, error) {
	if cb == nil {
		return 0, ErrNilCallback
	}
	if err := f.Validate(); err != nil {
		return 0, err
	}

	t := &RenderTask{p: p, frame: f, callback: cb}
	for _, opt := range opts {
		opt(t)
	}
	if !t.output.valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidOutput, t.output)
	}
	if t.orientation != nil && !t.orientation.Rotation.Valid() {
		return 0, fmt.Errorf("%w: %s", render.ErrInvalidOrientation, *t.orientation)
	}

	if err := p.admit(); err != nil {
		return 0, err
	}
	if !p.counter.TryAcquire() {
		p.stats.rejected.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":  "Pipeline.Submit",
			"in_flight": p.counter.Load(),
		}).Debug("Frame rejected by backpressure")
		return 0, ErrBackpressure
	}

	p.mu.Lock()
	p.nextID++
	t.id = p.nextID
	p.tasks[t.id] = t
	p.mu.Unlock()
	p.stats.submitted.Add(1)

	t.setState(StateQueued)
	if err := p.sched.Submit(t); err != nil {
		p.remove(t.id)
		p.counter.Release()
		p.stats.submitted.Add(^uint64(0))
		return 0, mapSchedulerError(err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Pipeline.Submit",
		"task_id":  t.id,
		"format":   f.Format.String(),
		"output":   t.output.String(),
	}).Debug("Frame queued")
	return t.id, nil
}

// State returns the state of a live task. Tasks disappear once their
// callback has fired.
func (p *Pipeline) State(id TaskID) (State, bool) {
	p.mu.Lock()
	t, ok := p.tasks[id]
	p.mu.Unlock()
	if !ok {
		return 0, false
	}
	return t.State(), true
}

// SurfaceChanged resizes the render target and notifies the effect player
// on the render worker, after every frame already queued.
func (p *Pipeline) SurfaceChanged(width, height int, done func(error)) error {
	if err := limits.ValidateDimensions(width, height); err != nil {
		return err
	}
	return p.schedule(func() error {
		if err := p.handle.SurfaceChanged(width, height); err != nil {
			return err
		}
		if p.player != nil {
			p.player.SurfaceChanged(width, height)
		}
		return nil
	}, done)
}

// LoadEffect loads path on the render worker after every frame already
// queued. A successful load starts a new effect generation.
func (p *Pipeline) LoadEffect(path string, done func(error)) error {
	if p.player == nil {
		return fmt.Errorf("%w: no effect player configured", effect.ErrEffect)
	}
	return p.schedule(func() error {
		if err := p.player.LoadEffect(path); err != nil {
			return wrapEffect(err)
		}
		p.advanceGeneration(p.player.CurrentEffect())
		return nil
	}, done)
}

// UnloadEffect unloads the active effect on the render worker after every
// frame already queued.
func (p *Pipeline) UnloadEffect(done func(error)) error {
	if p.player == nil {
		return fmt.Errorf("%w: no effect player configured", effect.ErrEffect)
	}
	return p.schedule(func() error {
		if err := p.player.UnloadEffect(); err != nil {
			return wrapEffect(err)
		}
		p.advanceGeneration("")
		return nil
	}, done)
}

// CallMethod forwards a scripting call to the effect player on the render
// worker.
func (p *Pipeline) CallMethod(method, param string, done func(error)) error {
	if p.player == nil {
		return fmt.Errorf("%w: no effect player configured", effect.ErrEffect)
	}
	return p.schedule(func() error {
		return wrapEffect(p.player.CallJSMethod(method, param))
	}, done)
}

// Pause holds queued frames before activation. The frame being rendered
// finishes.
func (p *Pipeline) Pause() {
	p.sched.Pause()
}

// Resume releases frames held by Pause.
func (p *Pipeline) Resume() {
	p.sched.Resume()
}

// Paused reports whether the pipeline is paused.
func (p *Pipeline) Paused() bool {
	return p.sched.Paused()
}

// SharingContext returns the render target's sharing token. Safe from any
// goroutine.
func (p *Pipeline) SharingContext() (interfaces.SharingContext, error) {
	return p.handle.SharingContext()
}

// Flush blocks until every frame admitted before the call has had its
// callback fired, or ctx is done.
func (p *Pipeline) Flush(ctx context.Context) error {
	p.mu.Lock()
	upto := p.nextID
	p.mu.Unlock()

	for {
		p.mu.Lock()
		pending := false
		for id := range p.tasks {
			if id <= upto {
				pending = true
				break
			}
		}
		changed := p.changed
		p.mu.Unlock()

		if !pending {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stats returns a snapshot of pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		InFlight:   p.counter.Load(),
		Ceiling:    p.counter.Ceiling(),
		Submitted:  p.stats.submitted.Load(),
		Completed:  p.stats.completed.Load(),
		Failed:     p.stats.failed.Load(),
		Cancelled:  p.stats.cancelled.Load(),
		Rejected:   p.stats.rejected.Load(),
		Generation: p.generation.Load(),
		Effect:     p.effectName(),
	}
}

// Close stops admission, fails queued frames with scheduler.ErrStopped,
// lets the frame being rendered finish and deinitializes the render target
// on the render worker. No callback fires after Close returns. Close must
// not be called from a frame callback.
func (p *Pipeline) Close() error {
	p.startMu.Lock()
	defer p.startMu.Unlock()

	if p.lifecycle.CompareAndSwap(lifecycleIdle, lifecycleClosed) {
		p.sched.Stop(nil)
		return nil
	}
	if !p.lifecycle.CompareAndSwap(lifecycleRunning, lifecycleStopping) {
		p.sched.Stop(nil)
		return nil
	}

	var deinitErr error
	p.sched.Stop(func() {
		deinitErr = p.handle.Deinit()
	})
	p.lifecycle.Store(lifecycleClosed)

	stats := p.Stats()
	logrus.WithFields(logrus.Fields{
		"function":  "Pipeline.Close",
		"completed": stats.Completed,
		"failed":    stats.Failed,
		"cancelled": stats.Cancelled,
	}).Info("Frame pipeline closed")
	return deinitErr
}

func (p *Pipeline) admit() error {
	switch p.lifecycle.Load() {
	case lifecycleIdle, lifecycleStarting:
		return render.ErrNotInitialized
	case lifecycleStopping:
		return scheduler.ErrShuttingDown
	case lifecycleClosed:
		return render.ErrDeinitialized
	}
	return nil
}

func (p *Pipeline) schedule(work func() error, done func(error)) error {
	if err := p.admit(); err != nil {
		return err
	}
	if err := p.sched.ScheduleWithDone(work, done); err != nil {
		return mapSchedulerError(err)
	}
	return nil
}

func (p *Pipeline) draw(f *frame.Frame, canvas interfaces.ICanvas) error {
	if p.player == nil {
		if err := canvas.Draw(f.Image()); err != nil {
			return fmt.Errorf("%w: draw: %w", render.ErrContext, err)
		}
		return nil
	}
	return wrapEffect(p.player.Draw(f, canvas))
}

// complete runs on the delivery worker. The counter is released before the
// callback so the callback may submit again.
func (p *Pipeline) complete(t *RenderTask, res *Result, err error) {
	p.remove(t.id)
	p.counter.Release()

	fields := logrus.Fields{
		"function": "Pipeline.complete",
		"task_id":  t.id,
	}
	if err != nil {
		t.setState(StateFailed)
		p.stats.failed.Add(1)
		if errors.Is(err, scheduler.ErrStopped) {
			p.stats.cancelled.Add(1)
		}
		fields["error"] = err.Error()
		logrus.WithFields(fields).Debug("Frame failed")
		t.callback(nil, err)
		return
	}

	t.setState(StateCompleted)
	p.stats.completed.Add(1)
	logrus.WithFields(fields).Trace("Frame delivered")
	t.callback(res, nil)
}

func (p *Pipeline) remove(id TaskID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tasks, id)
	close(p.changed)
	p.changed = make(chan struct{})
}

func (p *Pipeline) advanceGeneration(name string) {
	p.effect.Store(name)
	gen := p.generation.Add(1)
	logrus.WithFields(logrus.Fields{
		"function":   "Pipeline.advanceGeneration",
		"effect":     name,
		"generation": gen,
	}).Info("Effect generation changed")
}

func (p *Pipeline) effectName() string {
	name, _ := p.effect.Load().(string)
	return name
}

func wrapEffect(err error) error {
	if err == nil || errors.Is(err, effect.ErrEffect) {
		return err
	}
	return fmt.Errorf("%w: %w", effect.ErrEffect, err)
}

func mapSchedulerError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrNotStarted):
		return render.ErrNotInitialized
	case errors.Is(err, scheduler.ErrStopped):
		return render.ErrDeinitialized
	default:
		return err
	}
}
