package offscreen

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/offscreen/audio"
	"github.com/opd-ai/offscreen/effect"
	"github.com/opd-ai/offscreen/frame"
	"github.com/opd-ai/offscreen/interfaces"
	"github.com/opd-ai/offscreen/pipeline"
	"github.com/opd-ai/offscreen/render"
	"github.com/opd-ai/offscreen/watch"
)

type (
	// Result is a rendered frame.
	Result = pipeline.Result
	// Callback receives a frame's outcome exactly once.
	Callback = pipeline.Callback
	// TaskID identifies an admitted frame.
	TaskID = pipeline.TaskID
	// Stats is a snapshot of player activity.
	Stats = pipeline.Stats
	// SubmitOption adjusts a single frame.
	SubmitOption = pipeline.SubmitOption
)

// WithOrientation renders one frame with its own orientation.
func WithOrientation(o interfaces.Orientation) SubmitOption {
	return pipeline.WithOrientation(o)
}

// WithOutput selects a frame's output mode.
func WithOutput(m pipeline.OutputMode) SubmitOption {
	return pipeline.WithOutput(m)
}

// Player is an offscreen effect player.
type Player struct {
	id      string
	opts    Options
	effects *effect.Player
	cache   *effect.Cache
	sound   *audio.Soundtrack
	pipe    *pipeline.Pipeline
	bg      errgroup.Group

	mu          sync.Mutex
	closed      bool
	onEffect    func(path string, err error)
	watcher     *watch.Watcher
	stopWatcher context.CancelFunc
}

// New creates and starts a player. A nil opts selects NewOptions; a nil
// target selects a render.SoftwareTarget of the configured size. A
// non-empty Options.LogLevel changes the global logrus level.
func New(opts *Options, target interfaces.IRenderTarget) (*Player, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		level, _ := logrus.ParseLevel(opts.LogLevel)
		logrus.SetLevel(level)
	}
	if target == nil {
		target = render.NewSoftwareTarget(opts.Width, opts.Height)
	}

	id := uuid.New().String()
	sound := audio.NewSoundtrack(opts.AudioSink)
	cache := effect.NewCache(0)
	effects := effect.NewPlayer(effect.Config{
		ResourcePaths: opts.ResourcePaths,
		Soundtrack:    sound,
		AudioEnabled:  !opts.ManualAudio,
		Cache:         cache,
	})

	pipe, err := pipeline.New(pipeline.Config{
		Name:               "offscreen-" + id[:8],
		MaxInFlight:        opts.MaxInFlight,
		AuxWorkers:         opts.AuxWorkers,
		LockThread:         opts.RenderThreadLocked,
		DefaultOrientation: opts.DefaultOrientation,
		Width:              opts.Width,
		Height:             opts.Height,
	}, target, effects)
	if err != nil {
		return nil, err
	}
	if err := pipe.Start(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":      "New",
		"player_id":     id,
		"width":         opts.Width,
		"height":        opts.Height,
		"max_in_flight": opts.MaxInFlight,
		"manual_audio":  opts.ManualAudio,
	}).Info("Offscreen player started")

	return &Player{
		id:      id,
		opts:    *opts,
		effects: effects,
		cache:   cache,
		sound:   sound,
		pipe:    pipe,
	}, nil
}

// ID returns the player's unique identifier.
func (p *Player) ID() string {
	return p.id
}

// ProcessImageAsync admits f for rendering. Admission errors are returned;
// everything after admission is reported through cb, which fires exactly
// once.
func (p *Player) ProcessImageAsync(f *frame.Frame, cb Callback, opts ...SubmitOption) (TaskID, error) {
	id, err := p.pipe.Submit(f, cb, opts...)
	if err != nil && !errors.Is(err, ErrBackpressure) {
		p.logger("Player.ProcessImageAsync").WithError(err).Debug("Frame refused")
	}
	return id, err
}

// SurfaceChanged resizes the render surface after the frames already
// admitted.
func (p *Player) SurfaceChanged(width, height int) error {
	return p.pipe.SurfaceChanged(width, height, func(err error) {
		if err != nil {
			p.logger("Player.SurfaceChanged").WithFields(logrus.Fields{
				"width":  width,
				"height": height,
				"error":  err.Error(),
			}).Warn("Surface change failed")
		}
	})
}

// CallbackEffectLoaded sets the function told about every completed load
// and unload. path is empty for unloads.
func (p *Player) CallbackEffectLoaded(fn func(path string, err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEffect = fn
}

// LoadEffect queues a load of the effect at path behind the frames already
// admitted. The outcome is reported to the CallbackEffectLoaded function.
func (p *Player) LoadEffect(path string) error {
	return p.pipe.LoadEffect(path, func(err error) {
		if err == nil && p.opts.WatchEffects {
			p.watchEffect(path)
		}
		p.notifyEffect(path, err)
	})
}

// UnloadEffect queues an unload behind the frames already admitted.
func (p *Player) UnloadEffect() error {
	return p.pipe.UnloadEffect(func(err error) {
		if err == nil {
			p.mu.Lock()
			p.unwatchLocked()
			p.mu.Unlock()
		}
		p.notifyEffect("", err)
	})
}

// Pause holds admitted frames before rendering. The frame being rendered
// finishes.
func (p *Player) Pause() {
	p.pipe.Pause()
}

// Resume releases frames held by Pause.
func (p *Player) Resume() {
	p.pipe.Resume()
}

// Paused reports whether the player is paused.
func (p *Player) Paused() bool {
	return p.pipe.Paused()
}

// EnableAudio switches effect audio on or off.
func (p *Player) EnableAudio(enabled bool) {
	p.effects.EnableAudio(enabled)
}

// CallJSMethod forwards an effect scripting call on the render worker.
func (p *Player) CallJSMethod(method, param string) error {
	return p.pipe.CallMethod(method, param, func(err error) {
		if err != nil {
			p.logger("Player.CallJSMethod").WithFields(logrus.Fields{
				"method": method,
				"error":  err.Error(),
			}).Warn("Effect method failed")
		}
	})
}

// SharingContext returns the render context's sharing token.
func (p *Player) SharingContext() (interfaces.SharingContext, error) {
	return p.pipe.SharingContext()
}

// Flush blocks until every frame admitted before the call has been
// delivered, or ctx is done.
func (p *Player) Flush(ctx context.Context) error {
	return p.pipe.Flush(ctx)
}

// Stats returns a snapshot of player activity.
func (p *Player) Stats() Stats {
	return p.pipe.Stats()
}

// Close shuts the player down. Queued frames fail with ErrStopped; no
// callback fires after Close returns. Close must not be called from a
// callback.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.unwatchLocked()
	p.mu.Unlock()

	err := p.pipe.Close()
	if werr := p.bg.Wait(); werr != nil {
		p.logger("Player.Close").WithError(werr).Warn("Effect watcher failed")
	}
	p.sound.Unload()

	hits, misses := p.cache.Stats()
	p.logger("Player.Close").WithFields(logrus.Fields{
		"frames":       p.effects.Frames(),
		"cache_hits":   hits,
		"cache_misses": misses,
		"completed":    p.pipe.Stats().Completed,
	}).Info("Offscreen player closed")
	return err
}

func (p *Player) notifyEffect(path string, err error) {
	log := p.logger("Player.notifyEffect").WithFields(logrus.Fields{
		"path":     path,
		"manifest": p.effects.CurrentPath(),
	})
	if err != nil {
		log.WithError(err).Error("Effect change failed")
	} else {
		log.Info("Effect changed")
	}

	p.mu.Lock()
	fn := p.onEffect
	p.mu.Unlock()
	if fn != nil {
		fn(path, err)
	}
}

// watchEffect starts watching the manifest behind path unless it is
// already watched.
func (p *Player) watchEffect(path string) {
	manifest, err := p.effects.Resolve(path)
	if err != nil {
		return
	}
	if abs, err := filepath.Abs(manifest); err == nil {
		manifest = abs
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.watcher != nil && p.watcher.Manifest() == manifest {
		return
	}
	p.unwatchLocked()

	w, err := watch.New(manifest, p.opts.WatchDebounce, func() {
		if err := p.LoadEffect(path); err != nil {
			p.logger("Player.watchEffect").WithError(err).Debug("Reload not queued")
		}
	})
	if err != nil {
		p.logger("Player.watchEffect").WithError(err).Warn("Cannot watch effect")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.watcher = w
	p.stopWatcher = cancel
	p.bg.Go(func() error {
		err := w.Run(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, watch.ErrClosed) {
			return nil
		}
		return err
	})
}

func (p *Player) unwatchLocked() {
	if p.watcher == nil {
		return
	}
	p.stopWatcher()
	_ = p.watcher.Close()
	p.watcher = nil
	p.stopWatcher = nil
}

func (p *Player) logger(function string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"function":  function,
		"player_id": p.id,
	})
}
