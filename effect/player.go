package effect

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/offscreen/frame"
	"github.com/opd-ai/offscreen/interfaces"
)

// Soundtrack plays an effect's audio cues. audio.Soundtrack implements it.
type Soundtrack interface {
	Load(cues []string) error
	Unload()
	Pause()
	Resume()
	SetEnabled(enabled bool)
}

// Config configures a Player.
type Config struct {
	// ResourcePaths are searched, in order, for relative effect paths.
	ResourcePaths []string
	// Soundtrack receives the audio cues of loaded effects. Optional.
	Soundtrack Soundtrack
	// AudioEnabled is the initial EnableAudio state.
	AudioEnabled bool
	// Cache shares parsed manifests between players. Optional.
	Cache *Cache
}

// loaded is the active effect. Owned by the render worker.
type loaded struct {
	path     string
	digest   Digest
	manifest *Manifest
	chain    *Chain
}

// Player is a software IEffectPlayer.
type Player struct {
	resourcePaths []string
	soundtrack    Soundtrack
	cache         *Cache

	audio atomic.Bool

	mu      sync.RWMutex
	current *loaded

	frames atomic.Uint64

	// Render-worker only.
	width, height int
	paused        bool
}

// NewPlayer creates a player with no effect loaded.
func NewPlayer(cfg Config) *Player {
	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(0)
	}
	p := &Player{
		resourcePaths: append([]string(nil), cfg.ResourcePaths...),
		soundtrack:    cfg.Soundtrack,
		cache:         cache,
	}
	p.audio.Store(cfg.AudioEnabled)
	if p.soundtrack != nil {
		p.soundtrack.SetEnabled(cfg.AudioEnabled)
	}
	return p
}

// Resolve maps an effect path to a manifest file. Relative paths are
// searched in the resource paths first, then used as given.
func (p *Player) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrEffectNotFound)
	}

	candidates := []string{path}
	if !filepath.IsAbs(path) {
		candidates = candidates[:0]
		for _, dir := range p.resourcePaths {
			candidates = append(candidates, filepath.Join(dir, path))
		}
		candidates = append(candidates, path)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.IsDir() {
			candidate = filepath.Join(candidate, ManifestFile)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
		}
		return filepath.Clean(candidate), nil
	}
	return "", fmt.Errorf("%w: %s", ErrEffectNotFound, path)
}

// LoadEffect implements interfaces.IEffectPlayer. On failure the previous
// effect stays active.
func (p *Player) LoadEffect(path string) error {
	resolved, err := p.Resolve(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrEffect, resolved, err)
	}
	manifest, digest, err := p.cache.Parse(data)
	if err != nil {
		return err
	}
	chain, err := NewChain(manifest.Filters)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if p.soundtrack != nil {
		cues := make([]string, len(manifest.Audio))
		for i, cue := range manifest.Audio {
			if !filepath.IsAbs(cue) {
				cue = filepath.Join(filepath.Dir(resolved), cue)
			}
			cues[i] = cue
		}
		if err := p.soundtrack.Load(cues); err != nil {
			return fmt.Errorf("%w: audio: %w", ErrEffect, err)
		}
		if p.paused {
			p.soundtrack.Pause()
		}
	}

	p.mu.Lock()
	p.current = &loaded{path: resolved, digest: digest, manifest: manifest, chain: chain}
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Player.LoadEffect",
		"effect":   manifest.Name,
		"path":     resolved,
		"filters":  chain.Len(),
		"cues":     len(manifest.Audio),
	}).Info("Effect loaded")
	return nil
}

// UnloadEffect implements interfaces.IEffectPlayer. Unloading with no
// effect loaded is a no-op.
func (p *Player) UnloadEffect() error {
	p.mu.Lock()
	prev := p.current
	p.current = nil
	p.mu.Unlock()

	if prev == nil {
		return nil
	}
	if p.soundtrack != nil {
		p.soundtrack.Unload()
	}

	logrus.WithFields(logrus.Fields{
		"function": "Player.UnloadEffect",
		"effect":   prev.manifest.Name,
	}).Info("Effect unloaded")
	return nil
}

// CurrentEffect implements interfaces.IEffectPlayer.
func (p *Player) CurrentEffect() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return ""
	}
	return p.current.manifest.Name
}

// CurrentPath returns the manifest file of the active effect, or "".
func (p *Player) CurrentPath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return ""
	}
	return p.current.path
}

// Draw implements interfaces.IEffectPlayer.
func (p *Player) Draw(f *frame.Frame, canvas interfaces.ICanvas) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrEffect, err)
	}

	p.mu.RLock()
	current := p.current
	p.mu.RUnlock()

	out := f.Image()
	if current != nil {
		out = current.chain.Apply(out)
	}
	p.frames.Add(1)

	if err := canvas.Draw(out); err != nil {
		return fmt.Errorf("%w: draw: %w", ErrEffect, err)
	}
	return nil
}

// SurfaceChanged implements interfaces.IEffectPlayer.
func (p *Player) SurfaceChanged(width, height int) {
	p.width, p.height = width, height
	logrus.WithFields(logrus.Fields{
		"function": "Player.SurfaceChanged",
		"width":    width,
		"height":   height,
	}).Debug("Effect surface changed")
}

// Pause implements interfaces.IEffectPlayer.
func (p *Player) Pause() {
	p.paused = true
	if p.soundtrack != nil {
		p.soundtrack.Pause()
	}
}

// Resume implements interfaces.IEffectPlayer.
func (p *Player) Resume() {
	p.paused = false
	if p.soundtrack != nil {
		p.soundtrack.Resume()
	}
}

// EnableAudio implements interfaces.IEffectPlayer. Safe from any goroutine.
func (p *Player) EnableAudio(enabled bool) {
	p.audio.Store(enabled)
	if p.soundtrack != nil {
		p.soundtrack.SetEnabled(enabled)
	}
}

// AudioEnabled reports the last EnableAudio value.
func (p *Player) AudioEnabled() bool {
	return p.audio.Load()
}

// CallJSMethod implements interfaces.IEffectPlayer. method must be listed in
// the manifest's methods table and param must parse as a float.
func (p *Player) CallJSMethod(method, param string) error {
	p.mu.RLock()
	current := p.current
	p.mu.RUnlock()
	if current == nil {
		return ErrNoEffect
	}

	binding, ok := current.manifest.Methods[method]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	value, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return fmt.Errorf("%w: %s(%q)", ErrInvalidParam, method, param)
	}

	filter := current.chain.Filter(binding.Filter)
	if err := filter.Set(binding.Param, value); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Player.CallJSMethod",
		"method":   method,
		"filter":   filter.Name(),
	}).Debug("Effect method called")
	return nil
}

// Frames returns how many frames were drawn. Safe from any goroutine.
func (p *Player) Frames() uint64 {
	return p.frames.Load()
}
