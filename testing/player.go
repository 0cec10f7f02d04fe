package testing

import (
	"fmt"
	"sync"

	"github.com/opd-ai/offscreen/frame"
	"github.com/opd-ai/offscreen/interfaces"
)

// DrawRecord describes one Draw call.
type DrawRecord struct {
	// Effect is the effect active when the frame was drawn.
	Effect string
	// Frame is the drawn frame.
	Frame *frame.Frame
}

// RecordingEffectPlayer is an IEffectPlayer that draws frames unmodified
// and records everything it is asked to do.
type RecordingEffectPlayer struct {
	mu       sync.Mutex
	current  string
	events   []string
	draws    []DrawRecord
	paused   bool
	audio    bool
	width    int
	height   int
	loadErr  error
	drawErr  error
	panicMsg string
}

// NewRecordingEffectPlayer creates a player with audio enabled.
func NewRecordingEffectPlayer() *RecordingEffectPlayer {
	return &RecordingEffectPlayer{audio: true}
}

// FailLoads makes LoadEffect return err until cleared with nil.
func (p *RecordingEffectPlayer) FailLoads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadErr = err
}

// FailDraws makes Draw return err until cleared with nil.
func (p *RecordingEffectPlayer) FailDraws(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drawErr = err
}

// PanicOnDraw makes the next Draw panic with msg.
func (p *RecordingEffectPlayer) PanicOnDraw(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panicMsg = msg
}

// LoadEffect implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) LoadEffect(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "load:"+path)
	if p.loadErr != nil {
		return p.loadErr
	}
	p.current = path
	return nil
}

// UnloadEffect implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) UnloadEffect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "unload")
	p.current = ""
	return nil
}

// CurrentEffect implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) CurrentEffect() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Draw implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) Draw(f *frame.Frame, canvas interfaces.ICanvas) error {
	p.mu.Lock()
	p.events = append(p.events, "draw:"+p.current)
	p.draws = append(p.draws, DrawRecord{Effect: p.current, Frame: f})
	drawErr := p.drawErr
	msg := p.panicMsg
	p.panicMsg = ""
	p.mu.Unlock()

	if msg != "" {
		panic(msg)
	}
	if drawErr != nil {
		return drawErr
	}
	return canvas.Draw(f.Image())
}

// SurfaceChanged implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) SurfaceChanged(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = width, height
	p.events = append(p.events, fmt.Sprintf("surface:%dx%d", width, height))
}

// Pause implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	p.events = append(p.events, "pause")
}

// Resume implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	p.events = append(p.events, "resume")
}

// EnableAudio implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) EnableAudio(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audio = enabled
}

// CallJSMethod implements interfaces.IEffectPlayer.
func (p *RecordingEffectPlayer) CallJSMethod(method, param string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "call:"+method+"("+param+")")
	return nil
}

// Events returns the ordered event log, for example
// ["load:a", "draw:a", "unload", "draw:"].
func (p *RecordingEffectPlayer) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// Draws returns every Draw call in order.
func (p *RecordingEffectPlayer) Draws() []DrawRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]DrawRecord(nil), p.draws...)
}

// IsPaused reports the last Pause/Resume state.
func (p *RecordingEffectPlayer) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// AudioEnabled reports the last EnableAudio value.
func (p *RecordingEffectPlayer) AudioEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audio
}

// Surface returns the last surface size.
func (p *RecordingEffectPlayer) Surface() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}
