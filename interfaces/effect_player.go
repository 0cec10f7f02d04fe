package interfaces

import "github.com/opd-ai/offscreen/frame"

// IEffectPlayer defines the effect session boundary.
type IEffectPlayer interface {
	// LoadEffect replaces the active effect with the one at path.
	LoadEffect(path string) error

	// UnloadEffect removes the active effect. Frames drawn afterwards pass
	// through unmodified.
	UnloadEffect() error

	// CurrentEffect returns the active effect name, or "" when none.
	CurrentEffect() string

	// Draw renders f through the active effect into canvas.
	Draw(f *frame.Frame, canvas ICanvas) error

	// SurfaceChanged notifies the player of new output dimensions.
	SurfaceChanged(width, height int)

	// Pause freezes effect playback.
	Pause()

	// Resume continues effect playback.
	Resume()

	// EnableAudio toggles effect audio. Safe from any goroutine.
	EnableAudio(enabled bool)

	// CallJSMethod forwards an opaque call to the effect's scripting bridge.
	CallJSMethod(method, param string) error
}
