package audio

import "errors"

// Sentinel errors for audio operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrCueFormat indicates a cue file whose packet framing is broken.
	ErrCueFormat = errors.New("malformed audio cue")

	// ErrDecode indicates an Opus packet that failed to decode.
	ErrDecode = errors.New("opus decode failed")

	// ErrNoCue indicates a cue index outside the loaded cues.
	ErrNoCue = errors.New("audio cue not loaded")
)
