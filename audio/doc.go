// Package audio plays the sound cues that accompany an effect.
//
// Cue files hold raw Opus packets, each prefixed by its length as a
// big-endian uint16. Cues are decoded to 16-bit PCM with pion/opus when the
// effect loads, so playback never decodes on the render worker. Decoded
// samples are handed to a caller-supplied Sink; this package does no device
// output of its own.
//
// A Soundtrack satisfies effect.Soundtrack:
//
//	st := audio.NewSoundtrack(audio.SinkFunc(func(pcm []int16, rate uint32) error {
//	    return speaker.Write(pcm, rate)
//	}))
//	player := effect.NewPlayer(effect.Config{Soundtrack: st, AudioEnabled: true})
//
// Playback is gated twice: SetEnabled(false) mutes the soundtrack (the
// enable_audio switch) and Pause holds it while the effect is paused.
package audio
