package audio

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink receives decoded PCM. WriteSamples is called on the render worker
// and must not block.
type Sink interface {
	WriteSamples(pcm []int16, sampleRate uint32) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(pcm []int16, sampleRate uint32) error

// WriteSamples calls f.
func (f SinkFunc) WriteSamples(pcm []int16, sampleRate uint32) error {
	return f(pcm, sampleRate)
}

// Soundtrack holds an effect's decoded cues and plays them into a Sink.
// All methods are safe for concurrent use.
type Soundtrack struct {
	sink       Sink
	newDecoder func() Decoder

	mu      sync.Mutex
	cues    []*Cue
	enabled bool
	paused  bool
	played  int
}

// NewSoundtrack creates a disabled soundtrack writing to sink. sink may be
// nil, in which case cues are decoded but never played.
func NewSoundtrack(sink Sink) *Soundtrack {
	return &Soundtrack{
		sink:       sink,
		newDecoder: newOpusDecoder,
	}
}

// Load decodes every cue file. On error the previously loaded cues stay.
// When playback is enabled and not paused, the first cue starts at once;
// a sink failure there is logged and does not fail the load.
func (s *Soundtrack) Load(paths []string) error {
	cues := make([]*Cue, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read cue %s: %w", path, err)
		}
		cue, err := DecodeCue(s.newDecoder(), data)
		if err != nil {
			return fmt.Errorf("cue %s: %w", path, err)
		}
		cue.Path = path
		cues = append(cues, cue)
	}

	s.mu.Lock()
	s.cues = cues
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Soundtrack.Load",
		"cues":     len(cues),
	}).Debug("Soundtrack loaded")

	if len(cues) > 0 {
		// Play logs sink failures itself.
		_ = s.Play(0)
	}
	return nil
}

// Unload drops every cue.
func (s *Soundtrack) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = nil
}

// Play writes cue i to the sink unless audio is disabled or paused, in
// which case it is skipped silently.
func (s *Soundtrack) Play(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.cues) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNoCue, i)
	}
	cue := s.cues[i]
	audible := s.enabled && !s.paused && s.sink != nil
	if audible {
		s.played++
	}
	s.mu.Unlock()

	if !audible {
		return nil
	}
	if err := s.sink.WriteSamples(cue.PCM, cue.SampleRate); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Soundtrack.Play",
			"cue":      cue.Path,
			"error":    err.Error(),
		}).Warn("Audio sink rejected samples")
		return err
	}
	return nil
}

// Pause holds playback.
func (s *Soundtrack) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume releases playback held by Pause.
func (s *Soundtrack) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// SetEnabled switches audio on or off.
func (s *Soundtrack) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Enabled reports whether audio is on.
func (s *Soundtrack) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Cues returns the loaded cues. The cues are shared and must not be
// modified.
func (s *Soundtrack) Cues() []*Cue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Cue(nil), s.cues...)
}

// Played returns how many cues reached the sink.
func (s *Soundtrack) Played() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}
