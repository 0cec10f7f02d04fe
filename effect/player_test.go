package effect

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/offscreen/frame"
)

type captureCanvas struct {
	bounds image.Rectangle
	last   image.Image
}

func (c *captureCanvas) Bounds() image.Rectangle { return c.bounds }

func (c *captureCanvas) Draw(img image.Image) error {
	c.last = img
	return nil
}

type fakeSoundtrack struct {
	cues    []string
	loadErr error
	events  []string
	enabled bool
}

func (s *fakeSoundtrack) Load(cues []string) error {
	s.events = append(s.events, "load")
	if s.loadErr != nil {
		return s.loadErr
	}
	s.cues = cues
	return nil
}
func (s *fakeSoundtrack) Unload()                 { s.events = append(s.events, "unload"); s.cues = nil }
func (s *fakeSoundtrack) Pause()                  { s.events = append(s.events, "pause") }
func (s *fakeSoundtrack) Resume()                 { s.events = append(s.events, "resume") }
func (s *fakeSoundtrack) SetEnabled(enabled bool) { s.enabled = enabled }

// writeEffect creates dir/name/effect.yaml and returns dir.
func writeEffect(t *testing.T, dir, name, manifest string) string {
	t.Helper()
	effectDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(effectDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(effectDir, ManifestFile), []byte(manifest), 0o644))
	return dir
}

func redFrame(t *testing.T) *frame.Frame {
	t.Helper()
	pix := make([]byte, 2*2*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+3] = 255, 255
	}
	f, err := frame.New(frame.FormatRGBA, 2, 2, pix)
	require.NoError(t, err)
	return f
}

func TestPlayerResolve(t *testing.T) {
	resources := writeEffect(t, t.TempDir(), "warm", warmManifest)
	p := NewPlayer(Config{ResourcePaths: []string{t.TempDir(), resources}})

	path, err := p.Resolve("warm")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resources, "warm", ManifestFile), path)

	abs := filepath.Join(resources, "warm", ManifestFile)
	path, err = p.Resolve(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, path)

	_, err = p.Resolve("missing")
	assert.ErrorIs(t, err, ErrEffectNotFound)
	_, err = p.Resolve("")
	assert.ErrorIs(t, err, ErrEffectNotFound)
}

func TestPlayerLoadDrawUnload(t *testing.T) {
	dir := writeEffect(t, t.TempDir(), "neg", "name: negative\nfilters:\n  - type: invert\n")
	p := NewPlayer(Config{ResourcePaths: []string{dir}})
	canvas := &captureCanvas{bounds: image.Rect(0, 0, 2, 2)}

	require.NoError(t, p.Draw(redFrame(t), canvas))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, canvas.last.(*image.RGBA).RGBAAt(0, 0), "no effect passes through")

	require.NoError(t, p.LoadEffect("neg"))
	assert.Equal(t, "negative", p.CurrentEffect())
	assert.Equal(t, filepath.Join(dir, "neg", ManifestFile), p.CurrentPath())

	require.NoError(t, p.Draw(redFrame(t), canvas))
	assert.Equal(t, color.RGBA{G: 255, B: 255, A: 255}, canvas.last.(*image.RGBA).RGBAAt(0, 0))

	require.NoError(t, p.UnloadEffect())
	assert.Empty(t, p.CurrentEffect())
	assert.NoError(t, p.UnloadEffect(), "unload is idempotent")
	assert.Equal(t, uint64(2), p.Frames())
}

func TestPlayerFailedLoadKeepsPrevious(t *testing.T) {
	dir := writeEffect(t, t.TempDir(), "good", "name: good\n")
	writeEffect(t, dir, "bad", "name: bad\nfilters:\n  - type: sparkle\n")
	p := NewPlayer(Config{ResourcePaths: []string{dir}})

	require.NoError(t, p.LoadEffect("good"))
	assert.ErrorIs(t, p.LoadEffect("bad"), ErrInvalidManifest)
	assert.ErrorIs(t, p.LoadEffect("absent"), ErrEffectNotFound)
	assert.Equal(t, "good", p.CurrentEffect())
}

func TestPlayerCallJSMethod(t *testing.T) {
	dir := writeEffect(t, t.TempDir(), "warm", warmManifest)
	p := NewPlayer(Config{ResourcePaths: []string{dir}})

	assert.ErrorIs(t, p.CallJSMethod("setWarmth", "0.2"), ErrNoEffect)

	require.NoError(t, p.LoadEffect("warm"))
	require.NoError(t, p.CallJSMethod("setWarmth", "0.25"))
	p.mu.RLock()
	assert.Equal(t, "brightness(+0.25)", p.current.chain.Filter(0).Name())
	p.mu.RUnlock()

	assert.ErrorIs(t, p.CallJSMethod("setWarmth", "hot"), ErrInvalidParam)
	assert.ErrorIs(t, p.CallJSMethod("setWarmth", "3"), ErrInvalidParam)
	assert.ErrorIs(t, p.CallJSMethod("explode", "1"), ErrUnknownMethod)
	require.NoError(t, p.CallJSMethod("setSoftness", "4"))

	// Method calls change the player's chain, never the cached manifest.
	require.NoError(t, p.LoadEffect("warm"))
	p.mu.RLock()
	assert.Equal(t, "brightness(+0.10)", p.current.chain.Filter(0).Name())
	p.mu.RUnlock()
}

func TestPlayerSoundtrack(t *testing.T) {
	dir := writeEffect(t, t.TempDir(), "warm", warmManifest)
	st := &fakeSoundtrack{}
	p := NewPlayer(Config{ResourcePaths: []string{dir}, Soundtrack: st, AudioEnabled: false})
	assert.False(t, st.enabled)
	assert.False(t, p.AudioEnabled())

	require.NoError(t, p.LoadEffect("warm"))
	assert.Equal(t, []string{filepath.Join(dir, "warm", "cue.opus")}, st.cues)

	p.EnableAudio(true)
	assert.True(t, st.enabled)
	assert.True(t, p.AudioEnabled())

	p.Pause()
	p.Resume()
	require.NoError(t, p.UnloadEffect())
	assert.Equal(t, []string{"load", "pause", "resume", "unload"}, st.events)

	st.loadErr = errors.New("corrupt cue")
	err := p.LoadEffect("warm")
	assert.ErrorIs(t, err, ErrEffect)
	assert.Empty(t, p.CurrentEffect())
}

func TestPlayerDrawRejectsInvalidFrame(t *testing.T) {
	p := NewPlayer(Config{})
	err := p.Draw(&frame.Frame{Format: frame.FormatRGBA, Width: 2, Height: 2}, &captureCanvas{})
	assert.ErrorIs(t, err, ErrEffect)
}
