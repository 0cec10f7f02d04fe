package offscreen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/offscreen/interfaces"
	"github.com/opd-ai/offscreen/limits"
	"github.com/opd-ai/offscreen/render"
)

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions()
	assert.Equal(t, 1280, opts.Width)
	assert.Equal(t, 720, opts.Height)
	assert.Equal(t, 3, opts.MaxInFlight)
	assert.Equal(t, 2, opts.AuxWorkers)
	assert.False(t, opts.ManualAudio)
	assert.False(t, opts.WatchEffects)
	assert.True(t, opts.RenderThreadLocked)
	assert.Equal(t, interfaces.Rotation0, opts.DefaultOrientation.Rotation)
	require.NoError(t, opts.Validate())
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"zero width", func(o *Options) { o.Width = 0 }, limits.ErrFrameEmpty},
		{"huge height", func(o *Options) { o.Height = limits.MaxFrameDimension + 1 }, limits.ErrFrameTooLarge},
		{"zero ceiling", func(o *Options) { o.MaxInFlight = 0 }, limits.ErrInvalidCeiling},
		{"ceiling too high", func(o *Options) { o.MaxInFlight = limits.MaxInFlightCeiling + 1 }, limits.ErrInvalidCeiling},
		{"rotation", func(o *Options) { o.DefaultOrientation.Rotation = 45 }, render.ErrInvalidOrientation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.mutate(opts)
			assert.ErrorIs(t, opts.Validate(), tt.wantErr)
		})
	}

	opts := NewOptions()
	opts.AuxWorkers = 0
	assert.Error(t, opts.Validate())

	opts = NewOptions()
	opts.LogLevel = "loud"
	assert.Error(t, opts.Validate())

	opts = NewOptions()
	opts.WatchDebounce = -time.Second
	assert.Error(t, opts.Validate())

	var nilOpts *Options
	assert.Error(t, nilOpts.Validate())
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
width: 640
height: 480
max_in_flight: 5
manual_audio: true
resource_paths: [/opt/effects]
watch_effects: true
watch_debounce: 250ms
log_level: debug
default_orientation:
  rotation: 90
  flipy: true
`), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 640, opts.Width)
	assert.Equal(t, 480, opts.Height)
	assert.Equal(t, 5, opts.MaxInFlight)
	assert.Equal(t, 2, opts.AuxWorkers, "unset fields keep their defaults")
	assert.True(t, opts.ManualAudio)
	assert.Equal(t, []string{"/opt/effects"}, opts.ResourcePaths)
	assert.True(t, opts.WatchEffects)
	assert.Equal(t, 250*time.Millisecond, opts.WatchDebounce)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, interfaces.Orientation{Rotation: interfaces.Rotation90, FlipY: true}, opts.DefaultOrientation)
	assert.True(t, opts.RenderThreadLocked)
}

func TestLoadOptionsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadOptions(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("width: [1, 2]\n"), 0o644))
	_, err = LoadOptions(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("max_in_flight: 0\n"), 0o644))
	_, err = LoadOptions(invalid)
	assert.ErrorIs(t, err, limits.ErrInvalidCeiling)
}
