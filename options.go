package offscreen

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/opd-ai/offscreen/audio"
	"github.com/opd-ai/offscreen/interfaces"
	"github.com/opd-ai/offscreen/limits"
	"github.com/opd-ai/offscreen/render"
)

// Options contains player configuration.
type Options struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// MaxInFlight is the number of frames that may be admitted but not yet
	// delivered.
	MaxInFlight int `yaml:"max_in_flight"`
	// AuxWorkers bounds concurrent NV12/I420 conversions.
	AuxWorkers int `yaml:"aux_workers"`

	// ManualAudio starts with effect audio disabled until EnableAudio.
	ManualAudio   bool     `yaml:"manual_audio"`
	ResourcePaths []string `yaml:"resource_paths"`

	WatchEffects  bool          `yaml:"watch_effects"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// LogLevel, when non-empty, makes New set the process-wide logrus
	// level. It affects every Player and every other logrus user in the
	// process; leave it empty to keep the level under the host's control.
	LogLevel string `yaml:"log_level"`

	DefaultOrientation interfaces.Orientation `yaml:"default_orientation"`

	// RenderThreadLocked pins the render worker to one OS thread, as
	// thread-affine graphics contexts require.
	RenderThreadLocked bool `yaml:"render_thread_locked"`

	// AudioSink receives decoded effect audio. Nil discards it.
	AudioSink audio.Sink `yaml:"-"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Width:              1280,
		Height:             720,
		MaxInFlight:        3,
		AuxWorkers:         2,
		DefaultOrientation: interfaces.Orientation{Rotation: interfaces.Rotation0},
		RenderThreadLocked: true,
	}
}

// LoadOptions reads YAML options from path over the defaults.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}

	opts := NewOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse options %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("options %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":      "LoadOptions",
		"path":          path,
		"width":         opts.Width,
		"height":        opts.Height,
		"max_in_flight": opts.MaxInFlight,
	}).Debug("Loaded player options")
	return opts, nil
}

// Validate checks the options against the frame and queue limits.
func (o *Options) Validate() error {
	if o == nil {
		return errors.New("options cannot be nil")
	}
	if err := limits.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if err := limits.ValidateCeiling(o.MaxInFlight); err != nil {
		return err
	}
	if o.AuxWorkers < 1 {
		return fmt.Errorf("aux workers must be at least 1, got %d", o.AuxWorkers)
	}
	if !o.DefaultOrientation.Rotation.Valid() {
		return fmt.Errorf("%w: %s", render.ErrInvalidOrientation, o.DefaultOrientation)
	}
	if o.WatchDebounce < 0 {
		return fmt.Errorf("watch debounce must not be negative, got %s", o.WatchDebounce)
	}
	if o.LogLevel != "" {
		if _, err := logrus.ParseLevel(o.LogLevel); err != nil {
			return err
		}
	}
	return nil
}
