// Package watch reloads an effect when its manifest changes on disk.
//
// A Watcher observes the directory holding an effect manifest and calls
// its reload function once a burst of writes to the manifest has settled.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long a manifest must stay quiet before a reload.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned by Run on a closed Watcher.
var ErrClosed = errors.New("watcher closed")

// Watcher reloads one manifest file.
type Watcher struct {
	manifest string
	debounce time.Duration
	reload   func()

	fs *fsnotify.Watcher

	mu      sync.Mutex
	reloads int
	closed  bool
}

// New watches manifest and calls reload after it changes. A debounce of
// zero selects DefaultDebounce.
func New(manifest string, debounce time.Duration, reload func()) (*Watcher, error) {
	if reload == nil {
		return nil, fmt.Errorf("watch %s: nil reload function", manifest)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(manifest)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", manifest, err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", manifest, err)
	}
	// Editors replace files by rename, so watch the directory.
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", manifest, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "watch.New",
		"manifest": abs,
		"debounce": debounce,
	}).Debug("Watching effect manifest")

	return &Watcher{
		manifest: abs,
		debounce: debounce,
		reload:   reload,
		fs:       fs,
	}, nil
}

// Manifest returns the absolute path being watched.
func (w *Watcher) Manifest() string {
	return w.manifest
}

// Reloads returns how many times reload has been called.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Run delivers reloads until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logrus.WithFields(logrus.Fields{
				"function": "Watcher.Run",
				"manifest": w.manifest,
				"error":    err.Error(),
			}).Warn("File watch error")
		case <-timer.C:
			w.fire()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.manifest {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Watcher.fire",
		"manifest": w.manifest,
	}).Info("Effect manifest changed, reloading")
	w.reload()
}

// Close stops watching. Run returns once the event stream ends.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.fs.Close()
}
