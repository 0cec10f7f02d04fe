package testing

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/offscreen/interfaces"
	"github.com/opd-ai/offscreen/render"
)

// ErrInjected is returned by operations failed on purpose.
var ErrInjected = errors.New("injected failure")

// InstrumentedTarget is an IRenderTarget that checks single ownership and
// records its calls.
type InstrumentedTarget struct {
	inner *render.SoftwareTarget

	busy          atomic.Int32
	violations    atomic.Int32
	deinitialized atomic.Bool
	afterDeinit   atomic.Int32

	mu            sync.Mutex
	calls         []string
	failActivate  int
	failReadBack  int
	renderDelay   time.Duration
	gate          chan struct{}
	renderEntered chan struct{}
	initGate      chan struct{}
	initEntered   chan struct{}
}

// NewInstrumentedTarget creates a target backed by a software context.
func NewInstrumentedTarget(width, height int) *InstrumentedTarget {
	logrus.WithFields(logrus.Fields{
		"function": "NewInstrumentedTarget",
		"width":    width,
		"height":   height,
	}).Debug("Creating instrumented render target for testing")

	return &InstrumentedTarget{
		inner: render.NewSoftwareTarget(width, height),
	}
}

// FailActivations makes the next n ActivateContext calls fail.
func (t *InstrumentedTarget) FailActivations(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failActivate = n
}

// FailReadBacks makes the next n read-back calls fail.
func (t *InstrumentedTarget) FailReadBacks(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failReadBack = n
}

// SetRenderDelay slows every canvas draw by d.
func (t *InstrumentedTarget) SetRenderDelay(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderDelay = d
}

// Hold makes canvas draws block until Release. The returned channel
// receives once for every draw that reached the gate.
func (t *InstrumentedTarget) Hold() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gate = make(chan struct{})
	t.renderEntered = make(chan struct{}, 64)
	return t.renderEntered
}

// Release opens the gate installed by Hold.
func (t *InstrumentedTarget) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gate != nil {
		close(t.gate)
		t.gate = nil
	}
}

// Calls returns the operation log.
func (t *InstrumentedTarget) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// Count returns how many times op was called.
func (t *InstrumentedTarget) Count(op string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Violations returns how many operations overlapped another one.
func (t *InstrumentedTarget) Violations() int {
	return int(t.violations.Load())
}

// CallsAfterDeinit returns how many context operations ran after Deinit.
func (t *InstrumentedTarget) CallsAfterDeinit() int {
	return int(t.afterDeinit.Load())
}

// Texture resolves a texture handle produced by this target.
func (t *InstrumentedTarget) Texture(id interfaces.TextureID) (*image.RGBA, bool) {
	return t.inner.Texture(id)
}

func (t *InstrumentedTarget) enter(op string) func() {
	if t.busy.Add(1) > 1 {
		t.violations.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":  "InstrumentedTarget.enter",
			"operation": op,
		}).Error("Overlapping render context access")
	}
	if t.deinitialized.Load() {
		t.afterDeinit.Add(1)
	}
	t.mu.Lock()
	t.calls = append(t.calls, op)
	t.mu.Unlock()
	return func() { t.busy.Add(-1) }
}

// takeFault consumes one pending failure from *n.
func (t *InstrumentedTarget) takeFault(n *int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if *n > 0 {
		*n--
		return true
	}
	return false
}

// HoldInit makes the next Init block until release is called and then
// fail with ErrInjected. entered receives once Init is blocked.
func (t *InstrumentedTarget) HoldInit() (entered <-chan struct{}, release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	gate := make(chan struct{})
	t.initGate = gate
	t.initEntered = make(chan struct{}, 1)
	var once sync.Once
	return t.initEntered, func() { once.Do(func() { close(gate) }) }
}

// Init implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) Init() error {
	defer t.enter("init")()

	t.mu.Lock()
	gate, entered := t.initGate, t.initEntered
	t.initGate, t.initEntered = nil, nil
	t.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
		return fmt.Errorf("init: %w", ErrInjected)
	}
	return t.inner.Init()
}

// Deinit implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) Deinit() error {
	defer t.enter("deinit")()
	t.deinitialized.Store(true)
	return t.inner.Deinit()
}

// SurfaceChanged implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) SurfaceChanged(width, height int) error {
	defer t.enter("surface_changed")()
	return t.inner.SurfaceChanged(width, height)
}

// ActivateContext implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) ActivateContext() error {
	defer t.enter("activate")()
	if t.takeFault(&t.failActivate) {
		return fmt.Errorf("activate: %w", ErrInjected)
	}
	return t.inner.ActivateContext()
}

// DeactivateContext implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) DeactivateContext() error {
	defer t.enter("deactivate")()
	return t.inner.DeactivateContext()
}

// PrepareRendering implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) PrepareRendering() (interfaces.ICanvas, error) {
	defer t.enter("prepare")()
	canvas, err := t.inner.PrepareRendering()
	if err != nil {
		return nil, err
	}
	return &instrumentedCanvas{ICanvas: canvas, t: t}, nil
}

// OrientImage implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) OrientImage(o interfaces.Orientation) error {
	defer t.enter("orient")()
	return t.inner.OrientImage(o)
}

// ReadCurrentBuffer implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) ReadCurrentBuffer() (*interfaces.Data, error) {
	defer t.enter("read")()
	if t.takeFault(&t.failReadBack) {
		return nil, fmt.Errorf("read back: %w", ErrInjected)
	}
	return t.inner.ReadCurrentBuffer()
}

// CurrentBufferTexture implements interfaces.IRenderTarget.
func (t *InstrumentedTarget) CurrentBufferTexture() (interfaces.TextureID, error) {
	defer t.enter("texture")()
	if t.takeFault(&t.failReadBack) {
		return 0, fmt.Errorf("texture: %w", ErrInjected)
	}
	return t.inner.CurrentBufferTexture()
}

// SharingContext implements interfaces.IRenderTarget. It is not guarded
// because it is callable from any goroutine.
func (t *InstrumentedTarget) SharingContext() interfaces.SharingContext {
	return t.inner.SharingContext()
}

type instrumentedCanvas struct {
	interfaces.ICanvas
	t *InstrumentedTarget
}

func (c *instrumentedCanvas) Draw(img image.Image) error {
	defer c.t.enter("draw")()

	c.t.mu.Lock()
	delay := c.t.renderDelay
	gate := c.t.gate
	entered := c.t.renderEntered
	c.t.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return c.ICanvas.Draw(img)
}
