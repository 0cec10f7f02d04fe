package render

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/offscreen/interfaces"
)

// fakeTarget records calls and can be told to fail individual operations.
type fakeTarget struct {
	calls       []string
	activateErr error
	readErr     error
}

func (f *fakeTarget) Init() error   { f.calls = append(f.calls, "init"); return nil }
func (f *fakeTarget) Deinit() error { f.calls = append(f.calls, "deinit"); return nil }
func (f *fakeTarget) SurfaceChanged(w, h int) error {
	f.calls = append(f.calls, "surface")
	return nil
}
func (f *fakeTarget) ActivateContext() error {
	f.calls = append(f.calls, "activate")
	return f.activateErr
}
func (f *fakeTarget) DeactivateContext() error {
	f.calls = append(f.calls, "deactivate")
	return nil
}
func (f *fakeTarget) PrepareRendering() (interfaces.ICanvas, error) {
	f.calls = append(f.calls, "prepare")
	return &softwareCanvas{dst: image.NewRGBA(image.Rect(0, 0, 1, 1))}, nil
}
func (f *fakeTarget) OrientImage(o interfaces.Orientation) error {
	f.calls = append(f.calls, "orient")
	return nil
}
func (f *fakeTarget) ReadCurrentBuffer() (*interfaces.Data, error) {
	f.calls = append(f.calls, "read")
	if f.readErr != nil {
		return nil, f.readErr
	}
	return &interfaces.Data{Pix: []byte{1, 2, 3, 4}, Width: 1, Height: 1}, nil
}
func (f *fakeTarget) CurrentBufferTexture() (interfaces.TextureID, error) {
	f.calls = append(f.calls, "texture")
	return 7, nil
}
func (f *fakeTarget) SharingContext() interfaces.SharingContext { return 42 }

func TestHandleLifecycle(t *testing.T) {
	target := &fakeTarget{}
	h := NewHandle(target)

	assert.ErrorIs(t, h.Activate(), ErrNotInitialized)
	assert.ErrorIs(t, h.SurfaceChanged(10, 10), ErrLifecycle)
	assert.ErrorIs(t, h.Deinit(), ErrNotInitialized)

	require.NoError(t, h.Init())
	assert.True(t, h.Initialized())
	assert.ErrorIs(t, h.Init(), ErrAlreadyInitialized)

	require.NoError(t, h.Activate())
	require.NoError(t, h.Deinit())
	assert.False(t, h.Initialized())

	// Deinit deactivates first.
	assert.Equal(t, []string{"init", "activate", "deactivate", "deinit"}, target.calls)

	for name, err := range map[string]error{
		"init":     h.Init(),
		"activate": h.Activate(),
		"surface":  h.SurfaceChanged(10, 10),
		"deinit":   h.Deinit(),
		"orient":   h.Orient(interfaces.Orientation{}),
	} {
		assert.ErrorIs(t, err, ErrLifecycle, name)
	}
	_, err := h.ReadCurrentBuffer()
	assert.ErrorIs(t, err, ErrDeinitialized)
	_, err = h.SharingContext()
	assert.ErrorIs(t, err, ErrDeinitialized)
}

func TestHandleActivateIsIdempotent(t *testing.T) {
	target := &fakeTarget{}
	h := NewHandle(target)
	require.NoError(t, h.Init())

	require.NoError(t, h.Activate())
	require.NoError(t, h.Activate())
	assert.True(t, h.Active())
	assert.Equal(t, []string{"init", "activate"}, target.calls)

	require.NoError(t, h.Deactivate())
	assert.False(t, h.Active())
	require.NoError(t, h.Activate())
	assert.Equal(t, []string{"init", "activate", "deactivate", "activate"}, target.calls)
}

func TestHandleDeactivateAfterInitReachesTarget(t *testing.T) {
	target := &fakeTarget{}
	h := NewHandle(target)
	require.NoError(t, h.Init())

	require.NoError(t, h.Deactivate())
	require.NoError(t, h.Deactivate())
	assert.False(t, h.Active())
	require.NoError(t, h.Activate())
	assert.True(t, h.Active())

	assert.Equal(t, []string{"init", "deactivate", "activate"}, target.calls)
}

func TestHandleActivationFailure(t *testing.T) {
	boom := errors.New("no display")
	target := &fakeTarget{activateErr: boom}
	h := NewHandle(target)
	require.NoError(t, h.Init())

	err := h.Activate()
	assert.ErrorIs(t, err, ErrContext)
	assert.ErrorIs(t, err, boom)
	assert.False(t, h.Active())

	target.activateErr = nil
	assert.NoError(t, h.Activate())
}

func TestHandleRenderRequiresActiveContext(t *testing.T) {
	h := NewHandle(&fakeTarget{})
	require.NoError(t, h.Init())

	_, err := h.Prepare()
	assert.ErrorIs(t, err, ErrContextInactive)
	_, err = h.ReadCurrentBuffer()
	assert.ErrorIs(t, err, ErrContextInactive)
	_, err = h.CurrentBufferTexture()
	assert.ErrorIs(t, err, ErrContextInactive)

	require.NoError(t, h.Activate())
	_, err = h.Prepare()
	assert.NoError(t, err)
	data, err := h.ReadCurrentBuffer()
	require.NoError(t, err)
	assert.Equal(t, 4, data.Size())
	id, err := h.CurrentBufferTexture()
	require.NoError(t, err)
	assert.Equal(t, interfaces.TextureID(7), id)
}

func TestHandleReadBackFailureWrapsContextError(t *testing.T) {
	h := NewHandle(&fakeTarget{readErr: errors.New("lost")})
	require.NoError(t, h.Init())
	require.NoError(t, h.Activate())

	_, err := h.ReadCurrentBuffer()
	assert.ErrorIs(t, err, ErrContext)
}

func TestHandleBusyGuard(t *testing.T) {
	h := NewHandle(&fakeTarget{})
	require.NoError(t, h.Init())

	require.NoError(t, h.Begin())
	assert.ErrorIs(t, h.Begin(), ErrContextBusy)
	assert.ErrorIs(t, h.SurfaceChanged(4, 4), ErrContextBusy)
	h.End()

	assert.NoError(t, h.Begin())
	h.End()
	assert.NoError(t, h.SurfaceChanged(4, 4))
}

func TestHandleOrientation(t *testing.T) {
	h := NewHandle(&fakeTarget{})
	require.NoError(t, h.Init())

	assert.ErrorIs(t, h.Orient(interfaces.Orientation{Rotation: 45}), ErrInvalidOrientation)

	o := interfaces.Orientation{Rotation: interfaces.Rotation90, FlipY: true}
	require.NoError(t, h.Orient(o))
	assert.Equal(t, o, h.Orientation())
}

func TestHandleSharingContextBeforeInit(t *testing.T) {
	h := NewHandle(&fakeTarget{})
	token, err := h.SharingContext()
	require.NoError(t, err)
	assert.Equal(t, interfaces.SharingContext(42), token)
}

func TestHandleSurfaceChangedValidatesDimensions(t *testing.T) {
	h := NewHandle(&fakeTarget{})
	require.NoError(t, h.Init())
	assert.Error(t, h.SurfaceChanged(0, 10))
}
