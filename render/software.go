package render

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/opd-ai/offscreen/frame"
	"github.com/opd-ai/offscreen/interfaces"
	"github.com/opd-ai/offscreen/limits"
)

// maxTextures bounds how many rendered buffers a SoftwareTarget keeps
// addressable by TextureID.
const maxTextures = 8

var nextSharingToken atomic.Uintptr

// SoftwareTarget is a CPU-backed IRenderTarget. Its "context" is an
// *image.RGBA back buffer; activation is tracked so misuse surfaces the same
// way it would with a real graphics context.
//
// Example:
//
//	target := render.NewSoftwareTarget(1280, 720)
//	player, err := offscreen.New(offscreen.NewOptions(), target)
type SoftwareTarget struct {
	width, height int
	back          *image.RGBA
	orientation   interfaces.Orientation
	initialized   bool
	active        bool
	token         interfaces.SharingContext

	texMu    sync.Mutex
	textures map[interfaces.TextureID]*image.RGBA
	texOrder []interfaces.TextureID
	nextTex  interfaces.TextureID
}

// NewSoftwareTarget creates a target with the given surface size.
func NewSoftwareTarget(width, height int) *SoftwareTarget {
	return &SoftwareTarget{
		width:    width,
		height:   height,
		token:    interfaces.SharingContext(nextSharingToken.Add(1)),
		textures: make(map[interfaces.TextureID]*image.RGBA),
	}
}

// Init allocates the back buffer.
func (t *SoftwareTarget) Init() error {
	if t.initialized {
		return errors.New("software target already initialized")
	}
	if err := limits.ValidateDimensions(t.width, t.height); err != nil {
		return err
	}
	t.back = image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	t.initialized = true

	logrus.WithFields(logrus.Fields{
		"function": "SoftwareTarget.Init",
		"width":    t.width,
		"height":   t.height,
	}).Info("Software render target initialized")
	return nil
}

// Deinit releases the back buffer and every texture.
func (t *SoftwareTarget) Deinit() error {
	if !t.initialized {
		return errors.New("software target not initialized")
	}
	t.back = nil
	t.initialized = false
	t.active = false

	t.texMu.Lock()
	t.textures = make(map[interfaces.TextureID]*image.RGBA)
	t.texOrder = nil
	t.texMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SoftwareTarget.Deinit",
	}).Info("Software render target released")
	return nil
}

// SurfaceChanged reallocates the back buffer.
func (t *SoftwareTarget) SurfaceChanged(width, height int) error {
	if !t.initialized {
		return errors.New("software target not initialized")
	}
	t.width, t.height = width, height
	t.back = image.NewRGBA(image.Rect(0, 0, width, height))

	logrus.WithFields(logrus.Fields{
		"function": "SoftwareTarget.SurfaceChanged",
		"width":    width,
		"height":   height,
	}).Debug("Surface resized")
	return nil
}

// ActivateContext marks the context current.
func (t *SoftwareTarget) ActivateContext() error {
	if !t.initialized {
		return errors.New("software target not initialized")
	}
	t.active = true
	return nil
}

// DeactivateContext marks the context not current.
func (t *SoftwareTarget) DeactivateContext() error {
	t.active = false
	return nil
}

// PrepareRendering clears the back buffer and returns it as a canvas.
func (t *SoftwareTarget) PrepareRendering() (interfaces.ICanvas, error) {
	if !t.active {
		return nil, errors.New("context not current")
	}
	clear(t.back.Pix)
	return &softwareCanvas{dst: t.back}, nil
}

// OrientImage stores the transform applied at read-back.
func (t *SoftwareTarget) OrientImage(orient interfaces.Orientation) error {
	if !orient.Rotation.Valid() {
		return ErrInvalidOrientation
	}
	t.orientation = orient
	return nil
}

// ReadCurrentBuffer returns an oriented, owned copy of the back buffer.
func (t *SoftwareTarget) ReadCurrentBuffer() (*interfaces.Data, error) {
	if !t.active {
		return nil, errors.New("context not current")
	}
	img := Orient(t.back, t.orientation)
	return &interfaces.Data{
		Pix:    img.Pix,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Format: frame.FormatRGBA,
	}, nil
}

// CurrentBufferTexture snapshots the oriented back buffer into the texture
// table and returns its handle. Only the most recent textures stay
// addressable.
func (t *SoftwareTarget) CurrentBufferTexture() (interfaces.TextureID, error) {
	if !t.active {
		return 0, errors.New("context not current")
	}
	img := Orient(t.back, t.orientation)

	t.texMu.Lock()
	defer t.texMu.Unlock()

	t.nextTex++
	id := t.nextTex
	t.textures[id] = img
	t.texOrder = append(t.texOrder, id)
	if len(t.texOrder) > maxTextures {
		delete(t.textures, t.texOrder[0])
		t.texOrder = t.texOrder[1:]
	}
	return id, nil
}

// Texture resolves a texture handle. Safe from any goroutine; the returned
// image must be treated as read-only.
func (t *SoftwareTarget) Texture(id interfaces.TextureID) (*image.RGBA, bool) {
	t.texMu.Lock()
	defer t.texMu.Unlock()
	img, ok := t.textures[id]
	return img, ok
}

// SharingContext returns the target's unique token.
func (t *SoftwareTarget) SharingContext() interfaces.SharingContext {
	return t.token
}

type softwareCanvas struct {
	dst *image.RGBA
}

func (c *softwareCanvas) Bounds() image.Rectangle {
	return c.dst.Bounds()
}

// Draw copies img into the back buffer, resampling when sizes differ.
func (c *softwareCanvas) Draw(img image.Image) error {
	if img == nil {
		return errors.New("nil image")
	}
	if img.Bounds().Size() == c.dst.Bounds().Size() {
		draw.Draw(c.dst, c.dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return nil
	}
	draw.BiLinear.Scale(c.dst, c.dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return nil
}
