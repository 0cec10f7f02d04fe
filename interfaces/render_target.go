package interfaces

import (
	"fmt"
	"image"

	"github.com/opd-ai/offscreen/frame"
)

// Rotation is a clockwise output rotation in degrees.
type Rotation uint16

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// Valid reports whether r is one of the four right-angle rotations.
func (r Rotation) Valid() bool {
	switch r {
	case Rotation0, Rotation90, Rotation180, Rotation270:
		return true
	}
	return false
}

// Orientation is the output transform applied at read-back.
type Orientation struct {
	Rotation Rotation
	// FlipY mirrors the image vertically after rotation.
	FlipY bool
}

// String returns a compact form such as "90" or "180+flipY".
func (o Orientation) String() string {
	if o.FlipY {
		return fmt.Sprintf("%d+flipY", o.Rotation)
	}
	return fmt.Sprintf("%d", o.Rotation)
}

// TextureID is an implementation-defined handle to a rendered buffer.
type TextureID uint32

// SharingContext is an opaque platform value that lets a peer context be
// configured for resource sharing with the render context. The core never
// interprets it.
type SharingContext uintptr

// Data is a read-back pixel buffer. Pix is owned by the receiver.
type Data struct {
	Pix    []byte
	Width  int
	Height int
	Format frame.PixelFormat
}

// Size returns the number of payload bytes.
func (d *Data) Size() int {
	if d == nil {
		return 0
	}
	return len(d.Pix)
}

// ICanvas is the drawable back buffer a render target hands to the effect
// player while its context is current.
type ICanvas interface {
	// Bounds returns the surface rectangle.
	Bounds() image.Rectangle

	// Draw replaces the surface contents with img, scaled to Bounds.
	Draw(img image.Image) error
}

// IRenderTarget defines the render context handle.
type IRenderTarget interface {
	// Init allocates the context's buffers. Called once on the render worker.
	Init() error

	// Deinit releases the context. Called on the same worker as Init.
	Deinit() error

	// SurfaceChanged reconfigures buffers to new dimensions.
	SurfaceChanged(width, height int) error

	// ActivateContext makes the context current for the calling worker.
	ActivateContext() error

	// DeactivateContext releases the context from the calling worker.
	// Required before the context can be shared with a peer.
	DeactivateContext() error

	// PrepareRendering readies the back buffer for a new frame.
	PrepareRendering() (ICanvas, error)

	// OrientImage sets the transform applied by the next read-back.
	OrientImage(orient Orientation) error

	// ReadCurrentBuffer returns the rendered frame as owned RGBA bytes.
	ReadCurrentBuffer() (*Data, error)

	// CurrentBufferTexture returns a handle to the rendered buffer.
	CurrentBufferTexture() (TextureID, error)

	// SharingContext returns the opaque sharing token. Safe from any
	// goroutine, performs no I/O.
	SharingContext() SharingContext
}
