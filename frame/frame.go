package frame

import (
	"fmt"
	"image"
	"time"

	"github.com/anthonynsimon/bild/clone"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/offscreen/limits"
)

// PixelFormat identifies the memory layout of a frame's pixels.
type PixelFormat uint8

const (
	// FormatRGBA is packed 8-bit R, G, B, A.
	FormatRGBA PixelFormat = iota
	// FormatBGRA is packed 8-bit B, G, R, A.
	FormatBGRA
	// FormatNV12 is a full-resolution Y plane followed by an interleaved
	// half-resolution CbCr plane.
	FormatNV12
	// FormatI420 is a full-resolution Y plane followed by separate
	// half-resolution Cb and Cr planes.
	FormatI420
)

// String returns the conventional name of the format.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "RGBA"
	case FormatBGRA:
		return "BGRA"
	case FormatNV12:
		return "NV12"
	case FormatI420:
		return "I420"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
}

// Frame is an immutable input image.
type Frame struct {
	Format    PixelFormat
	Width     int
	Height    int
	Pix       []byte
	Timestamp time.Duration
}

// New validates the geometry and payload and returns a Frame that borrows pix.
func New(format PixelFormat, width, height int, pix []byte) (*Frame, error) {
	f := &Frame{Format: format, Width: width, Height: height, Pix: pix}
	if err := f.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "frame.New",
			"format":   format.String(),
			"width":    width,
			"height":   height,
			"size":     len(pix),
			"error":    err.Error(),
		}).Debug("Frame validation failed")
		return nil, err
	}
	return f, nil
}

// Validate checks the frame against the package limits.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", limits.ErrFrameEmpty)
	}
	if err := limits.ValidateDimensions(f.Width, f.Height); err != nil {
		return err
	}
	required, err := RequiredBytes(f.Format, f.Width, f.Height)
	if err != nil {
		return err
	}
	return limits.ValidatePayload(len(f.Pix), required)
}

// RequiredBytes returns the tightly packed payload size for a geometry.
func RequiredBytes(format PixelFormat, width, height int) (int, error) {
	switch format {
	case FormatRGBA, FormatBGRA:
		return width * height * 4, nil
	case FormatNV12, FormatI420:
		cw, ch := chromaSize(width, height)
		return width*height + 2*cw*ch, nil
	default:
		return 0, fmt.Errorf("unsupported pixel format %s", format)
	}
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Image returns a read-only image.Image view of the frame. RGBA and I420
// frames are wrapped without copying; BGRA and NV12 are converted.
func (f *Frame) Image() image.Image {
	rect := f.Bounds()
	switch f.Format {
	case FormatRGBA:
		return &image.RGBA{Pix: f.Pix[:f.Width*f.Height*4], Stride: f.Width * 4, Rect: rect}
	case FormatBGRA:
		img := image.NewRGBA(rect)
		n := f.Width * f.Height * 4
		for i := 0; i < n; i += 4 {
			img.Pix[i+0] = f.Pix[i+2]
			img.Pix[i+1] = f.Pix[i+1]
			img.Pix[i+2] = f.Pix[i+0]
			img.Pix[i+3] = f.Pix[i+3]
		}
		return img
	case FormatI420:
		ys := f.Width * f.Height
		cw, ch := chromaSize(f.Width, f.Height)
		cs := cw * ch
		return &image.YCbCr{
			Y:              f.Pix[:ys],
			Cb:             f.Pix[ys : ys+cs],
			Cr:             f.Pix[ys+cs : ys+2*cs],
			YStride:        f.Width,
			CStride:        cw,
			SubsampleRatio: image.YCbCrSubsampleRatio420,
			Rect:           rect,
		}
	case FormatNV12:
		img := image.NewYCbCr(rect, image.YCbCrSubsampleRatio420)
		ys := f.Width * f.Height
		copy(img.Y, f.Pix[:ys])
		cw, ch := chromaSize(f.Width, f.Height)
		uv := f.Pix[ys:]
		for i := 0; i < cw*ch; i++ {
			img.Cb[i] = uv[2*i]
			img.Cr[i] = uv[2*i+1]
		}
		return img
	default:
		return image.NewRGBA(rect)
	}
}

// RGBA returns an owned RGBA copy of the frame.
func (f *Frame) RGBA() *image.RGBA {
	return clone.AsRGBA(f.Image())
}

func chromaSize(width, height int) (int, int) {
	return (width + 1) / 2, (height + 1) / 2
}
