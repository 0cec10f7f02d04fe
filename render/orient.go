package render

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/opd-ai/offscreen/interfaces"
)

// Orient returns a new image holding src rotated clockwise by o.Rotation and
// then flipped vertically when o.FlipY is set. src is not modified.
func Orient(src *image.RGBA, o interfaces.Orientation) *image.RGBA {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	var dst *image.RGBA
	var s2d f64.Aff3
	switch o.Rotation {
	case interfaces.Rotation90:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		s2d = f64.Aff3{0, -1, h + float64(b.Min.Y), 1, 0, -float64(b.Min.X)}
	case interfaces.Rotation180:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		s2d = f64.Aff3{-1, 0, w + float64(b.Min.X), 0, -1, h + float64(b.Min.Y)}
	case interfaces.Rotation270:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		s2d = f64.Aff3{0, 1, -float64(b.Min.Y), -1, 0, w + float64(b.Min.X)}
	default:
		dst = clone.AsRGBA(src)
	}

	if o.Rotation != interfaces.Rotation0 {
		// Nearest neighbour keeps right-angle rotations exact.
		draw.NearestNeighbor.Transform(dst, s2d, src, b, draw.Src, nil)
	}
	if o.FlipY {
		dst = transform.FlipV(dst)
	}
	return dst
}
