package frame

import (
	"fmt"
	"image"
	"image/color"
)

// Pack converts an RGBA image into a tightly packed payload of the requested
// format. The returned slice is owned by the caller.
func Pack(img *image.RGBA, format PixelFormat) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("pack: nil image")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch format {
	case FormatRGBA:
		out := make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(out[y*w*4:(y+1)*w*4], row[:w*4])
		}
		return out, nil
	case FormatBGRA:
		out, _ := Pack(img, FormatRGBA)
		for i := 0; i < len(out); i += 4 {
			out[i], out[i+2] = out[i+2], out[i]
		}
		return out, nil
	case FormatNV12, FormatI420:
		return packYUV(img, format), nil
	default:
		return nil, fmt.Errorf("pack: unsupported pixel format %s", format)
	}
}

// packYUV converts with BT.601 coefficients (image/color) and averages each
// 2x2 block for the chroma planes.
func packYUV(img *image.RGBA, format PixelFormat) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cw, ch := chromaSize(w, h)
	out := make([]byte, w*h+2*cw*ch)

	yPlane := out[:w*h]
	cb := make([]int, cw*ch)
	cr := make([]int, cw*ch)
	cnt := make([]int, cw*ch)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			yy, u, v := color.RGBToYCbCr(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			yPlane[y*w+x] = yy
			ci := (y/2)*cw + x/2
			cb[ci] += int(u)
			cr[ci] += int(v)
			cnt[ci]++
		}
	}

	chroma := out[w*h:]
	for i := range cnt {
		u := byte(cb[i] / cnt[i])
		v := byte(cr[i] / cnt[i])
		if format == FormatNV12 {
			chroma[2*i] = u
			chroma[2*i+1] = v
		} else {
			chroma[i] = u
			chroma[cw*ch+i] = v
		}
	}
	return out
}
