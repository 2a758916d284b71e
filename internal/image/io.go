package image

import (
	stdimage "image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ToRGBA converts an HDR buffer to an 8-bit image: exposure, Reinhard tone
// mapping, then gamma 2.2. Alpha is written as opaque.
func ToRGBA(src *ImageBuf, exposure float32) *stdimage.RGBA {
	w, h := src.Bounds()
	dst := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.At(x, y)
			dst.SetRGBA(x, y, color.RGBA{
				R: encodeChannel(c[0], exposure),
				G: encodeChannel(c[1], exposure),
				B: encodeChannel(c[2], exposure),
				A: 255,
			})
		}
	}
	return dst
}

func encodeChannel(v, exposure float32) uint8 {
	v *= exposure
	if !(v > 0) {
		return 0
	}
	v /= 1 + v
	v = float32(math.Pow(float64(v), 1/2.2))
	return uint8(clampf(v*255+0.5, 0, 255))
}

// FromImage converts any decoded image to a linear RGBA float buffer,
// undoing gamma 2.2.
func FromImage(src stdimage.Image, format Format) (*ImageBuf, error) {
	b := src.Bounds()
	dst, err := NewImageBuf(b.Dx(), b.Dy(), format)
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			dst.Set(x, y, mgl32.Vec4{
				decodeChannel(c.R),
				decodeChannel(c.G),
				decodeChannel(c.B),
				float32(c.A) / 0xffff,
			})
		}
	}
	return dst, nil
}

func decodeChannel(v uint16) float32 {
	return float32(math.Pow(float64(v)/0xffff, 2.2))
}
