package image

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SampleNearest returns the texel containing normalized coordinates (u, v).
// (0,0) is the top-left corner; out-of-range coordinates clamp to the edge.
func SampleNearest(img *ImageBuf, u, v float32) mgl32.Vec4 {
	x := int(math.Floor(float64(u * float32(img.width))))
	y := int(math.Floor(float64(v * float32(img.height))))
	return img.At(x, y)
}

// SampleBilinear interpolates the four texels around (u, v) with
// clamp-to-edge addressing.
func SampleBilinear(img *ImageBuf, u, v float32) mgl32.Vec4 {
	fx := u*float32(img.width) - 0.5
	fy := v*float32(img.height) - 0.5

	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	top := Lerp4(img.At(x0, y0), img.At(x0+1, y0), tx)
	bottom := Lerp4(img.At(x0, y0+1), img.At(x0+1, y0+1), tx)
	return Lerp4(top, bottom, ty)
}

// SampleTrilinear samples tex at (u, v) with a fractional level of detail:
// bilinear within the two nearest levels, linear between them. lod is
// clamped to the available levels.
func SampleTrilinear(tex *Texture, u, v, lod float32) mgl32.Vec4 {
	maxLevel := float32(tex.NumLevels() - 1)
	lod = clampf(lod, 0, maxLevel)
	l0 := int(lod)
	frac := lod - float32(l0)
	a := SampleBilinear(tex.levels[l0], u, v)
	if frac == 0 || l0+1 >= len(tex.levels) {
		return a
	}
	b := SampleBilinear(tex.levels[l0+1], u, v)
	return Lerp4(a, b, frac)
}
