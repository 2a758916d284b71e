package image

import (
	"fmt"
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
)

// MipCount returns the length of the full mip chain for a width x height
// image: one level per halving of the larger dimension, down to 1 pixel.
func MipCount(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return bits.Len(uint(max(width, height)))
}

// Texture is an image with a mip chain.
//
// Level 0 is full size; each following level is half the size of the
// previous one. Every level carries a generation stamp recording the last
// generation that wrote it, so readers can check a level holds data for the
// current frame.
type Texture struct {
	levels []*ImageBuf
	stamps []uint64
}

// NewTexture allocates a texture with mipCount levels. A mipCount of 0 means
// the full chain.
func NewTexture(width, height int, format Format, mipCount int) (*Texture, error) {
	full := MipCount(width, height)
	if full == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if mipCount <= 0 || mipCount > full {
		mipCount = full
	}
	t := &Texture{
		levels: make([]*ImageBuf, mipCount),
		stamps: make([]uint64, mipCount),
	}
	w, h := width, height
	for i := range t.levels {
		lvl, err := NewImageBuf(w, h, format)
		if err != nil {
			return nil, err
		}
		t.levels[i] = lvl
		w, h = max(1, w/2), max(1, h/2)
	}
	return t, nil
}

// Level returns mip level n, or nil if n is out of range.
func (t *Texture) Level(n int) *ImageBuf {
	if t == nil || n < 0 || n >= len(t.levels) {
		return nil
	}
	return t.levels[n]
}

// NumLevels returns the number of mip levels.
func (t *Texture) NumLevels() int {
	if t == nil {
		return 0
	}
	return len(t.levels)
}

// Width returns the width of level 0.
func (t *Texture) Width() int { return t.levels[0].width }

// Height returns the height of level 0.
func (t *Texture) Height() int { return t.levels[0].height }

// Format returns the pixel format shared by all levels.
func (t *Texture) Format() Format { return t.levels[0].format }

// ByteSize returns the GPU memory size of the whole chain.
func (t *Texture) ByteSize() int {
	n := 0
	for _, l := range t.levels {
		n += l.ByteSize()
	}
	return n
}

// MarkWritten stamps level n with generation gen.
func (t *Texture) MarkWritten(n int, gen uint64) {
	if n >= 0 && n < len(t.stamps) {
		t.stamps[n] = gen
	}
}

// LevelWritten reports whether level n was written in generation gen.
func (t *Texture) LevelWritten(n int, gen uint64) bool {
	return n >= 0 && n < len(t.stamps) && t.stamps[n] == gen
}

// AllWritten reports whether every level was written in generation gen.
// It returns the first stale level when not.
func (t *Texture) AllWritten(gen uint64) (int, bool) {
	for i, s := range t.stamps {
		if s != gen {
			return i, false
		}
	}
	return -1, true
}

// GenerateMips fills levels 1..n-1 from level 0 with a 2x2 box filter and
// stamps them with gen.
func (t *Texture) GenerateMips(gen uint64) {
	for i := 1; i < len(t.levels); i++ {
		dst := t.levels[i]
		Downsample(dst, t.levels[i-1], 0, dst.height)
		t.stamps[i] = gen
	}
}

// Downsample writes rows [y0, y1) of dst as the 2x2 box filtered average of
// src, which is expected to be twice the size of dst (odd edges are clamped).
func Downsample(dst, src *ImageBuf, y0, y1 int) {
	srcW, srcH := src.Bounds()
	for dy := y0; dy < y1; dy++ {
		sy := dy * 2
		sy1 := min(sy+1, srcH-1)
		for dx := 0; dx < dst.width; dx++ {
			sx := dx * 2
			sx1 := min(sx+1, srcW-1)
			sum := src.At(sx, sy).Add(src.At(sx1, sy)).Add(src.At(sx, sy1)).Add(src.At(sx1, sy1))
			dst.Set(dx, dy, sum.Mul(0.25))
		}
	}
}

// Resample writes rows [y0, y1) of dst with a bilinear resample of src,
// covering the whole source image regardless of aspect ratio.
func Resample(dst, src *ImageBuf, y0, y1 int) {
	w, h := dst.Bounds()
	for y := y0; y < y1; y++ {
		v := (float32(y) + 0.5) / float32(h)
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / float32(w)
			dst.Set(x, y, SampleBilinear(src, u, v))
		}
	}
}

// Lerp4 linearly interpolates between a and b.
func Lerp4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}
