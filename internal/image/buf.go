package image

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrUnsupportedFormat is returned when the format is not recognized.
	ErrUnsupportedFormat = errors.New("image: unsupported format")

	// ErrSizeMismatch is returned when two buffers must share dimensions but do not.
	ErrSizeMismatch = errors.New("image: size mismatch")
)

// ImageBuf is a floating point image buffer.
//
// Pixels are stored row-major with Format.Channels() float32 values each.
// Reads always return four channels: missing color channels read as 0 and
// missing alpha reads as 1.
//
// Thread safety: ImageBuf is safe for concurrent reads. Concurrent writes to
// disjoint rows are safe; anything else requires external synchronization.
type ImageBuf struct {
	data     []float32
	width    int
	height   int
	channels int
	format   Format
}

// NewImageBuf creates a zeroed buffer with the given dimensions and format.
func NewImageBuf(width, height int, format Format) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	ch := format.Channels()
	return &ImageBuf{
		data:     make([]float32, width*height*ch),
		width:    width,
		height:   height,
		channels: ch,
		format:   format,
	}, nil
}

// Width returns the image width in pixels.
func (b *ImageBuf) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *ImageBuf) Height() int { return b.height }

// Bounds returns width and height.
func (b *ImageBuf) Bounds() (width, height int) { return b.width, b.height }

// Format returns the pixel format.
func (b *ImageBuf) Format() Format { return b.format }

// Data returns the underlying pixel storage.
func (b *ImageBuf) Data() []float32 { return b.data }

// ByteSize returns the size the buffer occupies in GPU memory.
func (b *ImageBuf) ByteSize() int {
	return b.width * b.height * b.format.BytesPerPixel()
}

// SameSize reports whether b and o have identical dimensions.
func (b *ImageBuf) SameSize(o *ImageBuf) bool {
	return o != nil && b.width == o.width && b.height == o.height
}

func (b *ImageBuf) offset(x, y int) int {
	return (y*b.width + x) * b.channels
}

// At returns the pixel at (x, y). Out-of-bounds coordinates are clamped to the edge.
func (b *ImageBuf) At(x, y int) mgl32.Vec4 {
	x = clamp(x, 0, b.width-1)
	y = clamp(y, 0, b.height-1)
	i := b.offset(x, y)
	switch b.channels {
	case 1:
		return mgl32.Vec4{b.data[i], 0, 0, 1}
	case 3:
		return mgl32.Vec4{b.data[i], b.data[i+1], b.data[i+2], 1}
	default:
		return mgl32.Vec4{b.data[i], b.data[i+1], b.data[i+2], b.data[i+3]}
	}
}

// R returns the first channel at (x, y), clamped to the edge.
func (b *ImageBuf) R(x, y int) float32 {
	x = clamp(x, 0, b.width-1)
	y = clamp(y, 0, b.height-1)
	return b.data[b.offset(x, y)]
}

// Set stores the pixel at (x, y), dropping channels the format lacks.
// Half formats are quantized. Out-of-bounds writes are ignored.
func (b *ImageBuf) Set(x, y int, c mgl32.Vec4) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	i := b.offset(x, y)
	for ch := 0; ch < b.channels; ch++ {
		b.data[i+ch] = b.format.quantize(c[ch])
	}
}

// SetR stores the first channel at (x, y).
func (b *ImageBuf) SetR(x, y int, v float32) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	b.data[b.offset(x, y)] = b.format.quantize(v)
}

// Clear zeroes all pixels.
func (b *ImageBuf) Clear() {
	clear(b.data)
}

// Fill sets every pixel to c.
func (b *ImageBuf) Fill(c mgl32.Vec4) {
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			b.Set(x, y, c)
		}
	}
}

// CopyFrom copies src into b. Both buffers must have the same size and
// channel count.
func (b *ImageBuf) CopyFrom(src *ImageBuf) error {
	if !b.SameSize(src) || b.channels != src.channels {
		return fmt.Errorf("%w: %dx%d %s <- %dx%d %s", ErrSizeMismatch,
			b.width, b.height, b.format, src.width, src.height, src.format)
	}
	if b.format == src.format || !b.format.Info().Half {
		copy(b.data, src.data)
		return nil
	}
	for i, v := range src.data {
		b.data[i] = b.format.quantize(v)
	}
	return nil
}

// Clone returns a deep copy of b.
func (b *ImageBuf) Clone() *ImageBuf {
	c := *b
	c.data = append([]float32(nil), b.data...)
	return &c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
