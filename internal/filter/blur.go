package filter

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/sscr/internal/image"
)

// RowRunner runs fn over row bands [y0, y1) that together cover [0, height).
// Bands may run concurrently; RowRunner returns once all of them finished.
type RowRunner func(height int, fn func(y0, y1 int))

// Sequential is a RowRunner that processes all rows on the calling goroutine.
func Sequential(height int, fn func(y0, y1 int)) {
	fn(0, height)
}

// BlurFilter applies a separable Gaussian blur from src into dst.
// When dst is smaller than src the blur also resamples: taps are spaced one
// source texel apart around the source position of each destination texel.
type BlurFilter struct {
	// Kernel is the normalized 1D kernel, applied in both directions.
	Kernel []float32

	// Run splits the work into row bands. Nil means Sequential.
	Run RowRunner
}

// NewConeBlur creates a blur for a pyramid level with the given cone exponent.
func NewConeBlur(exponent float64, span int, run RowRunner) *BlurFilter {
	return &BlurFilter{Kernel: ConeKernel(exponent, span), Run: run}
}

// Apply blurs src into dst. Both passes complete before Apply returns.
func (f *BlurFilter) Apply(dst, src *image.ImageBuf) {
	if dst == nil || src == nil {
		return
	}
	run := f.Run
	if run == nil {
		run = Sequential
	}

	dstW, dstH := dst.Bounds()
	srcH := src.Height()
	temp := getTempBuffer(dstW, srcH)
	defer putTempBuffer(temp)

	// Pass 1: horizontal (src -> temp), dst width by src height.
	run(srcH, func(y0, y1 int) {
		blurHorizontal(src, temp, dstW, y0, y1, f.Kernel)
	})
	// Pass 2: vertical (temp -> dst).
	run(dstH, func(y0, y1 int) {
		blurVertical(temp, dst, srcH, y0, y1, f.Kernel)
	})
}

// sourceCoord maps destination texel i to a continuous source texel coordinate.
func sourceCoord(i, dstSize, srcSize int) float32 {
	return (float32(i)+0.5)*float32(srcSize)/float32(dstSize) - 0.5
}

// blurHorizontal convolves rows [y0, y1) of src into temp.
func blurHorizontal(src *image.ImageBuf, temp []float32, dstW, y0, y1 int, kernel []float32) {
	half := len(kernel) / 2
	srcW := src.Width()
	for y := y0; y < y1; y++ {
		row := temp[y*dstW*4:]
		for x := 0; x < dstW; x++ {
			cx := sourceCoord(x, dstW, srcW)
			var acc mgl32.Vec4
			for k, w := range kernel {
				acc = acc.Add(lerpRow(src, cx+float32(k-half), y).Mul(w))
			}
			copy(row[x*4:x*4+4], acc[:])
		}
	}
}

// blurVertical convolves temp into rows [y0, y1) of dst.
func blurVertical(temp []float32, dst *image.ImageBuf, srcH, y0, y1 int, kernel []float32) {
	half := len(kernel) / 2
	dstW, dstH := dst.Bounds()
	for y := y0; y < y1; y++ {
		cy := sourceCoord(y, dstH, srcH)
		for x := 0; x < dstW; x++ {
			var acc mgl32.Vec4
			for k, w := range kernel {
				acc = acc.Add(lerpColumn(temp, dstW, srcH, x, cy+float32(k-half)).Mul(w))
			}
			dst.Set(x, y, acc)
		}
	}
}

// lerpRow linearly interpolates src along x at continuous coordinate fx.
func lerpRow(src *image.ImageBuf, fx float32, y int) mgl32.Vec4 {
	x0 := int(math.Floor(float64(fx)))
	t := fx - float32(x0)
	a := src.At(x0, y)
	if t == 0 {
		return a
	}
	return image.Lerp4(a, src.At(x0+1, y), t)
}

// lerpColumn linearly interpolates the temp buffer along y.
func lerpColumn(temp []float32, w, h, x int, fy float32) mgl32.Vec4 {
	y0 := int(math.Floor(float64(fy)))
	t := fy - float32(y0)
	a := tempAt(temp, w, h, x, y0)
	if t == 0 {
		return a
	}
	return image.Lerp4(a, tempAt(temp, w, h, x, y0+1), t)
}

func tempAt(temp []float32, w, h, x, y int) mgl32.Vec4 {
	y = min(max(y, 0), h-1)
	i := (y*w + x) * 4
	return mgl32.Vec4{temp[i], temp[i+1], temp[i+2], temp[i+3]}
}

type floatBuffer struct {
	data []float32
}

var tempBufferPool = sync.Pool{
	New: func() interface{} {
		return &floatBuffer{data: make([]float32, 512*1024*4)}
	},
}

// getTempBuffer retrieves a scratch buffer of at least width*height*4 floats.
func getTempBuffer(width, height int) []float32 {
	size := width * height * 4
	wrapper := tempBufferPool.Get().(*floatBuffer)
	if len(wrapper.data) < size {
		tempBufferPool.Put(wrapper)
		return make([]float32, size)
	}
	clear(wrapper.data[:size])
	return wrapper.data[:size]
}

// putTempBuffer returns a scratch buffer to the pool.
func putTempBuffer(buf []float32) {
	if cap(buf) < 512*1024*4 {
		return
	}
	tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
}
