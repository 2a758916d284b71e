package sscr

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/sscr/internal/image"
)

// Buffer is a float image with 1, 3 or 4 channels.
type Buffer = image.ImageBuf

// Format is a pixel format of a Buffer.
type Format = image.Format

// Pixel formats.
const (
	FormatRFloat    = image.FormatRFloat    // depth, smoothness
	FormatRGBFloat  = image.FormatRGBFloat  // normals
	FormatRGBAHalf  = image.FormatRGBAHalf  // hit buffer, pyramid
	FormatRGBAFloat = image.FormatRGBAFloat // HDR color
)

// NewBuffer allocates a cleared buffer.
func NewBuffer(width, height int, format Format) (*Buffer, error) {
	return image.NewImageBuf(width, height, format)
}

// Camera describes the view a frame was rendered from.
type Camera struct {
	// View is the world to view matrix. View space is right-handed and looks
	// down -z.
	View mgl64.Mat4

	// Projection is the GL-style projection matrix (clip depth in [-1,1]).
	// It is converted to Convention before use.
	Projection mgl64.Mat4

	// Width and Height are the render target size. Zero means the size of
	// the frame's color buffer.
	Width, Height int

	// Convention is the clip depth range of the depth buffer.
	Convention ClipConvention

	// FlipY is set when the render target is stored upside down.
	FlipY bool
}

// Environment provides the fallback reflection along a world-space
// direction.
type Environment interface {
	Sample(dir mgl64.Vec3) mgl32.Vec4
}

// Frame holds the per-frame inputs produced by the scene renderer.
type Frame struct {
	// Color is the lit scene in linear HDR. Required.
	Color *Buffer

	// Depth is clip depth in the camera's convention, 1 for background.
	// Required.
	Depth *Buffer

	// Normals are world-space surface normals. When nil they are
	// reconstructed from depth.
	Normals *Buffer

	// Smoothness is per-pixel surface smoothness. When nil every surface is
	// treated as a mirror.
	Smoothness *Buffer

	Camera Camera

	// Index is the frame counter that drives temporal noise.
	Index uint32

	// Environment is sampled where reflections are missing. May be nil.
	Environment Environment
}

// validate checks the caller contract for Render.
func (f *Frame) validate(dst *Buffer) error {
	if f == nil || f.Color == nil || f.Depth == nil || dst == nil {
		return ErrNilFrame
	}
	w, h := f.Color.Bounds()
	if f.Camera.Width != 0 || f.Camera.Height != 0 {
		if f.Camera.Width != w || f.Camera.Height != h {
			return fmt.Errorf("%w: camera %dx%d, color %dx%d", ErrSizeMismatch,
				f.Camera.Width, f.Camera.Height, w, h)
		}
	}
	for _, b := range []struct {
		name string
		buf  *Buffer
	}{{"depth", f.Depth}, {"normals", f.Normals}, {"smoothness", f.Smoothness}, {"destination", dst}} {
		if b.buf == nil {
			continue
		}
		if !b.buf.SameSize(f.Color) {
			return fmt.Errorf("%w: %s %dx%d, color %dx%d", ErrSizeMismatch,
				b.name, b.buf.Width(), b.buf.Height(), w, h)
		}
	}
	if dst.Format().Channels() != 4 {
		return fmt.Errorf("%w: destination format %s", ErrSizeMismatch, dst.Format())
	}
	return nil
}
