package sscr

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// backgroundDepth is the clip depth at or beyond which a pixel is sky.
const backgroundDepth = 1 - 1e-6

// surface gives the passes pixel-level access to the frame's G-buffer in
// view space.
type surface struct {
	m             *FrameMatrices
	frame         *Frame
	width, height int
	worldToView   mgl64.Mat3
	viewToWorld   mgl64.Mat3
}

func newSurface(m *FrameMatrices, frame *Frame) *surface {
	w, h := frame.Color.Bounds()
	return &surface{
		m:           m,
		frame:       frame,
		width:       w,
		height:      h,
		worldToView: m.WorldToView.Mat3(),
		viewToWorld: m.ViewToWorld.Mat3(),
	}
}

// uv returns the texture coordinate of the center of pixel (x, y).
func (s *surface) uv(x, y int) (float64, float64) {
	return (float64(x) + 0.5) / float64(s.width), (float64(y) + 0.5) / float64(s.height)
}

// pixel returns the pixel containing uv, clamped to the image.
func (s *surface) pixel(u, v float64) (int, int) {
	x := min(max(int(math.Floor(u*float64(s.width))), 0), s.width-1)
	y := min(max(int(math.Floor(v*float64(s.height))), 0), s.height-1)
	return x, y
}

func (s *surface) depth(x, y int) float64 {
	return float64(s.frame.Depth.R(x, y))
}

func isBackground(depth float64) bool {
	return depth >= backgroundDepth || math.IsNaN(depth)
}

func (s *surface) background(x, y int) bool {
	return isBackground(s.depth(x, y))
}

// viewPosition reconstructs the view-space position of pixel (x, y).
func (s *surface) viewPosition(x, y int) mgl64.Vec3 {
	u, v := s.uv(x, y)
	return s.m.ViewPosition(u, v, s.depth(x, y))
}

// viewNormal returns the view-space normal of pixel (x, y), facing the
// camera.
func (s *surface) viewNormal(x, y int) mgl64.Vec3 {
	if s.frame.Normals != nil {
		c := s.frame.Normals.At(x, y)
		n := mgl64.Vec3{float64(c[0]), float64(c[1]), float64(c[2])}
		if n.Len() > 0 {
			return s.worldToView.Mul3x1(n).Normalize()
		}
	}
	return s.reconstructNormal(x, y)
}

// worldNormal returns the world-space normal of pixel (x, y).
func (s *surface) worldNormal(x, y int) mgl64.Vec3 {
	if s.frame.Normals != nil {
		c := s.frame.Normals.At(x, y)
		n := mgl64.Vec3{float64(c[0]), float64(c[1]), float64(c[2])}
		if n.Len() > 0 {
			return n.Normalize()
		}
	}
	return s.viewToWorld.Mul3x1(s.reconstructNormal(x, y)).Normalize()
}

// reconstructNormal derives a normal from neighbouring depths, using the
// neighbour on the side with the smaller depth step so silhouettes do not
// bend the normal.
func (s *surface) reconstructNormal(x, y int) mgl64.Vec3 {
	p := s.viewPosition(x, y)
	dx := s.tangent(p, x, y, 1, 0)
	dy := s.tangent(p, x, y, 0, 1)
	n := dx.Cross(dy)
	if n.Len() == 0 {
		return p.Mul(-1).Normalize()
	}
	n = n.Normalize()
	if n.Dot(p) > 0 {
		n = n.Mul(-1)
	}
	return n
}

func (s *surface) tangent(p mgl64.Vec3, x, y, sx, sy int) mgl64.Vec3 {
	var fwd, back mgl64.Vec3
	okF := x+sx < s.width && y+sy < s.height && !s.background(x+sx, y+sy)
	okB := x-sx >= 0 && y-sy >= 0 && !s.background(x-sx, y-sy)
	if okF {
		fwd = s.viewPosition(x+sx, y+sy).Sub(p)
	}
	if okB {
		back = p.Sub(s.viewPosition(x-sx, y-sy))
	}
	switch {
	case okF && okB:
		if math.Abs(fwd.Z()) <= math.Abs(back.Z()) {
			return fwd
		}
		return back
	case okF:
		return fwd
	default:
		return back
	}
}

// smoothness returns the surface smoothness of pixel (x, y), 1 when the
// frame carries none.
func (s *surface) smoothness(x, y int) float64 {
	if s.frame.Smoothness == nil {
		return 1
	}
	return clamp01(float64(s.frame.Smoothness.R(x, y)))
}
