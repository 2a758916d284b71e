// Package scenegen renders small analytic scenes into the G-buffer inputs
// the reflection pipeline consumes: lit color, depth, world normals and
// smoothness. It stands in for the host renderer in tests and the demo.
package scenegen

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/sscr/internal/envmap"
	"github.com/gogpu/sscr/internal/image"
)

// Box is an axis-aligned box.
type Box struct {
	Min, Max   mgl64.Vec3
	Color      mgl32.Vec4
	Smoothness float32
}

// Scene is a ground plane at FloorY plus boxes, lit by one directional light.
type Scene struct {
	FloorY          float64
	FloorColor      mgl32.Vec4
	FloorSmoothness float32
	Boxes           []Box
	LightDir        mgl64.Vec3 // direction towards the light
	Ambient         float32
	Sky             envmap.Sampler
}

// MirrorFloor returns the reference scene: a perfectly smooth dark floor with
// a red unit cube standing on it under a gradient sky.
func MirrorFloor() Scene {
	return Scene{
		FloorY:          0,
		FloorColor:      mgl32.Vec4{0.05, 0.05, 0.05, 1},
		FloorSmoothness: 1,
		Boxes: []Box{{
			Min:        mgl64.Vec3{-0.5, 0, -0.5},
			Max:        mgl64.Vec3{0.5, 1, 0.5},
			Color:      mgl32.Vec4{0.9, 0.1, 0.1, 1},
			Smoothness: 0.2,
		}},
		LightDir: mgl64.Vec3{0.4, 1, 0.6}.Normalize(),
		Ambient:  0.25,
		Sky:      DefaultSky(),
	}
}

// DefaultSky is the gradient sky used by MirrorFloor.
func DefaultSky() envmap.Gradient {
	return envmap.Gradient{
		Zenith:  mgl32.Vec4{0.15, 0.3, 0.8, 1},
		Horizon: mgl32.Vec4{0.7, 0.8, 0.9, 1},
		Ground:  mgl32.Vec4{0.2, 0.18, 0.15, 1},
	}
}

// Output holds the rendered G-buffer.
type Output struct {
	Color      *image.ImageBuf // RGBAFloat, linear HDR
	Depth      *image.ImageBuf // RFloat, GPU clip depth, 1 for background
	Normals    *image.ImageBuf // RGBFloat, world space
	Smoothness *image.ImageBuf // RFloat
}

type hit struct {
	t          float64
	normal     mgl64.Vec3
	color      mgl32.Vec4
	smoothness float32
}

// Render ray casts the scene for a camera with the given view matrix and
// GPU-convention projection. Depth is written in the projection's clip
// convention.
func (s Scene) Render(width, height int, view, projection mgl64.Mat4) (*Output, error) {
	var out Output
	var err error
	if out.Color, err = image.NewImageBuf(width, height, image.FormatRGBAFloat); err != nil {
		return nil, err
	}
	if out.Depth, err = image.NewImageBuf(width, height, image.FormatRFloat); err != nil {
		return nil, err
	}
	if out.Normals, err = image.NewImageBuf(width, height, image.FormatRGBFloat); err != nil {
		return nil, err
	}
	if out.Smoothness, err = image.NewImageBuf(width, height, image.FormatRFloat); err != nil {
		return nil, err
	}

	viewProj := projection.Mul4(view)
	invViewProj := viewProj.Inv()
	eye := view.Inv().Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			u := (float64(x) + 0.5) / float64(width)
			v := (float64(y) + 0.5) / float64(height)
			p := invViewProj.Mul4x1(mgl64.Vec4{2*u - 1, 1 - 2*v, 0.9, 1})
			dir := p.Vec3().Mul(1 / p.W()).Sub(eye).Normalize()

			h, ok := s.trace(eye, dir)
			if !ok {
				out.Color.Set(x, y, s.sky(dir))
				out.Depth.SetR(x, y, 1)
				continue
			}
			pos := eye.Add(dir.Mul(h.t))
			clip := viewProj.Mul4x1(pos.Vec4(1))
			out.Depth.SetR(x, y, float32(clip.Z()/clip.W()))
			out.Normals.Set(x, y, mgl32.Vec4{float32(h.normal.X()), float32(h.normal.Y()), float32(h.normal.Z()), 0})
			out.Smoothness.SetR(x, y, h.smoothness)
			out.Color.Set(x, y, s.shade(h))
		}
	}
	return &out, nil
}

func (s Scene) sky(dir mgl64.Vec3) mgl32.Vec4 {
	if s.Sky == nil {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	return s.Sky.Sample(dir)
}

func (s Scene) shade(h hit) mgl32.Vec4 {
	lambert := float32(math.Max(0, h.normal.Dot(s.LightDir)))
	k := s.Ambient + (1-s.Ambient)*lambert
	c := h.color.Mul(k)
	c[3] = h.color[3]
	return c
}

// trace returns the closest intersection along the ray.
func (s Scene) trace(o, d mgl64.Vec3) (hit, bool) {
	best := hit{t: math.Inf(1)}
	found := false

	if d.Y() != 0 {
		t := (s.FloorY - o.Y()) / d.Y()
		if t > 1e-6 {
			best = hit{t: t, normal: mgl64.Vec3{0, 1, 0}, color: s.FloorColor, smoothness: s.FloorSmoothness}
			found = true
		}
	}
	for _, b := range s.Boxes {
		t, n, ok := intersectBox(o, d, b.Min, b.Max)
		if ok && t < best.t {
			best = hit{t: t, normal: n, color: b.Color, smoothness: b.Smoothness}
			found = true
		}
	}
	return best, found
}

// intersectBox is the slab test. The normal is that of the entry face.
func intersectBox(o, d, lo, hi mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	tNear, tFar := math.Inf(-1), math.Inf(1)
	var normal mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		if d[axis] == 0 {
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return 0, normal, false
			}
			continue
		}
		t1 := (lo[axis] - o[axis]) / d[axis]
		t2 := (hi[axis] - o[axis]) / d[axis]
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tNear {
			tNear = t1
			normal = mgl64.Vec3{}
			normal[axis] = sign
		}
		tFar = math.Min(tFar, t2)
	}
	if tNear > tFar || tNear <= 1e-6 {
		return 0, normal, false
	}
	return tNear, normal, true
}
