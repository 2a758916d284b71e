package sscr

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/sscr/internal/filter"
)

// rayLengthScale sets the view-space ray length as a multiple of the
// origin's distance along the view axis.
const rayLengthScale = 4

// thicknessScale is the minimum surface thickness as a fraction of the
// surface's view distance.
const thicknessScale = 0.02

// RayMarchStats summarises one ray march pass.
type RayMarchStats struct {
	// Rays is the number of half resolution pixels that cast a ray.
	Rays int
	// Hits is the number of rays that found a surface.
	Hits int
	// MaxIterations is the largest number of steps any ray took. It never
	// exceeds the ray step budget.
	MaxIterations int
}

// HalfResolution returns the size of the hit buffer for a full resolution
// frame. Odd sizes round down.
func HalfResolution(width, height int) (int, int) {
	return max(1, width/2), max(1, height/2)
}

// rayMarcher marches reflected rays against the depth buffer.
type rayMarcher struct {
	surf   *surface
	steps  int
	fade   float64
	noise  bool
	frame  uint32
	nearZ  float64
	hw, hh int
}

func newRayMarcher(surf *surface, params Parameters, frame uint32) *rayMarcher {
	hw, hh := HalfResolution(surf.width, surf.height)
	return &rayMarcher{
		surf:  surf,
		steps: params.RayStepBudget,
		fade:  params.ScreenFadeSize,
		noise: params.TemporalNoise,
		frame: frame,
		nearZ: surf.m.nearZ,
		hw:    hw,
		hh:    hh,
	}
}

// run fills dst (half resolution, RGBAHalf) with hits: (uv, confidence, 1)
// on hit and zero on miss.
func (r *rayMarcher) run(dst *Buffer, rows filter.RowRunner) RayMarchStats {
	var (
		mu    sync.Mutex
		stats RayMarchStats
	)
	rows(r.hh, func(y0, y1 int) {
		var local RayMarchStats
		for hy := y0; hy < y1; hy++ {
			for hx := 0; hx < r.hw; hx++ {
				hit, iterations, cast := r.march(hx, hy)
				dst.Set(hx, hy, hit)
				if cast {
					local.Rays++
				}
				if hit[3] > 0 {
					local.Hits++
				}
				local.MaxIterations = max(local.MaxIterations, iterations)
			}
		}
		mu.Lock()
		stats.Rays += local.Rays
		stats.Hits += local.Hits
		stats.MaxIterations = max(stats.MaxIterations, local.MaxIterations)
		mu.Unlock()
	})
	return stats
}

// march traces the reflection ray of half resolution pixel (hx, hy). cast
// is false for pixels that emit the miss sentinel without marching.
func (r *rayMarcher) march(hx, hy int) (hit mgl32.Vec4, iterations int, cast bool) {
	s := r.surf
	ox, oy := s.pixel((float64(hx)+0.5)/float64(r.hw), (float64(hy)+0.5)/float64(r.hh))
	if s.background(ox, oy) {
		return mgl32.Vec4{}, 0, false
	}

	origin := s.viewPosition(ox, oy)
	normal := s.viewNormal(ox, oy)
	viewDir := origin.Normalize()
	if normal.Dot(viewDir) >= 0 {
		return mgl32.Vec4{}, 0, false
	}
	dir := reflect(viewDir, normal)

	// Clip to the near plane.
	rayLen := -origin.Z() * rayLengthScale
	if dir.Z() > 0 {
		rayLen = min(rayLen, (r.nearZ-origin.Z())/dir.Z()*0.999)
	}
	end := origin.Add(dir.Mul(rayLen))

	u0, v0, k0 := s.m.ProjectView(origin)
	u1, v1, k1 := s.m.ProjectView(end)
	q0, q1 := origin.Z()*k0, end.Z()*k1

	// Keep the whole step budget on screen. uv, 1/w and z/w are all affine
	// in screen space, so the end point is clipped by interpolating them.
	if c := screenClip(u0, v0, u1, v1); c < 1 {
		u1, v1 = lerp(u0, u1, c), lerp(v0, v1, c)
		q1, k1 = lerp(q0, q1, c), lerp(k0, k1, c)
	}

	jitter := 1.0
	if r.noise {
		jitter = interleavedGradientNoise(float64(hx)+0.5, float64(hy)+0.5, r.frame)
	}

	n := float64(r.steps)
	prevZ := origin.Z()
	for i := 0; i < r.steps; i++ {
		iterations = i + 1
		t := (float64(i) + jitter) / n
		u, v := lerp(u0, u1, t), lerp(v0, v1, t)
		if u < 0 || u > 1 || v < 0 || v > 1 {
			break
		}
		rayZ := lerp(q0, q1, t) / lerp(k0, k1, t)
		sx, sy := s.pixel(u, v)
		if sx == ox && sy == oy {
			prevZ = rayZ
			continue
		}
		sceneDepth := s.depth(sx, sy)
		sceneZ := s.m.ViewPosition(u, v, sceneDepth).Z()
		thickness := max(math.Abs(rayZ-prevZ), thicknessScale*math.Abs(sceneZ))
		prevZ = rayZ
		if !isBackground(sceneDepth) && rayZ <= sceneZ && rayZ >= sceneZ-thickness {
			confidence := edgeFade(u, v, r.fade) * (1 - float64(i)/n)
			return mgl32.Vec4{float32(u), float32(v), float32(confidence), 1}, iterations, true
		}
	}
	return mgl32.Vec4{}, iterations, true
}

// screenClip returns the largest t in [0,1] for which the segment from
// (u0, v0) to (u1, v1) stays inside the unit square. The start point must be
// inside.
func screenClip(u0, v0, u1, v1 float64) float64 {
	t := 1.0
	for _, c := range [2][2]float64{{u0, u1}, {v0, v1}} {
		a, b := c[0], c[1]
		switch {
		case b > 1:
			t = min(t, (1-a)/(b-a))
		case b < 0:
			t = min(t, a/(a-b))
		}
	}
	return max(t, 0)
}

// edgeFade is 1 inside the screen and falls linearly to 0 over a border
// band of width fadeSize in uv units.
func edgeFade(u, v, fadeSize float64) float64 {
	if fadeSize <= 0 {
		return 1
	}
	d := min(u, 1-u, v, 1-v)
	return clamp01(d / fadeSize)
}

// interleavedGradientNoise returns a per-pixel value in [0,1) that changes
// with the frame index.
func interleavedGradientNoise(x, y float64, frame uint32) float64 {
	o := 5.588238 * float64(frame%64)
	x, y = x+o, y+o
	f := 52.9829189 * fract(0.06711056*x+0.00583715*y)
	return fract(f)
}

func fract(v float64) float64 {
	return v - math.Floor(v)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func reflect(d, n mgl64.Vec3) mgl64.Vec3 {
	return d.Sub(n.Mul(2 * d.Dot(n)))
}
