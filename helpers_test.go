package sscr

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/sscr/internal/scenegen"
)

var testEye = mgl64.Vec3{0, 2, 5}

// testCamera looks at the mirror floor scene's cube from above and in front.
func testCamera(width, height int) Camera {
	return Camera{
		View:       mgl64.LookAtV(testEye, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{0, 1, 0}),
		Projection: mgl64.Perspective(mgl64.DegToRad(50), float64(width)/float64(height), 0.1, 100),
		Width:      width,
		Height:     height,
		Convention: ClipZeroToOne,
	}
}

// mirrorFloorFrame renders the mirror floor scene into a frame.
func mirrorFloorFrame(t testing.TB, width, height int) *Frame {
	t.Helper()
	cam := testCamera(width, height)
	proj := GPUProjection(cam.Projection, cam.Convention, cam.FlipY)
	out, err := scenegen.MirrorFloor().Render(width, height, cam.View, proj)
	if err != nil {
		t.Fatalf("scene render: %v", err)
	}
	return &Frame{
		Color:       out.Color,
		Depth:       out.Depth,
		Normals:     out.Normals,
		Smoothness:  out.Smoothness,
		Camera:      cam,
		Environment: scenegen.DefaultSky(),
	}
}

// mirrorTarget is a half resolution floor pixel whose mirror reflection lands
// inside the cube's front face, with the uv where that face point appears.
type mirrorTarget struct {
	hx, hy int
	u, v   float64
}

// mirrorFrontFaceTargets traces the floor's mirror reflection analytically
// for every half resolution pixel that sees the floor in front of the cube.
// Face points within 0.1 of an edge are left out.
func mirrorFrontFaceTargets(t testing.TB, frame *Frame) []mirrorTarget {
	t.Helper()
	m := testFrameMatrices(t, frame.Camera)
	surf := newSurface(m, frame)
	hw, hh := HalfResolution(surf.width, surf.height)
	var targets []mirrorTarget
	for hy := range hh {
		for hx := range hw {
			x, y := surf.pixel((float64(hx)+0.5)/float64(hw), (float64(hy)+0.5)/float64(hh))
			if surf.background(x, y) {
				continue
			}
			u, v := surf.uv(x, y)
			p := m.WorldPosition(u, v, surf.depth(x, y))
			if math.Abs(p.Y()) > 1e-3 || p.Z() < 0.55 {
				continue
			}
			d := p.Sub(testEye).Normalize()
			r := mgl64.Vec3{d.X(), -d.Y(), d.Z()}
			if r.Z() >= 0 {
				continue
			}
			h := p.Add(r.Mul((0.5 - p.Z()) / r.Z()))
			if math.Abs(h.X()) > 0.4 || h.Y() < 0.1 || h.Y() > 0.9 {
				continue
			}
			hu, hv, _ := m.ProjectView(m.WorldToView.Mul4x1(h.Vec4(1)).Vec3())
			targets = append(targets, mirrorTarget{hx: hx, hy: hy, u: hu, v: hv})
		}
	}
	return targets
}

func newTestBuffer(t testing.TB, width, height int, format Format) *Buffer {
	t.Helper()
	b, err := NewBuffer(width, height, format)
	if err != nil {
		t.Fatalf("NewBuffer(%d, %d, %s): %v", width, height, format, err)
	}
	return b
}

func testFrameMatrices(t testing.TB, cam Camera) *FrameMatrices {
	t.Helper()
	m, err := NewFrameMatrices(cam)
	if err != nil {
		t.Fatalf("NewFrameMatrices: %v", err)
	}
	return m
}

func matApproxEqual(a, b mgl64.Mat4, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func vec4ApproxEqual(a, b mgl32.Vec4, eps float32) bool {
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > eps {
			return false
		}
	}
	return true
}

func isRed(c mgl32.Vec4) bool {
	return c[0] > c[1] && c[0] > c[2]
}
