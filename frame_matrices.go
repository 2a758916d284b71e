package sscr

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/sscr/internal/shader"
)

// ClipConvention is the clip-space depth range of the target API.
type ClipConvention int

const (
	// ClipZeroToOne maps depth to [0,1] (WebGPU, Vulkan, Direct3D, Metal).
	ClipZeroToOne ClipConvention = iota
	// ClipNegOneToOne maps depth to [-1,1] (OpenGL).
	ClipNegOneToOne
)

// singularEpsilon bounds |det| below which a matrix is treated as singular.
const singularEpsilon = 1e-12

// GPUProjection converts a GL-style projection matrix to the GPU convention:
// depth is remapped to the clip convention and, when flipY is set, the clip y
// axis is negated for render targets stored upside down.
func GPUProjection(projection mgl64.Mat4, conv ClipConvention, flipY bool) mgl64.Mat4 {
	remap := mgl64.Ident4()
	if conv == ClipZeroToOne {
		remap.Set(2, 2, 0.5)
		remap.Set(2, 3, 0.5)
	}
	if flipY {
		remap.Set(1, 1, -1)
	}
	return remap.Mul4(projection)
}

// FrameMatrices is the per-frame camera state every pass reads.
type FrameMatrices struct {
	WorldToView           mgl64.Mat4
	Projection            mgl64.Mat4 // GPU convention
	ViewProjection        mgl64.Mat4 // Projection * WorldToView
	InverseViewProjection mgl64.Mat4
	InverseProjection     mgl64.Mat4
	ViewToWorld           mgl64.Mat4
	CameraPosition        mgl64.Vec3
	Convention            ClipConvention

	nearZ float64 // view-space z of the near plane
}

// NewFrameMatrices derives the frame matrices from a camera. It returns
// ErrSingularMatrix when the view, projection or their product cannot be
// inverted.
func NewFrameMatrices(cam Camera) (*FrameMatrices, error) {
	proj := GPUProjection(cam.Projection, cam.Convention, cam.FlipY)
	vp := proj.Mul4(cam.View)
	for _, c := range []struct {
		name string
		m    mgl64.Mat4
	}{{"view", cam.View}, {"projection", proj}, {"view-projection", vp}} {
		if err := checkInvertible(c.m); err != nil {
			return nil, fmt.Errorf("%w: %s %v", ErrSingularMatrix, c.name, err)
		}
	}

	m := &FrameMatrices{
		WorldToView:           cam.View,
		Projection:            proj,
		ViewProjection:        vp,
		InverseViewProjection: vp.Inv(),
		InverseProjection:     proj.Inv(),
		ViewToWorld:           cam.View.Inv(),
		Convention:            cam.Convention,
	}
	m.CameraPosition = m.ViewToWorld.Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()
	m.nearZ = m.ViewPosition(0.5, 0.5, m.NearDepth()).Z()
	return m, nil
}

func checkInvertible(m mgl64.Mat4) error {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite element")
		}
	}
	if det := m.Det(); math.Abs(det) < singularEpsilon {
		return fmt.Errorf("det %g", det)
	}
	return nil
}

// NearDepth returns the clip depth of the near plane.
func (m *FrameMatrices) NearDepth() float64 {
	if m.Convention == ClipNegOneToOne {
		return -1
	}
	return 0
}

// Publish writes the matrices to the program parameter surface.
func (m *FrameMatrices) Publish(p *shader.Params) error {
	for _, e := range []struct {
		name string
		m    mgl64.Mat4
	}{
		{shader.ProjectionMatrix, m.Projection},
		{shader.InverseProjectionMatrix, m.InverseProjection},
		{shader.InverseViewProjectionMatrix, m.InverseViewProjection},
		{shader.WorldToCameraMatrix, m.WorldToView},
	} {
		if err := p.SetMatrix(e.name, e.m); err != nil {
			return err
		}
	}
	return nil
}

// ViewPosition reconstructs the view-space position of a screen point from
// its uv (top-left origin) and clip depth.
func (m *FrameMatrices) ViewPosition(u, v, depth float64) mgl64.Vec3 {
	p := m.InverseProjection.Mul4x1(mgl64.Vec4{2*u - 1, 1 - 2*v, depth, 1})
	return p.Vec3().Mul(1 / p.W())
}

// WorldPosition reconstructs the world-space position of a screen point.
func (m *FrameMatrices) WorldPosition(u, v, depth float64) mgl64.Vec3 {
	p := m.InverseViewProjection.Mul4x1(mgl64.Vec4{2*u - 1, 1 - 2*v, depth, 1})
	return p.Vec3().Mul(1 / p.W())
}

// ProjectView projects a view-space point to uv and returns 1/w for
// perspective-correct interpolation.
func (m *FrameMatrices) ProjectView(p mgl64.Vec3) (u, v, invW float64) {
	clip := m.Projection.Mul4x1(p.Vec4(1))
	invW = 1 / clip.W()
	return clip.X()*invW*0.5 + 0.5, 0.5 - clip.Y()*invW*0.5, invW
}
