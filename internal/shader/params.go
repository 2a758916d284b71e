package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Parameter names as the programs know them.
const (
	ProjectionMatrix            = "_ProjectionMatrix"
	InverseProjectionMatrix     = "_InverseProjectionMatrix"
	InverseViewProjectionMatrix = "_InverseViewProjectionMatrix"
	WorldToCameraMatrix         = "_WorldToCameraMatrix"
	SmoothnessRange             = "_SmoothnessRange"
	EdgeFactor                  = "_EdgeFactor"
	NumSteps                    = "_NumSteps"
	TemporalNoise               = "_TemporalNoise"
	DebugPass                   = "_DebugPass"
	MipMapExponent              = "_MipMapExponent"
	FrameIndex                  = "_FrameIndex"
	ScreenSize                  = "_ScreenSize"

	// Texture slots.
	MainTex          = "_MainTex"
	RayCast          = "_RayCast"
	ReflectionBuffer = "_ReflectionBuffer"
)

// ErrUnknownParam is returned when a parameter name is not part of the
// program interface or is set with the wrong kind of value.
var ErrUnknownParam = errors.New("shader: unknown parameter")

// UniformSize is the byte size of the uniform block. Layout (WGSL uniform
// address space, 16-byte aligned):
//
//	  0 projection           mat4x4<f32>
//	 64 inv_projection       mat4x4<f32>
//	128 inv_view_projection  mat4x4<f32>
//	192 world_to_camera      mat4x4<f32>
//	256 screen_size          vec2<f32>
//	264 smoothness_range     f32
//	268 edge_factor          f32
//	272 num_steps            i32
//	276 temporal_noise       i32
//	280 debug_pass           i32
//	284 mip_map_exponent     f32
//	288 frame_index          u32
//	292 max_level            f32
//	296 mip_map_span         f32
//	300 padding
const UniformSize = 304

// Params is the parameter surface shared by all programs. The host sets
// values by name before issuing passes; the programs read them from the
// packed uniform block.
type Params struct {
	matrices [4]mgl32.Mat4

	ScreenWidth, ScreenHeight float32
	SmoothnessRange           float32
	EdgeFactor                float32
	NumSteps                  int32
	TemporalNoise             bool
	DebugPass                 int32
	MipMapExponent            float32
	FrameIndex                uint32
	MaxLevel                  float32
	MipMapSpan                float32
}

var matrixSlots = map[string]int{
	ProjectionMatrix:            0,
	InverseProjectionMatrix:     1,
	InverseViewProjectionMatrix: 2,
	WorldToCameraMatrix:         3,
}

// SetMatrix stores a matrix parameter. Host math is double precision;
// the programs read single precision.
func (p *Params) SetMatrix(name string, m mgl64.Mat4) error {
	slot, ok := matrixSlots[name]
	if !ok {
		return fmt.Errorf("%w: matrix %q", ErrUnknownParam, name)
	}
	for i, v := range m {
		p.matrices[slot][i] = float32(v)
	}
	return nil
}

// Matrix returns a matrix parameter.
func (p *Params) Matrix(name string) (mgl32.Mat4, error) {
	slot, ok := matrixSlots[name]
	if !ok {
		return mgl32.Mat4{}, fmt.Errorf("%w: matrix %q", ErrUnknownParam, name)
	}
	return p.matrices[slot], nil
}

// SetFloat stores a float parameter.
func (p *Params) SetFloat(name string, v float32) error {
	switch name {
	case SmoothnessRange:
		p.SmoothnessRange = v
	case EdgeFactor:
		p.EdgeFactor = v
	case MipMapExponent:
		p.MipMapExponent = v
	default:
		return fmt.Errorf("%w: float %q", ErrUnknownParam, name)
	}
	return nil
}

// SetInt stores an integer parameter. _TemporalNoise treats non-zero as true.
func (p *Params) SetInt(name string, v int32) error {
	switch name {
	case NumSteps:
		p.NumSteps = v
	case TemporalNoise:
		p.TemporalNoise = v != 0
	case DebugPass:
		p.DebugPass = v
	case FrameIndex:
		p.FrameIndex = uint32(v)
	default:
		return fmt.Errorf("%w: int %q", ErrUnknownParam, name)
	}
	return nil
}

// UniformBlock packs the parameters into the little-endian uniform layout
// described by UniformSize.
func (p *Params) UniformBlock() []byte {
	buf := make([]byte, UniformSize)
	off := 0
	putF := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	putU := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[off:], v)
		off += 4
	}
	for _, m := range p.matrices {
		// mgl matrices are column-major, as WGSL expects.
		for _, v := range m {
			putF(v)
		}
	}
	putF(p.ScreenWidth)
	putF(p.ScreenHeight)
	putF(p.SmoothnessRange)
	putF(p.EdgeFactor)
	putU(uint32(p.NumSteps))
	noise := uint32(0)
	if p.TemporalNoise {
		noise = 1
	}
	putU(noise)
	putU(uint32(p.DebugPass))
	putF(p.MipMapExponent)
	putU(p.FrameIndex)
	putF(p.MaxLevel)
	putF(p.MipMapSpan)
	return buf
}
