package sscr

import (
	"github.com/go-gl/mathgl/mgl32"
)

// components are the inputs of the final composite for one pixel.
type components struct {
	scene       mgl32.Vec4
	reflection  mgl32.Vec4 // confidence-weighted, alpha = confidence
	environment mgl32.Vec4
	weight      float32 // smoothness * smoothnessRange, 0 for background
}

// composite combines the components according to the debug mode. Alpha is
// always the scene alpha.
func composite(mode DebugMode, c components) mgl32.Vec4 {
	refl := c.reflection.Vec3()
	env := c.environment.Vec3().Mul(1 - c.reflection[3])
	var rgb mgl32.Vec3
	switch mode {
	case DebugCombineNoEnvironment:
		rgb = c.scene.Vec3().Add(refl.Mul(c.weight))
	case DebugReflectionAndEnvironment:
		rgb = refl.Add(env)
	case DebugReflectionOnly:
		rgb = refl
	case DebugEnvironmentOnly:
		rgb = c.environment.Vec3()
	default:
		rgb = c.scene.Vec3().Add(refl.Add(env).Mul(c.weight))
	}
	return rgb.Vec4(c.scene[3])
}

// combiner writes the final image.
type combiner struct {
	mode            DebugMode
	smoothnessRange float64
	env             Environment
}

func (c combiner) run(fs *frameState, dst, main, resolved *Buffer, surf *surface) {
	fs.emit(PassCombine, EventSample, TargetMain, 0)
	fs.emit(PassCombine, EventSample, TargetResolve, 0)
	fs.rows(surf.height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < surf.width; x++ {
				dst.Set(x, y, composite(c.mode, c.components(x, y, main, resolved, surf)))
			}
		}
	})
	fs.emit(PassCombine, EventWrite, TargetOutput, 0)
}

func (c combiner) components(x, y int, main, resolved *Buffer, surf *surface) components {
	out := components{
		scene:      main.At(x, y),
		reflection: resolved.At(x, y),
	}
	if surf.background(x, y) {
		out.reflection = mgl32.Vec4{}
		return out
	}
	out.weight = float32(surf.smoothness(x, y) * c.smoothnessRange)
	if c.env != nil {
		u, v := surf.uv(x, y)
		pos := surf.m.WorldPosition(u, v, surf.depth(x, y))
		viewDir := pos.Sub(surf.m.CameraPosition).Normalize()
		out.environment = c.env.Sample(reflect(viewDir, surf.worldNormal(x, y)))
	}
	return out
}
