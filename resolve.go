package sscr

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/sscr/internal/image"
)

// resolver turns ray hits into confidence-weighted reflection color.
type resolver struct {
	mapping         ConeMapping
	smoothnessRange float64
}

// run writes the full resolution reflection into dst: the filtered pyramid
// sampled at the hit uv, at the level matching the surface smoothness, with
// RGB scaled by confidence and confidence in alpha. Misses resolve to zero.
func (r resolver) run(fs *frameState, dst, hits *Buffer, filtered *image.Texture, surf *surface) error {
	if level, ok := filtered.AllWritten(fs.gen); !ok {
		return fmt.Errorf("%w: level %d", ErrPyramidIncomplete, level)
	}
	fs.emit(PassResolve, EventSample, TargetHits, 0)
	for i := range filtered.NumLevels() {
		fs.emit(PassResolve, EventSample, TargetFiltered, i)
	}

	fs.rows(surf.height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < surf.width; x++ {
				dst.Set(x, y, r.pixel(x, y, hits, filtered, surf))
			}
		}
	})
	fs.emit(PassResolve, EventWrite, TargetResolve, 0)
	return nil
}

func (r resolver) pixel(x, y int, hits *Buffer, filtered *image.Texture, surf *surface) mgl32.Vec4 {
	u, v := surf.uv(x, y)
	hit := image.SampleNearest(hits, float32(u), float32(v))
	if hit[3] < 0.5 {
		return mgl32.Vec4{}
	}
	level := r.mapping.LevelForSmoothness(surf.smoothness(x, y), r.smoothnessRange)
	c := image.SampleTrilinear(filtered, hit[0], hit[1], float32(level))
	conf := hit[2]
	return mgl32.Vec4{c[0] * conf, c[1] * conf, c[2] * conf, conf}
}
