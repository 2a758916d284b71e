package sscr

import (
	"context"
	"fmt"
	"testing"

	"github.com/gogpu/sscr/internal/filter"
)

// BenchmarkRayMarch benchmarks the half resolution ray march across step
// budgets.
func BenchmarkRayMarch(b *testing.B) {
	frame := mirrorFloorFrame(b, 256, 256)
	m := testFrameMatrices(b, frame.Camera)
	surf := newSurface(m, frame)
	hw, hh := HalfResolution(256, 256)
	hits := newTestBuffer(b, hw, hh, FormatRGBAHalf)

	for _, budget := range []int{10, 50, 100} {
		params := DefaultParameters()
		params.RayStepBudget = budget
		b.Run(fmt.Sprintf("budget=%d", budget), func(b *testing.B) {
			rm := newRayMarcher(surf, params, 0)
			b.ReportAllocs()
			for b.Loop() {
				rm.run(hits, filter.Sequential)
			}
		})
	}
}

// BenchmarkRender benchmarks a full frame including the 1024 pyramid.
func BenchmarkRender(b *testing.B) {
	frame := mirrorFloorFrame(b, 320, 240)
	dst := newTestBuffer(b, 320, 240, FormatRGBAFloat)
	p := NewPipeline()
	defer p.Close()

	ctx := context.Background()
	params := DefaultParameters()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := p.Render(ctx, frame, params, dst); err != nil {
			b.Fatal(err)
		}
	}
}
