package sscr

import (
	"fmt"

	"github.com/gogpu/sscr/internal/filter"
	"github.com/gogpu/sscr/internal/gpu"
	"github.com/gogpu/sscr/internal/image"
	"github.com/gogpu/sscr/internal/shader"
)

// pyramidBuilder fills the raw and filtered pyramids from the lit scene.
type pyramidBuilder struct {
	mapping ConeMapping
}

// build resamples color into raw level 0, generates the raw mip chain and
// then cone blurs every filtered level in increasing order: level 0 from raw
// level 0, level i from filtered level i-1. Each level is stamped with the
// frame generation as it is written.
func (b pyramidBuilder) build(fs *frameState, color *Buffer, raw, filtered *image.Texture) error {
	need := b.mapping.Levels
	if raw.NumLevels() < need || filtered.NumLevels() < need {
		return fmt.Errorf("%w: raw %d, filtered %d levels, need %d",
			ErrMipCountMismatch, raw.NumLevels(), filtered.NumLevels(), need)
	}

	fs.emit(PassColor, EventSample, TargetMain, 0)
	base := raw.Level(0)
	fs.rows(base.Height(), func(y0, y1 int) {
		image.Resample(base, color, y0, y1)
	})
	raw.MarkWritten(0, fs.gen)
	fs.emit(PassColor, EventWrite, TargetRaw, 0)
	if err := fs.draw(gpu.StageRaw, 0); err != nil {
		return err
	}

	for i := 1; i < need; i++ {
		dst, src := raw.Level(i), raw.Level(i-1)
		fs.rows(dst.Height(), func(y0, y1 int) {
			image.Downsample(dst, src, y0, y1)
		})
		raw.MarkWritten(i, fs.gen)
		fs.emit(PassColor, EventWrite, TargetRaw, i)
		if err := fs.draw(gpu.StageRaw, i); err != nil {
			return err
		}
	}

	for i := range need {
		exponent := b.mapping.Exponent(i)
		if err := fs.params.SetFloat(shader.MipMapExponent, float32(exponent)); err != nil {
			return err
		}
		if err := fs.dispatch(PassMipBlur, i); err != nil {
			return err
		}

		src, target := raw.Level(0), TargetRaw
		srcLevel := 0
		if i > 0 {
			src, target, srcLevel = filtered.Level(i-1), TargetFiltered, i-1
		}
		fs.emit(PassMipBlur, EventSample, target, srcLevel)

		blur := filter.NewConeBlur(exponent, b.mapping.Span, fs.rows)
		blur.Apply(filtered.Level(i), src)
		filtered.MarkWritten(i, fs.gen)
		fs.emit(PassMipBlur, EventWrite, TargetFiltered, i)
	}
	return nil
}
