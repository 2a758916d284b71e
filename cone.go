package sscr

import "math/bits"

// PyramidSize is the edge length of the square reflection pyramid.
const PyramidSize = 1024

// MipMapSpan is the number of pyramid levels over which the cone exponent
// grows by one.
const MipMapSpan = 32

// pyramidMipCount is the number of pyramid levels, derived from PyramidSize.
var pyramidMipCount = bits.Len(PyramidSize)

const minConeExponent = 0.01

// ConeMapping relates pyramid levels to cone exponents and surface
// smoothness. The blur applied to a level and the level a surface samples
// are both derived from it, so the two always agree.
type ConeMapping struct {
	Levels int
	Span   int
}

// DefaultConeMapping returns the mapping for the default pyramid.
func DefaultConeMapping() ConeMapping {
	return ConeMapping{Levels: pyramidMipCount, Span: MipMapSpan}
}

// MaxLevel returns the index of the coarsest level.
func (c ConeMapping) MaxLevel() int {
	return c.Levels - 1
}

// Exponent returns the cone exponent of level i:
// max(0.01, i/span + 0.01). It is strictly increasing in i.
func (c ConeMapping) Exponent(level int) float64 {
	return max(minConeExponent, float64(level)/float64(c.Span)+minConeExponent)
}

// LevelForSmoothness returns the fractional pyramid level sampled by a
// surface. Roughness 1 - smoothness*smoothnessRange is mapped onto the
// exponent curve, and the level is that curve's inverse, so a mirror samples
// level 0 and a fully rough surface the coarsest level.
func (c ConeMapping) LevelForSmoothness(smoothness, smoothnessRange float64) float64 {
	roughness := 1 - clamp01(smoothness*smoothnessRange)
	exponent := minConeExponent + roughness*float64(c.MaxLevel())/float64(c.Span)
	level := (exponent - minConeExponent) * float64(c.Span)
	return min(max(level, 0), float64(c.MaxLevel()))
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
