// Package image provides the floating point image buffers, mip textures and
// samplers used by the reflection passes.
package image

import "github.com/x448/float16"

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatRFloat is a single 32-bit float channel. Used for depth and
	// smoothness.
	FormatRFloat Format = iota

	// FormatRGBFloat is three 32-bit float channels. Used for normals.
	FormatRGBFloat

	// FormatRGBAHalf is four 16-bit float channels (ARGBHalf).
	// Values are stored as float32 but quantized to half precision on write.
	FormatRGBAHalf

	// FormatRGBAFloat is four 32-bit float channels. This is the HDR
	// format of the main color buffer.
	FormatRGBAFloat

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// Channels is the number of stored channels.
	Channels int

	// BitsPerChannel is the precision of one channel as the GPU stores it.
	BitsPerChannel int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool

	// Half indicates values are quantized to IEEE 754 binary16.
	Half bool
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatRFloat: {
		Channels:       1,
		BitsPerChannel: 32,
	},
	FormatRGBFloat: {
		Channels:       3,
		BitsPerChannel: 32,
	},
	FormatRGBAHalf: {
		Channels:       4,
		BitsPerChannel: 16,
		HasAlpha:       true,
		Half:           true,
	},
	FormatRGBAFloat: {
		Channels:       4,
		BitsPerChannel: 32,
		HasAlpha:       true,
	},
}

var formatNames = [formatCount]string{
	FormatRFloat:    "RFloat",
	FormatRGBFloat:  "RGBFloat",
	FormatRGBAHalf:  "RGBAHalf",
	FormatRGBAFloat: "RGBAFloat",
}

// Info returns the FormatInfo for this format.
// Returns a zero FormatInfo for invalid formats.
func (f Format) Info() FormatInfo {
	if !f.IsValid() {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// IsValid reports whether f is a known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// Channels returns the number of stored channels.
func (f Format) Channels() int {
	return f.Info().Channels
}

// BytesPerPixel returns the size of one pixel in GPU memory.
func (f Format) BytesPerPixel() int {
	info := f.Info()
	return info.Channels * info.BitsPerChannel / 8
}

// String returns a human-readable name for the format.
func (f Format) String() string {
	if !f.IsValid() {
		return "Unknown"
	}
	return formatNames[f]
}

// quantize rounds v to the precision the format stores.
func (f Format) quantize(v float32) float32 {
	if f.Info().Half {
		return float16.Fromfloat32(v).Float32()
	}
	return v
}
