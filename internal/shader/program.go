// Package shader holds the reflection GPU programs, the names of the
// parameters they read, and the packing of those parameters into the
// uniform block shared by all programs.
package shader

import (
	_ "embed"
	"fmt"
)

// Program identifies one of the reflection programs. The numeric values are
// the pass indices the host uses to select a program.
type Program int

const (
	// ProgramColor copies the lit scene color into the HDR main buffer.
	ProgramColor Program = 0
	// ProgramRayMarch marches reflected rays at half resolution.
	ProgramRayMarch Program = 1
	// ProgramResolve samples the filtered pyramid at ray hits.
	ProgramResolve Program = 2
	// ProgramMipBlur writes one cone-blurred pyramid level.
	ProgramMipBlur Program = 3
	// ProgramCombine produces the final (or debug) image.
	ProgramCombine Program = 4

	programCount = 5
)

//go:embed shaders/common.wgsl
var commonSource string

//go:embed shaders/color.wgsl
var colorSource string

//go:embed shaders/raymarch.wgsl
var rayMarchSource string

//go:embed shaders/resolve.wgsl
var resolveSource string

//go:embed shaders/mipblur.wgsl
var mipBlurSource string

//go:embed shaders/combine.wgsl
var combineSource string

var programSources = [programCount]*string{
	ProgramColor:    &colorSource,
	ProgramRayMarch: &rayMarchSource,
	ProgramResolve:  &resolveSource,
	ProgramMipBlur:  &mipBlurSource,
	ProgramCombine:  &combineSource,
}

var programNames = [programCount]string{
	ProgramColor:    "color",
	ProgramRayMarch: "raymarch",
	ProgramResolve:  "resolve",
	ProgramMipBlur:  "mipblur",
	ProgramCombine:  "combine",
}

// Programs returns all programs in pass index order.
func Programs() []Program {
	return []Program{ProgramColor, ProgramRayMarch, ProgramResolve, ProgramMipBlur, ProgramCombine}
}

// Valid reports whether p is a known program.
func (p Program) Valid() bool {
	return p >= 0 && p < programCount
}

func (p Program) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Program(%d)", int(p))
	}
	return programNames[p]
}

// Label returns the debug label used for GPU objects of this program.
func (p Program) Label() string {
	return "sscr_" + p.String()
}

// Source returns the complete WGSL source of the program: the shared
// declarations followed by the program's fragment stage.
func (p Program) Source() string {
	if !p.Valid() {
		return ""
	}
	return commonSource + "\n" + *programSources[p]
}
