package sscr

import "github.com/gogpu/sscr/internal/shader"

// Pass identifies a program by its index in the program library.
type Pass int

// Passes, in program index order.
const (
	PassColor    = Pass(shader.ProgramColor)
	PassRayMarch = Pass(shader.ProgramRayMarch)
	PassResolve  = Pass(shader.ProgramResolve)
	PassMipBlur  = Pass(shader.ProgramMipBlur)
	PassCombine  = Pass(shader.ProgramCombine)
)

func (p Pass) String() string {
	return shader.Program(p).String()
}

// EventKind tells whether a pass wrote or sampled a buffer.
type EventKind int

const (
	EventWrite EventKind = iota
	EventSample
)

func (k EventKind) String() string {
	if k == EventSample {
		return "sample"
	}
	return "write"
}

// Buffer names used in pass events.
const (
	TargetMain     = "main"
	TargetHits     = "hits"
	TargetRaw      = "pyramid_raw"
	TargetFiltered = "pyramid_filtered"
	TargetResolve  = "resolve"
	TargetOutput   = "output"
)

// PassEvent records one buffer access of a pass. Level is the mip level for
// pyramid buffers and 0 otherwise.
type PassEvent struct {
	Frame  uint32
	Pass   Pass
	Kind   EventKind
	Target string
	Level  int
}

// Tracer receives pass events in execution order. It is called on the
// goroutine running Render.
type Tracer func(PassEvent)
