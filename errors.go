package sscr

import "errors"

// Errors reported by the pipeline. Contract violations are returned from
// Render; the remaining errors make the pipeline skip the effect for one
// frame and are reported through FrameReport.Reason.
var (
	// ErrNilFrame is returned when the frame, its color or depth input, or
	// the destination is missing.
	ErrNilFrame = errors.New("sscr: nil frame input")

	// ErrSizeMismatch is returned when inputs and destination disagree on size
	// or the destination is not a four channel buffer.
	ErrSizeMismatch = errors.New("sscr: input size mismatch")

	// ErrSingularMatrix is reported when the camera matrices cannot be inverted.
	ErrSingularMatrix = errors.New("sscr: singular camera matrix")

	// ErrBufferUnavailable is reported when a transient buffer cannot be
	// allocated within the pool budget.
	ErrBufferUnavailable = errors.New("sscr: buffer unavailable")

	// ErrMipCountMismatch is reported when a pyramid buffer has fewer levels
	// than the cone mapping requires.
	ErrMipCountMismatch = errors.New("sscr: pyramid mip count mismatch")

	// ErrPyramidIncomplete is reported when the resolve step would sample a
	// pyramid level not written in the current frame.
	ErrPyramidIncomplete = errors.New("sscr: pyramid incomplete")

	// ErrClosed is returned by Render after Close.
	ErrClosed = errors.New("sscr: pipeline closed")
)
