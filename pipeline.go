package sscr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/sscr/internal/filter"
	"github.com/gogpu/sscr/internal/gpu"
	"github.com/gogpu/sscr/internal/parallel"
	"github.com/gogpu/sscr/internal/shader"
)

// FrameReport describes how a frame was processed.
type FrameReport struct {
	Index uint32

	// Skipped is set when the effect was not applied and the scene color was
	// copied to the destination unchanged. Reason holds the cause.
	Skipped bool
	Reason  error

	// Parameters are the clamped parameters the frame used.
	Parameters Parameters

	RayMarch RayMarchStats

	// PyramidLevels is the number of filtered pyramid levels written.
	PyramidLevels int

	Duration time.Duration
}

// Pipeline renders screen space cone reflections. It owns the worker pool,
// the pyramid and transient buffers, the parameter block and the optional
// GPU mirror.
//
// Render calls are serialised; a Pipeline is safe for concurrent use but
// processes one frame at a time.
type Pipeline struct {
	mu sync.Mutex

	opts    pipelineOptions
	mapping ConeMapping
	workers *parallel.WorkerPool
	buffers *bufferPool
	mirror  *gpu.Mirror
	params  shader.Params
	closed  bool
}

// NewPipeline creates a pipeline. A GPU mirror is attached when a HAL device
// or a HAL-capable device provider is given; if it cannot be created the
// pipeline logs a warning and runs on the host alone.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	mapping := DefaultConeMapping()
	p := &Pipeline{
		opts:    o,
		mapping: mapping,
		workers: parallel.NewWorkerPool(o.workers),
		buffers: newBufferPool(o.poolBudget, mapping),
	}

	var (
		mirror *gpu.Mirror
		err    error
	)
	switch {
	case o.halDevice != nil:
		mirror, err = gpu.NewMirror(o.halDevice, o.halQueue, o.spirv)
	case o.provider != nil:
		info := o.provider.AdapterInfo()
		Logger().Info("sscr: device provider", "adapter", info.Name, "type", info.Type)
		mirror, err = gpu.FromProvider(o.provider, o.spirv)
	}
	if err != nil {
		Logger().Warn("sscr: gpu mirror unavailable, host only", "err", err)
	}
	p.mirror = mirror
	return p
}

// GPUEnabled reports whether a GPU mirror is attached.
func (p *Pipeline) GPUEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mirror != nil
}

// Render applies the effect to frame and writes the result to dst, which
// must be a four channel buffer of the frame's size.
//
// The returned error is non-nil only when the inputs violate that contract
// (ErrNilFrame, ErrSizeMismatch) or the pipeline is closed. Every other
// failure skips the effect for this frame: dst receives the unmodified scene
// color and the report carries the reason. ctx is checked once, before any
// pass runs.
func (p *Pipeline) Render(ctx context.Context, frame *Frame, params Parameters, dst *Buffer) (FrameReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return FrameReport{}, ErrClosed
	}
	if err := frame.validate(dst); err != nil {
		return FrameReport{}, err
	}

	start := time.Now()
	report := FrameReport{Index: frame.Index, Parameters: params.Clamped()}

	err := ctx.Err()
	if err == nil {
		err = p.render(frame, report.Parameters, dst, &report)
	}
	if err != nil {
		p.passthrough(frame, dst)
		report.Skipped = true
		report.Reason = err
		report.RayMarch = RayMarchStats{}
		report.PyramidLevels = 0
		Logger().Warn("sscr: frame skipped", "frame", frame.Index, "err", err)
	}
	report.Duration = time.Since(start)
	return report, nil
}

// render runs the passes in order.
func (p *Pipeline) render(frame *Frame, params Parameters, dst *Buffer, report *FrameReport) error {
	m, err := NewFrameMatrices(frame.Camera)
	if err != nil {
		return err
	}

	w, h := frame.Color.Bounds()
	fs := &frameState{
		index:  frame.Index,
		gen:    p.buffers.beginFrame(),
		rows:   p.workers.Rows,
		tracer: p.opts.tracer,
		params: &p.params,
		mirror: p.mirror,
	}
	if err := p.publish(m, params, frame, w, h); err != nil {
		return err
	}

	raw, filtered, err := p.buffers.pyramid()
	if err != nil {
		return err
	}
	hw, hh := HalfResolution(w, h)
	if p.mirror != nil {
		if err := p.mirror.EnsurePyramid(uint32(PyramidSize), uint32(p.mapping.Levels)); err != nil {
			return fmt.Errorf("%w: gpu pyramid: %w", ErrBufferUnavailable, err)
		}
		if err := p.mirror.EnsureTargets(uint32(w), uint32(h), uint32(hw), uint32(hh)); err != nil {
			return fmt.Errorf("%w: gpu targets: %w", ErrBufferUnavailable, err)
		}
		defer fs.endFrame()
	}

	scope := p.buffers.scope()
	defer scope.Close()

	surf := newSurface(m, frame)

	// Color pass: copy the lit scene into the HDR main buffer.
	main, err := scope.acquire(TargetMain, w, h, FormatRGBAFloat)
	if err != nil {
		return err
	}
	if err := fs.dispatch(PassColor, 0); err != nil {
		return err
	}
	copyPixels(fs.rows, main, frame.Color)
	fs.emit(PassColor, EventWrite, TargetMain, 0)

	// Ray march at half resolution.
	hits, err := scope.acquire(TargetHits, hw, hh, FormatRGBAHalf)
	if err != nil {
		return err
	}
	if err := fs.dispatch(PassRayMarch, 0); err != nil {
		return err
	}
	t0 := time.Now()
	report.RayMarch = newRayMarcher(surf, params, frame.Index).run(hits, fs.rows)
	fs.emit(PassRayMarch, EventWrite, TargetHits, 0)
	Logger().Debug("sscr: ray march", "frame", frame.Index, "rays", report.RayMarch.Rays,
		"hits", report.RayMarch.Hits, "max_iterations", report.RayMarch.MaxIterations, "elapsed", time.Since(t0))

	// Pyramid.
	t0 = time.Now()
	if err := (pyramidBuilder{mapping: p.mapping}).build(fs, main, raw, filtered); err != nil {
		return err
	}
	report.PyramidLevels = p.mapping.Levels
	Logger().Debug("sscr: pyramid", "frame", frame.Index, "levels", p.mapping.Levels, "elapsed", time.Since(t0))

	// Resolve.
	resolved, err := scope.acquire(TargetResolve, w, h, FormatRGBAHalf)
	if err != nil {
		return err
	}
	if err := fs.dispatch(PassResolve, 0); err != nil {
		return err
	}
	res := resolver{mapping: p.mapping, smoothnessRange: params.SmoothnessRange}
	if err := res.run(fs, resolved, hits, filtered, surf); err != nil {
		return err
	}
	scope.release(hits)

	// Combine.
	if err := fs.dispatch(PassCombine, 0); err != nil {
		return err
	}
	comb := combiner{mode: params.DebugMode, smoothnessRange: params.SmoothnessRange, env: frame.Environment}
	comb.run(fs, dst, main, resolved, surf)
	return nil
}

// publish fills the parameter surface for the frame.
func (p *Pipeline) publish(m *FrameMatrices, params Parameters, frame *Frame, w, h int) error {
	sp := &p.params
	if err := m.Publish(sp); err != nil {
		return err
	}
	sp.ScreenWidth, sp.ScreenHeight = float32(w), float32(h)
	sp.MaxLevel = float32(p.mapping.MaxLevel())
	sp.MipMapSpan = float32(p.mapping.Span)

	noise := int32(0)
	if params.TemporalNoise {
		noise = 1
	}
	return errors.Join(
		sp.SetFloat(shader.SmoothnessRange, float32(params.SmoothnessRange)),
		sp.SetFloat(shader.EdgeFactor, float32(params.ScreenFadeSize)),
		sp.SetFloat(shader.MipMapExponent, float32(p.mapping.Exponent(0))),
		sp.SetInt(shader.NumSteps, int32(params.RayStepBudget)),
		sp.SetInt(shader.TemporalNoise, noise),
		sp.SetInt(shader.DebugPass, params.DebugMode.ShaderPass()),
		sp.SetInt(shader.FrameIndex, int32(frame.Index)),
	)
}

// passthrough copies the scene color to dst unchanged.
func (p *Pipeline) passthrough(frame *Frame, dst *Buffer) {
	copyPixels(p.workers.Rows, dst, frame.Color)
}

func copyPixels(rows filter.RowRunner, dst, src *Buffer) {
	rows(dst.Height(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < dst.Width(); x++ {
				dst.Set(x, y, src.At(x, y))
			}
		}
	})
}

// Close releases the worker pool and the GPU mirror. Render returns
// ErrClosed afterwards. Close is safe to call multiple times.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.workers.Close()
	if p.mirror != nil {
		p.mirror.Destroy()
	}
}

// frameState is the per-frame context shared by the passes.
type frameState struct {
	index  uint32
	gen    uint64
	rows   filter.RowRunner
	tracer Tracer
	params *shader.Params
	mirror *gpu.Mirror
}

func (fs *frameState) emit(pass Pass, kind EventKind, target string, level int) {
	if fs.tracer == nil {
		return
	}
	fs.tracer(PassEvent{Frame: fs.index, Pass: pass, Kind: kind, Target: target, Level: level})
}

// dispatch uploads the current parameter block and submits the pass to the
// GPU mirror. Level selects the pyramid level of a mip blur.
func (fs *frameState) dispatch(pass Pass, level int) error {
	if fs.mirror == nil {
		return nil
	}
	if err := fs.mirror.Upload(fs.params.UniformBlock()); err != nil {
		return fmt.Errorf("%s: %w", pass, err)
	}
	return fs.draw(passStage(pass), level)
}

// draw submits one stage to the GPU mirror without a parameter upload.
func (fs *frameState) draw(stage gpu.Stage, level int) error {
	if fs.mirror == nil {
		return nil
	}
	if err := fs.mirror.Draw(stage, level); err != nil {
		return fmt.Errorf("gpu %s: %w", stage, err)
	}
	return nil
}

func (fs *frameState) endFrame() {
	if err := fs.mirror.EndFrame(); err != nil {
		Logger().Warn("sscr: gpu frame did not complete", "frame", fs.index, "err", err)
	}
}

func passStage(pass Pass) gpu.Stage {
	switch pass {
	case PassRayMarch:
		return gpu.StageRayMarch
	case PassMipBlur:
		return gpu.StageMipBlur
	case PassResolve:
		return gpu.StageResolve
	case PassCombine:
		return gpu.StageCombine
	default:
		return gpu.StageColor
	}
}
