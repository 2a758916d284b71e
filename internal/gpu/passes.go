package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sscr/internal/shader"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoTargets is returned by Draw before EnsureTargets and EnsurePyramid
// have allocated the textures a stage reads and writes.
var ErrNoTargets = errors.New("gpu: frame targets not allocated")

// Stage is one full-screen draw of a frame.
type Stage int

const (
	// StageColor copies the scene input into the main target.
	StageColor Stage = iota
	// StageRaw fills one raw pyramid level from main (level 0) or from the
	// level above it.
	StageRaw
	// StageRayMarch writes the half resolution hit target.
	StageRayMarch
	// StageMipBlur cone blurs one filtered pyramid level.
	StageMipBlur
	// StageResolve samples the filtered pyramid at the hit coordinates.
	StageResolve
	// StageCombine blends the resolved reflection over main.
	StageCombine
)

var stageNames = [...]string{"color", "raw", "raymarch", "mipblur", "resolve", "combine"}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Program returns the program a stage draws with. Raw levels reuse the color
// copy, the sampler does the 2x2 reduction.
func (s Stage) Program() shader.Program {
	switch s {
	case StageRayMarch:
		return shader.ProgramRayMarch
	case StageMipBlur:
		return shader.ProgramMipBlur
	case StageResolve:
		return shader.ProgramResolve
	case StageCombine:
		return shader.ProgramCombine
	default:
		return shader.ProgramColor
	}
}

// frameTarget is a single-level render target sized to the screen.
type frameTarget struct {
	tex  hal.Texture
	view hal.TextureView
}

// Frame target slots.
const (
	targetScene = iota
	targetMain
	targetDepth
	targetNormals
	targetHits
	targetResolved
	targetOutput
	targetPlaceholder
	numTargets
)

var targetNames = [numTargets]string{
	"sscr_scene", "sscr_main", "sscr_depth", "sscr_normals",
	"sscr_hits", "sscr_resolved", "sscr_output", "sscr_placeholder",
}

const targetUsage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst

// EnsureTargets (re)creates the screen sized targets if the screen size
// changed. Hits live at hitWidth x hitHeight; a 1x1 placeholder fills the
// bindings a stage does not read.
func (m *Mirror) EnsureTargets(width, height, hitWidth, hitHeight uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uniformBuf == nil {
		return errDestroyed
	}
	if m.targetWidth == width && m.targetHeight == height && m.targets[targetMain].tex != nil {
		return nil
	}
	m.destroyTargets()

	for i, name := range targetNames {
		w, h := width, height
		switch i {
		case targetHits:
			w, h = hitWidth, hitHeight
		case targetPlaceholder:
			w, h = 1, 1
		}
		tex, err := m.device.CreateTexture(&hal.TextureDescriptor{
			Label:         name,
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        pyramidFormat,
			Usage:         targetUsage,
		})
		if err != nil {
			m.destroyTargets()
			return fmt.Errorf("create %s texture: %w", name, err)
		}
		view, err := m.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         name + "_view",
			Format:        pyramidFormat,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			m.device.DestroyTexture(tex)
			m.destroyTargets()
			return fmt.Errorf("create %s view: %w", name, err)
		}
		m.targets[i] = frameTarget{tex: tex, view: view}
	}
	m.targetWidth, m.targetHeight = width, height
	slogger().Debug("sscr: gpu targets allocated", "width", width, "height", height,
		"hit_width", hitWidth, "hit_height", hitHeight)
	return nil
}

// stageBinding is the render target and the group(1) texture views of one
// draw, indexed by binding number. The sampler slot (1) is unused.
type stageBinding struct {
	target hal.TextureView
	views  [6]hal.TextureView
}

func (m *Mirror) bindingFor(stage Stage, level int) (stageBinding, error) {
	if m.targets[targetMain].tex == nil || m.pyramid[0].tex == nil {
		return stageBinding{}, ErrNoTargets
	}
	t := func(i int) hal.TextureView { return m.targets[i].view }
	b := stageBinding{}
	for i := range b.views {
		b.views[i] = t(targetPlaceholder)
	}

	levels := len(m.pyramid[0].views)
	if (stage == StageRaw || stage == StageMipBlur) && (level < 0 || level >= levels) {
		return stageBinding{}, fmt.Errorf("gpu: %s level %d out of range [0, %d)", stage, level, levels)
	}
	raw, filtered := m.pyramid[0].views, m.pyramid[1].views

	switch stage {
	case StageColor:
		b.target, b.views[0] = t(targetMain), t(targetScene)
	case StageRaw:
		b.target, b.views[0] = raw[level], t(targetMain)
		if level > 0 {
			b.views[0] = raw[level-1]
		}
	case StageRayMarch:
		b.target = t(targetHits)
		b.views[4], b.views[5] = t(targetDepth), t(targetNormals)
	case StageMipBlur:
		b.target, b.views[0] = filtered[level], raw[0]
		if level > 0 {
			b.views[0] = filtered[level-1]
		}
	case StageResolve:
		b.target = t(targetResolved)
		b.views[0], b.views[2], b.views[5] = m.pyramid[1].all, t(targetHits), t(targetNormals)
	case StageCombine:
		b.target = t(targetOutput)
		b.views[0], b.views[3] = t(targetMain), t(targetResolved)
		b.views[4], b.views[5] = t(targetDepth), t(targetNormals)
	default:
		return stageBinding{}, fmt.Errorf("gpu: unknown stage %d", int(stage))
	}
	return b, nil
}

// Draw encodes and submits one full-screen render pass of stage. Level
// selects the pyramid level for StageRaw and StageMipBlur and is ignored
// otherwise. Command buffers and bind groups stay alive until EndFrame.
func (m *Mirror) Draw(stage Stage, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uniformGroup == nil {
		return errDestroyed
	}
	b, err := m.bindingFor(stage, level)
	if err != nil {
		return err
	}
	label := fmt.Sprintf("sscr_%s_%d", stage, level)

	entries := make([]gputypes.BindGroupEntry, 0, len(b.views))
	for i, v := range b.views {
		if i == 1 {
			entries = append(entries, gputypes.BindGroupEntry{
				Binding: 1, Resource: gputypes.SamplerBinding{Sampler: m.sampler.NativeHandle()},
			})
			continue
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: uint32(i), Resource: gputypes.TextureViewBinding{TextureView: v.NativeHandle()},
		})
	}
	group, err := m.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label + "_group",
		Layout:  m.textureLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create %s bind group: %w", stage, err)
	}
	m.frameGroups = append(m.frameGroups, group)

	encoder, err := m.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create %s command encoder: %w", stage, err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin %s encoding: %w", stage, err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:    b.target,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpStore,
			},
		},
	})
	rp.SetPipeline(m.pipelines[stage.Program()])
	rp.SetBindGroup(0, m.uniformGroup, nil)
	rp.SetBindGroup(1, group, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end %s encoding: %w", stage, err)
	}
	if _, err := m.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		m.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("submit %s: %w", stage, err)
	}
	m.frameCmds = append(m.frameCmds, cmd)
	m.draws++
	return nil
}

// EndFrame waits for the submitted draws and releases their command buffers
// and bind groups.
func (m *Mirror) EndFrame() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frameCmds) == 0 && len(m.frameGroups) == 0 {
		return nil
	}
	err := m.device.WaitIdle()
	m.releaseFrame()
	if err != nil {
		return fmt.Errorf("gpu: wait idle: %w", err)
	}
	return nil
}

// Draws returns how many render passes were submitted.
func (m *Mirror) Draws() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draws
}

func (m *Mirror) releaseFrame() {
	for _, cmd := range m.frameCmds {
		m.device.FreeCommandBuffer(cmd)
	}
	for _, g := range m.frameGroups {
		m.device.DestroyBindGroup(g)
	}
	m.frameCmds, m.frameGroups = m.frameCmds[:0], m.frameGroups[:0]
}

func (m *Mirror) destroyTargets() {
	for i, t := range m.targets {
		if t.view != nil {
			m.device.DestroyTextureView(t.view)
		}
		if t.tex != nil {
			m.device.DestroyTexture(t.tex)
		}
		m.targets[i] = frameTarget{}
	}
	m.targetWidth, m.targetHeight = 0, 0
}
