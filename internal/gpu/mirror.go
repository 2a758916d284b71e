// Package gpu keeps the reflection programs and their resources resident on a
// wgpu HAL device: shader modules, render pipelines, the shared sampler, the
// parameter uniform buffer and the two pyramid textures with one view per mip
// level.
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sscr/internal/shader"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoHALProvider is returned when a device provider does not expose HAL
// device and queue handles.
var ErrNoHALProvider = errors.New("gpu: provider does not expose HAL types")

var errDestroyed = errors.New("gpu: mirror destroyed")

// pyramidFormat is the GPU format of both pyramid textures (ARGBHalf).
const pyramidFormat = gputypes.TextureFormatRGBA16Float

// pyramidTexture is one pyramid texture with a render view per mip level and
// a sampling view over the whole chain.
type pyramidTexture struct {
	tex   hal.Texture
	views []hal.TextureView
	all   hal.TextureView
}

// Mirror owns the device-side copies of the reflection programs and buffers.
// Pixel results are produced on the host; the mirror keeps the device
// resources sized, the parameter block current and submits one render pass
// per stage so the device executes the same programs.
//
// Thread safety: Mirror is safe for concurrent use.
type Mirror struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	modules        [5]hal.ShaderModule
	pipelines      [5]hal.RenderPipeline
	uniformLayout  hal.BindGroupLayout
	textureLayout  hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	sampler        hal.Sampler
	uniformBuf     hal.Buffer
	uniformGroup   hal.BindGroup

	pyramidSize uint32
	pyramid     [2]pyramidTexture // raw, filtered

	targetWidth, targetHeight uint32
	targets                   [numTargets]frameTarget

	frameCmds   []hal.CommandBuffer
	frameGroups []hal.BindGroup

	uploads int
	draws   int
}

// NewMirror creates all programs on device. When spirv is true the programs
// are compiled with naga and handed to the device as SPIR-V; otherwise the
// device receives WGSL.
func NewMirror(device hal.Device, queue hal.Queue, spirv bool) (*Mirror, error) {
	if device == nil || queue == nil {
		return nil, errors.New("gpu: nil device or queue")
	}
	m := &Mirror{device: device, queue: queue}
	if err := m.createPrograms(spirv); err != nil {
		m.Destroy()
		return nil, err
	}
	if err := m.createUniforms(); err != nil {
		m.Destroy()
		return nil, err
	}
	slogger().Info("sscr: gpu programs resident", "programs", len(m.pipelines), "spirv", spirv)
	return m, nil
}

// FromProvider creates a mirror on the device of a provider implementing
// HalDevice() any and HalQueue() any (for example a gpucontext.DeviceProvider
// backed by wgpu).
func FromProvider(provider any, spirv bool) (*Mirror, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}
	return NewMirror(device, queue, spirv)
}

func (m *Mirror) createPrograms(spirv bool) error { //nolint:funlen // GPU pipeline descriptors are inherently verbose
	for _, p := range shader.Programs() {
		src := hal.ShaderSource{WGSL: p.Source()}
		if spirv {
			words, err := shader.CompileSPIRV(p)
			if err != nil {
				return err
			}
			src = hal.ShaderSource{SPIRV: words}
		}
		module, err := m.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  p.Label() + "_shader",
			Source: src,
		})
		if err != nil {
			return fmt.Errorf("compile %s shader: %w", p, err)
		}
		m.modules[p] = module
	}

	// group(0): the parameter block.
	uniformLayout, err := m.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sscr_params_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create params bind group layout: %w", err)
	}
	m.uniformLayout = uniformLayout

	// group(1): textures and sampler, shared by all programs.
	tex := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}
	}
	textureLayout, err := m.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sscr_textures_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			tex(0),
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			tex(2), tex(3), tex(4), tex(5),
		},
	})
	if err != nil {
		return fmt.Errorf("create textures bind group layout: %w", err)
	}
	m.textureLayout = textureLayout

	pipelineLayout, err := m.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sscr_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{m.uniformLayout, m.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	m.pipelineLayout = pipelineLayout

	for _, p := range shader.Programs() {
		pipeline, err := m.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  p.Label() + "_pipeline",
			Layout: m.pipelineLayout,
			Vertex: hal.VertexState{
				Module:     m.modules[p],
				EntryPoint: "vs_main",
			},
			Fragment: &hal.FragmentState{
				Module:     m.modules[p],
				EntryPoint: "fs_main",
				Targets: []gputypes.ColorTargetState{
					{Format: pyramidFormat, WriteMask: gputypes.ColorWriteMaskAll},
				},
			},
			Primitive: gputypes.PrimitiveState{
				Topology: gputypes.PrimitiveTopologyTriangleList,
				CullMode: gputypes.CullModeNone,
			},
			Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		})
		if err != nil {
			return fmt.Errorf("create %s pipeline: %w", p, err)
		}
		m.pipelines[p] = pipeline
	}

	sampler, err := m.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sscr_linear_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	m.sampler = sampler
	return nil
}

func (m *Mirror) createUniforms() error {
	buf, err := m.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sscr_params",
		Size:  shader.UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create params buffer: %w", err)
	}
	m.uniformBuf = buf

	group, err := m.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sscr_params_group",
		Layout: m.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: shader.UniformSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create params bind group: %w", err)
	}
	m.uniformGroup = group
	return nil
}

// EnsurePyramid (re)creates the raw and filtered pyramid textures if their
// size changed. Each texture gets one view per mip level so every blur pass
// renders into exactly one level.
func (m *Mirror) EnsurePyramid(size uint32, mipCount uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pyramidSize == size && len(m.pyramid[0].views) == int(mipCount) {
		return nil
	}
	m.destroyPyramid()

	for i, name := range []string{"sscr_pyramid_raw", "sscr_pyramid_filtered"} {
		tex, err := m.device.CreateTexture(&hal.TextureDescriptor{
			Label:         name,
			Size:          hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
			MipLevelCount: mipCount,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        pyramidFormat,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			m.destroyPyramid()
			return fmt.Errorf("create %s texture: %w", name, err)
		}
		m.pyramid[i].tex = tex

		for level := uint32(0); level < mipCount; level++ {
			view, err := m.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
				Label:         fmt.Sprintf("%s_mip%d", name, level),
				Format:        pyramidFormat,
				Dimension:     gputypes.TextureViewDimension2D,
				Aspect:        gputypes.TextureAspectAll,
				BaseMipLevel:  level,
				MipLevelCount: 1,
			})
			if err != nil {
				m.destroyPyramid()
				return fmt.Errorf("create %s view %d: %w", name, level, err)
			}
			m.pyramid[i].views = append(m.pyramid[i].views, view)
		}

		all, err := m.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         name + "_all",
			Format:        pyramidFormat,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: mipCount,
		})
		if err != nil {
			m.destroyPyramid()
			return fmt.Errorf("create %s view: %w", name, err)
		}
		m.pyramid[i].all = all
	}
	m.pyramidSize = size
	slogger().Debug("sscr: gpu pyramid allocated", "size", size, "mips", mipCount)
	return nil
}

// PyramidLevels returns the number of per-level views of the filtered pyramid.
func (m *Mirror) PyramidLevels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pyramid[1].views)
}

// Upload writes a packed parameter block to the uniform buffer.
func (m *Mirror) Upload(block []byte) error {
	if len(block) != shader.UniformSize {
		return fmt.Errorf("gpu: parameter block is %d bytes, want %d", len(block), shader.UniformSize)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uniformBuf == nil {
		return errDestroyed
	}
	if err := m.queue.WriteBuffer(m.uniformBuf, 0, block); err != nil {
		return fmt.Errorf("gpu: write parameter block: %w", err)
	}
	m.uploads++
	return nil
}

// Uploads returns how many parameter blocks were written.
func (m *Mirror) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

func (m *Mirror) destroyPyramid() {
	for i := range m.pyramid {
		for _, v := range m.pyramid[i].views {
			m.device.DestroyTextureView(v)
		}
		if m.pyramid[i].all != nil {
			m.device.DestroyTextureView(m.pyramid[i].all)
		}
		if m.pyramid[i].tex != nil {
			m.device.DestroyTexture(m.pyramid[i].tex)
		}
		m.pyramid[i] = pyramidTexture{}
	}
	m.pyramidSize = 0
}

// Destroy releases all device resources. The device itself belongs to the
// caller. Destroy is safe to call multiple times.
func (m *Mirror) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.frameCmds) > 0 {
		_ = m.device.WaitIdle()
	}
	m.releaseFrame()
	m.destroyTargets()
	m.destroyPyramid()
	if m.uniformGroup != nil {
		m.device.DestroyBindGroup(m.uniformGroup)
		m.uniformGroup = nil
	}
	if m.uniformBuf != nil {
		m.device.DestroyBuffer(m.uniformBuf)
		m.uniformBuf = nil
	}
	if m.sampler != nil {
		m.device.DestroySampler(m.sampler)
		m.sampler = nil
	}
	for i, p := range m.pipelines {
		if p != nil {
			m.device.DestroyRenderPipeline(p)
			m.pipelines[i] = nil
		}
	}
	if m.pipelineLayout != nil {
		m.device.DestroyPipelineLayout(m.pipelineLayout)
		m.pipelineLayout = nil
	}
	for _, l := range []*hal.BindGroupLayout{&m.textureLayout, &m.uniformLayout} {
		if *l != nil {
			m.device.DestroyBindGroupLayout(*l)
			*l = nil
		}
	}
	for i, mod := range m.modules {
		if mod != nil {
			m.device.DestroyShaderModule(mod)
			m.modules[i] = nil
		}
	}
}
