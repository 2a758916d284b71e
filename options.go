package sscr

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// PipelineOption configures a Pipeline during creation.
//
// Example:
//
//	// Software pipeline on all CPUs
//	p := sscr.NewPipeline()
//
//	// Mirror programs and resources onto a HAL device
//	p := sscr.NewPipeline(sscr.WithHALDevice(device, queue))
type PipelineOption func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	workers    int
	poolBudget int
	tracer     Tracer

	halDevice hal.Device
	halQueue  hal.Queue
	provider  gpucontext.DeviceProvider
	spirv     bool
}

// defaultOptions returns the default pipeline options.
func defaultOptions() pipelineOptions {
	return pipelineOptions{
		workers:    0, // runtime.GOMAXPROCS(0)
		poolBudget: 0, // unlimited
		spirv:      false,
	}
}

// WithWorkers sets the number of goroutines that process pixel rows.
// Values <= 0 use GOMAXPROCS.
func WithWorkers(n int) PipelineOption {
	return func(o *pipelineOptions) {
		o.workers = n
	}
}

// WithPoolBudget limits the bytes of transient buffers a frame may lease.
// A frame that needs more is skipped. Zero means unlimited. The persistent
// pyramid is not counted.
func WithPoolBudget(bytes int) PipelineOption {
	return func(o *pipelineOptions) {
		o.poolBudget = bytes
	}
}

// WithTracer installs a callback that receives every buffer access of every
// pass, in execution order.
func WithTracer(t Tracer) PipelineOption {
	return func(o *pipelineOptions) {
		o.tracer = t
	}
}

// WithHALDevice keeps the programs, the parameter block and the pyramid
// resident on a wgpu HAL device. The device stays owned by the caller.
func WithHALDevice(device hal.Device, queue hal.Queue) PipelineOption {
	return func(o *pipelineOptions) {
		o.halDevice = device
		o.halQueue = queue
	}
}

// WithDeviceProvider shares the GPU device of a host application. The
// provider must also expose HalDevice() and HalQueue(); otherwise the
// pipeline runs without a device mirror.
//
// Example:
//
//	p := sscr.NewPipeline(sscr.WithDeviceProvider(app.GPUContextProvider()))
func WithDeviceProvider(provider gpucontext.DeviceProvider) PipelineOption {
	return func(o *pipelineOptions) {
		o.provider = provider
	}
}

// WithShaderValidation compiles every program to SPIR-V with naga and hands
// the device SPIR-V instead of WGSL.
func WithShaderValidation(enabled bool) PipelineOption {
	return func(o *pipelineOptions) {
		o.spirv = enabled
	}
}
