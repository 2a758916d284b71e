package sscr

import (
	"runtime"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.workers != 0 || o.poolBudget != 0 || o.tracer != nil || o.spirv {
		t.Errorf("defaultOptions() = %+v", o)
	}
	if o.halDevice != nil || o.halQueue != nil || o.provider != nil {
		t.Error("default options carry a device")
	}
}

func TestPipelineOptions(t *testing.T) {
	var calls int
	o := defaultOptions()
	for _, opt := range []PipelineOption{
		WithWorkers(3),
		WithPoolBudget(1 << 20),
		WithTracer(func(PassEvent) { calls++ }),
		WithShaderValidation(true),
		WithDeviceProvider(noHALProvider{}),
	} {
		opt(&o)
	}
	if o.workers != 3 {
		t.Errorf("workers = %d, want 3", o.workers)
	}
	if o.poolBudget != 1<<20 {
		t.Errorf("poolBudget = %d, want %d", o.poolBudget, 1<<20)
	}
	if !o.spirv {
		t.Error("spirv = false, want true")
	}
	if o.provider == nil {
		t.Error("provider not set")
	}
	o.tracer(PassEvent{})
	if calls != 1 {
		t.Errorf("tracer calls = %d, want 1", calls)
	}
}

func TestNewPipeline_Workers(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"explicit", 2, 2},
		{"default", 0, runtime.GOMAXPROCS(0)},
		{"negative", -1, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(WithWorkers(tt.n))
			defer p.Close()
			if got := p.workers.Workers(); got != tt.want {
				t.Errorf("Workers() = %d, want %d", got, tt.want)
			}
		})
	}
}
