package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/DrapNard/vulkan-browser-engine/renderer/shaders"
)

// CullWorkgroupSize matches @workgroup_size in cull.wgsl.
const CullWorkgroupSize = 64

// Culler owns the frustum culling compute pipeline.
type Culler struct {
	pipeline *wgpu.ComputePipeline
}

func NewCuller(device *wgpu.Device) (*Culler, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Cull CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.CullSource},
	})
	if err != nil {
		return nil, fmt.Errorf("create cull shader module: %w", err)
	}

	// Layout auto
	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Cull Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create cull pipeline: %w", err)
	}

	return &Culler{pipeline: pipeline}, nil
}

// CreateBindGroup binds one slot's buffer set to the culling pipeline.
// Must be recreated whenever the slot's buffers are reallocated.
func (c *Culler) CreateBindGroup(device *wgpu.Device, b *DrawCommandBuffer) (*wgpu.BindGroup, error) {
	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: b.Globals, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: b.Objects, Size: wgpu.WholeSize},
		{Binding: 2, Buffer: b.Commands, Size: wgpu.WholeSize},
		{Binding: 3, Buffer: b.Args, Size: wgpu.WholeSize},
		{Binding: 4, Buffer: b.Status, Size: wgpu.WholeSize},
	}
	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  c.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create cull bind group: %w", err)
	}
	return bg, nil
}

// Encode records the culling dispatch, one invocation per object. A zero
// object count records nothing; the counter was already reset to zero.
func (c *Culler) Encode(encoder *wgpu.CommandEncoder, bindGroup *wgpu.BindGroup, objectCount uint32) {
	if objectCount == 0 {
		return
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups((objectCount+CullWorkgroupSize-1)/CullWorkgroupSize, 1, 1)
	pass.End()
}

func (c *Culler) Release() {
	if c.pipeline != nil {
		c.pipeline.Release()
		c.pipeline = nil
	}
}
