package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/DrapNard/vulkan-browser-engine/renderer/shaders"
)

// Executor renders the visible set with a single indirect draw. The
// instance count in the args buffer was written by the culling dispatch
// of the same submission; the host never reads it.
type Executor struct {
	Pipeline *wgpu.RenderPipeline
	ViewBuf  *wgpu.Buffer
}

func NewExecutor(device *wgpu.Device, format wgpu.TextureFormat) (*Executor, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "IndirectDrawShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.DrawSource},
	})
	if err != nil {
		return nil, fmt.Errorf("create draw shader module: %w", err)
	}

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "IndirectDrawBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "IndirectDrawPipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create draw pipeline: %w", err)
	}

	viewBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ViewData",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	return &Executor{Pipeline: pipeline, ViewBuf: viewBuf}, nil
}

// UpdateView uploads the frame's view-projection matrix.
func (e *Executor) UpdateView(queue *wgpu.Queue, vp mgl32.Mat4) {
	buf := make([]byte, 64)
	for i, v := range vp {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	queue.WriteBuffer(e.ViewBuf, 0, buf)
}

// CreateBindGroup binds a slot's object and command arrays to the draw
// pipeline. Rebuilt alongside the cull bind group after growth.
func (e *Executor) CreateBindGroup(device *wgpu.Device, b *DrawCommandBuffer) (*wgpu.BindGroup, error) {
	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: e.Pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: e.ViewBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: b.Objects, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: b.Commands, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create draw bind group: %w", err)
	}
	return bg, nil
}

// EncodeDraw issues the single indirect draw for the slot. The render
// pass must be in the same submission as the culling pass, after it.
func (e *Executor) EncodeDraw(pass *wgpu.RenderPassEncoder, bindGroup *wgpu.BindGroup, s *FrameSlot) {
	if s.phase != slotCulled {
		panic("gpu: EncodeDraw before the culling pass was encoded")
	}
	pass.SetPipeline(e.Pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DrawIndirect(s.Buffers.Args, 0)
}

func (e *Executor) Release() {
	if e.Pipeline != nil {
		e.Pipeline.Release()
		e.Pipeline = nil
	}
	if e.ViewBuf != nil {
		e.ViewBuf.Release()
		e.ViewBuf = nil
	}
}
