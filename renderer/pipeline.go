// Package renderer drives GPU frustum culling and indirect drawing: scene
// objects register their bounds once, every frame a compute pass compacts
// the visible ones into draw commands, and a single indirect draw consumes
// them without the visible count ever crossing back to the host.
package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/DrapNard/vulkan-browser-engine/renderer/core"
	"github.com/DrapNard/vulkan-browser-engine/renderer/gpu"
)

// FrameStats describes the most recent frame submitted by the pipeline.
// Overflow reports the slot's previous frame on the same buffers, since
// that is the newest readback available without stalling.
type FrameStats struct {
	Frame       uint64
	ObjectCount uint32
	Capacity    uint32
	Overflow    bool
}

// Pipeline ties the registry, the culling pass and the indirect draw
// together over a ring of in-flight frames.
type Pipeline struct {
	Registry *core.Registry

	cfg      Config
	ctx      *gpu.Context
	culler   *gpu.Culler
	executor *gpu.Executor
	ring     *gpu.FrameRing

	// per-slot draw bind groups, keyed by slot index, rebuilt on growth
	drawBG    map[int]*wgpu.BindGroup
	drawBGCap map[int]uint32

	batchVertexCount uint32
	frame            uint64
	stats            FrameStats
}

// NewPipeline builds the full visibility pipeline. Format is the color
// target format of the draw pass.
func NewPipeline(ctx *gpu.Context, cfg Config, format wgpu.TextureFormat) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core.SetLogLevel(cfg.LogLevel)

	culler, err := gpu.NewCuller(ctx.Device)
	if err != nil {
		return nil, err
	}

	executor, err := gpu.NewExecutor(ctx.Device, format)
	if err != nil {
		culler.Release()
		return nil, err
	}

	ring, err := gpu.NewFrameRing(ctx, culler, cfg.FramesInFlight, cfg.InitialCapacity, cfg.GrowthFactor)
	if err != nil {
		culler.Release()
		executor.Release()
		return nil, err
	}

	core.LogInfo("visibility pipeline ready: %d frames in flight, capacity %d",
		cfg.FramesInFlight, cfg.InitialCapacity)

	return &Pipeline{
		Registry:         core.NewRegistry(),
		cfg:              cfg,
		ctx:              ctx,
		culler:           culler,
		executor:         executor,
		ring:             ring,
		drawBG:           make(map[int]*wgpu.BindGroup),
		drawBGCap:        make(map[int]uint32),
		batchVertexCount: 36,
	}, nil
}

// SetBatchVertexCount sets the vertex count stamped into the indirect
// args at reset, shared by the whole batch. Defaults to 36 (a cube).
func (p *Pipeline) SetBatchVertexCount(n uint32) {
	p.batchVertexCount = n
}

func (p *Pipeline) Stats() FrameStats {
	return p.stats
}

// Frame culls the current registry contents against the view-projection
// matrix and, when target is non-nil, draws the survivors into it. Cull
// and draw are recorded into one submission, compute first; the visible
// count is produced and consumed entirely on the GPU.
func (p *Pipeline) Frame(vp mgl32.Mat4, target *wgpu.TextureView) error {
	snap := p.Registry.Snapshot()
	count := uint32(snap.Len())

	slot, err := p.ring.Acquire(count)
	if err != nil {
		return fmt.Errorf("acquire frame slot: %w", err)
	}

	overflow := slot.PrevStatus().Overflow != 0
	if overflow {
		core.LogWarn("previous frame on slot was lossy: %v", core.ErrCapacityExceeded)
	}

	globals := &gpu.GPUCullGlobals{
		ObjectCount: count,
		Capacity:    slot.Buffers.Capacity,
		Planes:      core.ExtractFrustum(vp),
	}

	encoder, err := p.ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create frame encoder: %w", err)
	}

	p.ring.EncodeCull(slot, encoder, globals, gpu.MarshalCullObjects(snap.Volumes), p.batchVertexCount)

	if target != nil {
		bg, err := p.drawBindGroup(slot)
		if err != nil {
			return err
		}
		p.executor.UpdateView(p.ctx.Queue, vp)

		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:       target,
					LoadOp:     wgpu.LoadOpClear,
					StoreOp:    wgpu.StoreOpStore,
					ClearValue: wgpu.Color{R: 0.02, G: 0.02, B: 0.05, A: 1.0},
				},
			},
		})
		p.executor.EncodeDraw(pass, bg, slot)
		pass.End()
	}

	if err := p.ring.Submit(slot, encoder); err != nil {
		return err
	}

	p.frame++
	p.stats = FrameStats{
		Frame:       p.frame,
		ObjectCount: count,
		Capacity:    slot.Buffers.Capacity,
		Overflow:    overflow,
	}
	return nil
}

func (p *Pipeline) drawBindGroup(slot *gpu.FrameSlot) (*wgpu.BindGroup, error) {
	if bg, ok := p.drawBG[slot.Index]; ok && p.drawBGCap[slot.Index] == slot.Buffers.Capacity {
		return bg, nil
	}
	if old, ok := p.drawBG[slot.Index]; ok {
		old.Release()
	}
	bg, err := p.executor.CreateBindGroup(p.ctx.Device, slot.Buffers)
	if err != nil {
		return nil, err
	}
	p.drawBG[slot.Index] = bg
	p.drawBGCap[slot.Index] = slot.Buffers.Capacity
	return bg, nil
}

// Flush waits for all in-flight frames to complete.
func (p *Pipeline) Flush() error {
	return p.ring.Flush()
}

func (p *Pipeline) Release() {
	if err := p.ring.Flush(); err != nil {
		core.LogError("flush on release: %v", err)
	}
	for _, bg := range p.drawBG {
		bg.Release()
	}
	p.ring.Release()
	p.executor.Release()
	p.culler.Release()
}
