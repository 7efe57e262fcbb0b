package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// GrowCapacity returns the capacity after growing geometrically until it
// covers needed. Factor below 2 is treated as 2.
func GrowCapacity(current, needed, factor uint32) uint32 {
	if factor < 2 {
		factor = 2
	}
	if current == 0 {
		current = 1
	}
	for current < needed {
		current *= factor
	}
	return current
}

// DrawCommandBuffer owns one complete set of GPU buffers for a culling
// dispatch and the indirect draw fed by it. Each frame slot has its own
// set, so resizing one never touches buffers a submitted frame still
// reads.
type DrawCommandBuffer struct {
	Capacity uint32

	Globals  *wgpu.Buffer // CullGlobals uniform
	Objects  *wgpu.Buffer // CullObject array, capacity entries
	Commands *wgpu.Buffer // compacted DrawCommand array, capacity entries
	Args     *wgpu.Buffer // IndirectArgs, doubles as the visible counter
	Status   *wgpu.Buffer // CullStatus, overflow flag
	Staging  *wgpu.Buffer // MapRead mirror of Status
}

func NewDrawCommandBuffer(device *wgpu.Device, capacity uint32) (*DrawCommandBuffer, error) {
	if capacity == 0 {
		capacity = 1
	}
	b := &DrawCommandBuffer{Capacity: capacity}
	if err := b.create(device); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (b *DrawCommandBuffer) create(device *wgpu.Device) error {
	var err error

	b.Globals, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CullGlobals",
		Size:  CullGlobalsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create globals buffer: %w", err)
	}

	b.Objects, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CullObjects",
		Size:  uint64(b.Capacity) * CullObjectSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create objects buffer: %w", err)
	}

	b.Commands, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "DrawCommands",
		Size:  uint64(b.Capacity) * DrawCommandSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create commands buffer: %w", err)
	}

	b.Args, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "IndirectArgs",
		Size:  IndirectArgsSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageIndirect | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create indirect args buffer: %w", err)
	}

	b.Status, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CullStatus",
		Size:  CullStatusSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create status buffer: %w", err)
	}

	b.Staging, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CullStatusStaging",
		Size:  CullStatusSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}

	return nil
}

// EnsureCapacity grows the buffer set geometrically to hold at least
// needed commands. Must only be called while no submitted work references
// the old buffers; the frame ring guarantees that by growing right after
// the slot's completion fence. Reports whether a reallocation happened.
func (b *DrawCommandBuffer) EnsureCapacity(device *wgpu.Device, needed, factor uint32) (bool, error) {
	if needed <= b.Capacity {
		return false, nil
	}
	b.Release()
	b.Capacity = GrowCapacity(b.Capacity, needed, factor)
	if err := b.create(device); err != nil {
		return false, err
	}
	return true, nil
}

// Reset zeroes the visible counter and overflow flag and stamps the
// batch's shared vertex count into the indirect args. Queue writes are
// ordered before any later submission, so the dispatch always sees a
// clean counter.
func (b *DrawCommandBuffer) Reset(queue *wgpu.Queue, vertexCount uint32) {
	args := GPUIndirectArgs{VertexCount: vertexCount}
	queue.WriteBuffer(b.Args, 0, args.Marshal())
	queue.WriteBuffer(b.Status, 0, make([]byte, CullStatusSize))
}

// Upload writes the frame's globals and packed object array.
func (b *DrawCommandBuffer) Upload(queue *wgpu.Queue, globals *GPUCullGlobals, objects []byte) {
	queue.WriteBuffer(b.Globals, 0, globals.Marshal())
	if len(objects) > 0 {
		queue.WriteBuffer(b.Objects, 0, objects)
	}
}

func (b *DrawCommandBuffer) Release() {
	for _, buf := range []*wgpu.Buffer{b.Globals, b.Objects, b.Commands, b.Args, b.Status, b.Staging} {
		if buf != nil {
			buf.Release()
		}
	}
	b.Globals, b.Objects, b.Commands, b.Args, b.Status, b.Staging = nil, nil, nil, nil, nil, nil
}
