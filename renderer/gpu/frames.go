package gpu

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/DrapNard/vulkan-browser-engine/renderer/core"
)

type slotPhase int

const (
	slotIdle slotPhase = iota
	slotAcquired
	slotCulled
	slotInFlight
)

// FrameSlot is one frame's worth of GPU state: a private buffer set, the
// bind group over it, and the completion fence of its last submission.
type FrameSlot struct {
	Index         int
	Buffers       *DrawCommandBuffer
	CullBindGroup *wgpu.BindGroup

	phase  slotPhase
	done   chan struct{}
	status GPUCullStatus
	mapErr error
}

// PrevStatus returns the cull status read back from this slot's previous
// frame. Valid after Acquire returns the slot.
func (s *FrameSlot) PrevStatus() GPUCullStatus {
	return s.status
}

func (s *FrameSlot) markCulled() {
	if s.phase != slotAcquired {
		panic("gpu: culling encoded out of order on frame slot")
	}
	s.phase = slotCulled
}

// FrameRing rotates N frame slots so the CPU can record frame k+1 while
// frame k executes. A slot is handed out again only after its previous
// submission's fence fired, which also makes buffer growth safe at that
// point.
type FrameRing struct {
	ctx          *Context
	culler       *Culler
	slots        []*FrameSlot
	cursor       int
	growthFactor uint32
	fenceTimeout time.Duration
}

func NewFrameRing(ctx *Context, culler *Culler, frames int, capacity, growthFactor uint32) (*FrameRing, error) {
	if frames < 1 {
		frames = 1
	}
	r := &FrameRing{
		ctx:          ctx,
		culler:       culler,
		growthFactor: growthFactor,
		fenceTimeout: 5 * time.Second,
	}
	for i := 0; i < frames; i++ {
		buffers, err := NewDrawCommandBuffer(ctx.Device, capacity)
		if err != nil {
			r.Release()
			return nil, err
		}
		r.slots = append(r.slots, &FrameSlot{Index: i, Buffers: buffers})
	}
	return r, nil
}

func (r *FrameRing) next() *FrameSlot {
	s := r.slots[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.slots)
	return s
}

// wait blocks until the slot's outstanding fence fires. The fence is the
// MapAsync callback of the status readback; once it runs, every command
// submitted for the slot has completed on the device.
func (r *FrameRing) wait(s *FrameSlot) error {
	if s.done == nil {
		return nil
	}
	deadline := time.After(r.fenceTimeout)
	for {
		select {
		case <-s.done:
			s.done = nil
			if s.mapErr != nil {
				return s.mapErr
			}
			s.phase = slotIdle
			return nil
		case <-deadline:
			return fmt.Errorf("frame fence timed out after %s: %w", r.fenceTimeout, core.ErrDeviceLost)
		default:
			if r.ctx != nil && r.ctx.Device != nil {
				r.ctx.Device.Poll(false, nil)
			}
			time.Sleep(time.Millisecond)
		}
	}
}

// Acquire returns the next slot, ready for encoding, with capacity for at
// least objectCount commands. It blocks on the slot's previous fence, then
// grows the buffer set if the object count demands it or the slot's last
// frame overflowed. Growth here never races the device: nothing of this
// slot is in flight anymore.
func (r *FrameRing) Acquire(objectCount uint32) (*FrameSlot, error) {
	s := r.next()
	if err := r.wait(s); err != nil {
		return nil, err
	}
	if s.phase != slotIdle {
		panic("gpu: frame slot acquired while still in use")
	}

	needed := objectCount
	if s.status.Overflow != 0 {
		// The previous frame on this slot clamped its output. Force at
		// least one growth step even if the object count went down.
		if needed <= s.Buffers.Capacity {
			needed = s.Buffers.Capacity + 1
		}
		core.LogWarn("frame slot %d overflowed at capacity %d, growing", s.Index, s.Buffers.Capacity)
	}

	grown, err := s.Buffers.EnsureCapacity(r.ctx.Device, needed, r.growthFactor)
	if err != nil {
		return nil, err
	}
	if grown || s.CullBindGroup == nil {
		if s.CullBindGroup != nil {
			s.CullBindGroup.Release()
		}
		s.CullBindGroup, err = r.culler.CreateBindGroup(r.ctx.Device, s.Buffers)
		if err != nil {
			return nil, err
		}
	}

	s.phase = slotAcquired
	return s, nil
}

// EncodeCull uploads the frame's inputs, resets the counter and records
// the culling dispatch. The compute pass is always encoded before the
// draw pass of the same frame; the slot phase enforces it.
func (r *FrameRing) EncodeCull(s *FrameSlot, encoder *wgpu.CommandEncoder, globals *GPUCullGlobals, objects []byte, vertexCount uint32) {
	if s.phase != slotAcquired {
		panic("gpu: EncodeCull on a slot that was not acquired")
	}
	s.Buffers.Reset(r.ctx.Queue, vertexCount)
	s.Buffers.Upload(r.ctx.Queue, globals, objects)
	r.culler.Encode(encoder, s.CullBindGroup, globals.ObjectCount)
	s.markCulled()
}

// Submit finishes the encoder, appends the status readback and arms the
// slot's fence. The MapAsync completion doubles as fence and overflow
// telemetry.
func (r *FrameRing) Submit(s *FrameSlot, encoder *wgpu.CommandEncoder) error {
	if s.phase != slotCulled {
		panic("gpu: Submit before culling was encoded")
	}

	encoder.CopyBufferToBuffer(s.Buffers.Status, 0, s.Buffers.Staging, 0, CullStatusSize)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame encoder: %w", err)
	}
	r.ctx.Queue.Submit(cmd)

	s.done = make(chan struct{})
	s.mapErr = nil
	done := s.done
	staging := s.Buffers.Staging
	err = staging.MapAsync(wgpu.MapModeRead, 0, CullStatusSize, func(status wgpu.BufferMapAsyncStatus) {
		if status == wgpu.BufferMapAsyncStatusSuccess {
			if data := staging.GetMappedRange(0, CullStatusSize); data != nil {
				s.status = UnmarshalCullStatus(data)
			}
			staging.Unmap()
		} else {
			s.mapErr = fmt.Errorf("status readback failed (%v): %w", status, core.ErrDeviceLost)
		}
		close(done)
	})
	if err != nil {
		return fmt.Errorf("arm frame fence: %w", core.ErrDeviceLost)
	}

	s.phase = slotInFlight
	return nil
}

// Flush waits for every in-flight slot. Call before releasing resources.
func (r *FrameRing) Flush() error {
	for _, s := range r.slots {
		if err := r.wait(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *FrameRing) Release() {
	for _, s := range r.slots {
		if s.CullBindGroup != nil {
			s.CullBindGroup.Release()
		}
		if s.Buffers != nil {
			s.Buffers.Release()
		}
	}
	r.slots = nil
}
