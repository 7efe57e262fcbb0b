package gpu

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// ReadBuffer copies a GPU buffer into host memory through a MapRead
// staging buffer. Debug and test tooling only; the render path never
// reads GPU results back before drawing.
func ReadBuffer(ctx *Context, src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging, err := ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ReadStaging",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create read staging buffer: %w", err)
	}
	defer staging.Destroy()

	encoder, err := ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create read encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish read encoder: %w", err)
	}
	ctx.Queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("MapAsync: %w", err)
	}

	timeout := time.After(2 * time.Second)
Loop:
	for {
		ctx.Device.Poll(false, nil)
		select {
		case <-done:
			break Loop
		case <-timeout:
			return nil, fmt.Errorf("ReadBuffer timed out after 2s")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := staging.GetMappedRange(0, uint(size))
	if data == nil {
		return nil, fmt.Errorf("failed to get mapped range")
	}
	out := make([]byte, size)
	copy(out, data)
	staging.Unmap()

	return out, nil
}

// ReadDrawCommands reads back a slot's indirect args and the compacted
// command array it refers to. Only valid once the slot's fence has fired.
func ReadDrawCommands(ctx *Context, b *DrawCommandBuffer) (GPUIndirectArgs, []GPUDrawCommand, error) {
	argsRaw, err := ReadBuffer(ctx, b.Args, IndirectArgsSize)
	if err != nil {
		return GPUIndirectArgs{}, nil, err
	}
	cmd := UnmarshalDrawCommand(argsRaw)
	args := GPUIndirectArgs{
		VertexCount:   cmd.VertexCount,
		InstanceCount: cmd.InstanceCount,
		FirstVertex:   cmd.FirstVertex,
		FirstInstance: cmd.FirstInstance,
	}

	count := args.InstanceCount
	if count > b.Capacity {
		count = b.Capacity
	}
	if count == 0 {
		return args, nil, nil
	}

	raw, err := ReadBuffer(ctx, b.Commands, uint64(count)*DrawCommandSize)
	if err != nil {
		return args, nil, err
	}
	commands := make([]GPUDrawCommand, count)
	for i := range commands {
		commands[i] = UnmarshalDrawCommand(raw[i*DrawCommandSize:])
	}
	return args, commands, nil
}
