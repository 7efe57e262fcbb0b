package renderer

import (
	"github.com/DrapNard/vulkan-browser-engine/renderer/core"
	"github.com/DrapNard/vulkan-browser-engine/renderer/gpu"
)

// CullCPU is the host-side reference for the compute kernel: same plane
// test, same clamp behavior, deterministic order. Used by tests and as a
// fallback when no device is available. Returns the compacted commands
// and whether the capacity clamp dropped any visible object.
func CullCPU(volumes []core.Volume, frustum core.Frustum, capacity uint32) ([]gpu.GPUDrawCommand, bool) {
	commands := make([]gpu.GPUDrawCommand, 0, capacity)
	overflow := false
	for _, v := range volumes {
		if !frustum.Visible(v.AABB) {
			continue
		}
		if uint32(len(commands)) >= capacity {
			overflow = true
			continue
		}
		commands = append(commands, gpu.GPUDrawCommand{
			VertexCount:   v.Params.VertexCount,
			InstanceCount: v.Params.InstanceCount,
			FirstVertex:   v.Params.FirstVertex,
			FirstInstance: v.Params.FirstInstance,
		})
	}
	return commands, overflow
}
