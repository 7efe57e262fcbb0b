package gpu

import (
	"encoding/binary"
	"math"

	"github.com/DrapNard/vulkan-browser-engine/renderer/core"
)

// Byte sizes of the WGSL structs in cull.wgsl. Storage buffer layout,
// little endian.
const (
	CullObjectSize   = 48
	DrawCommandSize  = 16
	IndirectArgsSize = 16
	CullGlobalsSize  = 112
	CullStatusSize   = 16
)

// GPUCullObject mirrors the WGSL CullObject struct (48 bytes).
// The draw arguments ride along with the bounds so the kernel can emit a
// complete command without a second fetch.
type GPUCullObject struct {
	AABBMin       [3]float32 // offset 0
	VertexCount   uint32     // offset 12, fills the vec3 gap
	AABBMax       [3]float32 // offset 16
	FirstVertex   uint32     // offset 28
	InstanceCount uint32     // offset 32
	FirstInstance uint32     // offset 36
	// offsets 40..47 pad to 48
}

func (g *GPUCullObject) Marshal() []byte {
	buf := make([]byte, CullObjectSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.AABBMin[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.AABBMin[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.AABBMin[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.VertexCount)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.AABBMax[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.AABBMax[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.AABBMax[2]))
	binary.LittleEndian.PutUint32(buf[28:32], g.FirstVertex)
	binary.LittleEndian.PutUint32(buf[32:36], g.InstanceCount)
	binary.LittleEndian.PutUint32(buf[36:40], g.FirstInstance)
	return buf
}

// GPUDrawCommand mirrors the WGSL DrawCommand struct (16 bytes), the
// wgpu draw_indirect argument layout.
type GPUDrawCommand struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

func (g *GPUDrawCommand) Marshal() []byte {
	buf := make([]byte, DrawCommandSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.VertexCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], g.FirstVertex)
	binary.LittleEndian.PutUint32(buf[12:16], g.FirstInstance)
	return buf
}

func UnmarshalDrawCommand(buf []byte) GPUDrawCommand {
	return GPUDrawCommand{
		VertexCount:   binary.LittleEndian.Uint32(buf[0:4]),
		InstanceCount: binary.LittleEndian.Uint32(buf[4:8]),
		FirstVertex:   binary.LittleEndian.Uint32(buf[8:12]),
		FirstInstance: binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// GPUIndirectArgs mirrors the WGSL IndirectArgs struct (16 bytes).
// InstanceCount is the visible counter: the kernel bumps it atomically and
// draw_indirect reads it in place.
type GPUIndirectArgs struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

func (g *GPUIndirectArgs) Marshal() []byte {
	buf := make([]byte, IndirectArgsSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.VertexCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], g.FirstVertex)
	binary.LittleEndian.PutUint32(buf[12:16], g.FirstInstance)
	return buf
}

// GPUCullGlobals mirrors the WGSL CullGlobals uniform (112 bytes).
type GPUCullGlobals struct {
	ObjectCount uint32
	Capacity    uint32
	// 8 bytes pad before the vec4 array
	Planes core.Frustum
}

func (g *GPUCullGlobals) Marshal() []byte {
	buf := make([]byte, CullGlobalsSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.ObjectCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.Capacity)
	off := 16
	for i := 0; i < 6; i++ {
		p := g.Planes[i]
		binary.LittleEndian.PutUint32(buf[off+0:off+4], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(buf[off+4:off+8], math.Float32bits(p[1]))
		binary.LittleEndian.PutUint32(buf[off+8:off+12], math.Float32bits(p[2]))
		binary.LittleEndian.PutUint32(buf[off+12:off+16], math.Float32bits(p[3]))
		off += 16
	}
	return buf
}

// GPUCullStatus mirrors the WGSL CullStatus struct (16 bytes). Overflow is
// set by the kernel when a visible object found the command array full.
type GPUCullStatus struct {
	Overflow uint32
	// 12 bytes pad
}

func UnmarshalCullStatus(buf []byte) GPUCullStatus {
	return GPUCullStatus{Overflow: binary.LittleEndian.Uint32(buf[0:4])}
}

// MarshalCullObjects packs a registry snapshot into the objects storage
// buffer layout.
func MarshalCullObjects(volumes []core.Volume) []byte {
	buf := make([]byte, 0, len(volumes)*CullObjectSize)
	for _, v := range volumes {
		obj := GPUCullObject{
			AABBMin:       [3]float32{v.AABB.Min.X(), v.AABB.Min.Y(), v.AABB.Min.Z()},
			VertexCount:   v.Params.VertexCount,
			AABBMax:       [3]float32{v.AABB.Max.X(), v.AABB.Max.Y(), v.AABB.Max.Z()},
			FirstVertex:   v.Params.FirstVertex,
			InstanceCount: v.Params.InstanceCount,
			FirstInstance: v.Params.FirstInstance,
		}
		buf = append(buf, obj.Marshal()...)
	}
	return buf
}
