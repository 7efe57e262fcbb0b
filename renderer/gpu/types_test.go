package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrapNard/vulkan-browser-engine/renderer/core"
)

func TestCullObjectLayout(t *testing.T) {
	obj := GPUCullObject{
		AABBMin:       [3]float32{-1, -2, -3},
		VertexCount:   36,
		AABBMax:       [3]float32{1, 2, 3},
		FirstVertex:   12,
		InstanceCount: 1,
		FirstInstance: 7,
	}
	buf := obj.Marshal()
	require.Len(t, buf, CullObjectSize)

	// vertex_count sits in the vec3 gap at offset 12, first_vertex at 28
	assert.Equal(t, uint32(36), binary.LittleEndian.Uint32(buf[12:16]))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20])))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(buf[28:32]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[36:40]))
	// trailing pad stays zero
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[40:44]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[44:48]))
}

func TestCullGlobalsLayout(t *testing.T) {
	g := GPUCullGlobals{
		ObjectCount: 100,
		Capacity:    128,
	}
	g.Planes[0] = mgl32.Vec4{1, 0, 0, 5}
	g.Planes[5] = mgl32.Vec4{0, 0, -1, 42}

	buf := g.Marshal()
	require.Len(t, buf, CullGlobalsSize)

	assert.Equal(t, uint32(100), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(128), binary.LittleEndian.Uint32(buf[4:8]))
	// planes array starts at 16, each plane is a 16-byte vec4
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20])))
	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(buf[28:32])))
	lastPlane := 16 + 5*16
	assert.Equal(t, float32(-1), math.Float32frombits(binary.LittleEndian.Uint32(buf[lastPlane+8:lastPlane+12])))
	assert.Equal(t, float32(42), math.Float32frombits(binary.LittleEndian.Uint32(buf[lastPlane+12:lastPlane+16])))
}

func TestDrawCommandRoundTrip(t *testing.T) {
	cmd := GPUDrawCommand{VertexCount: 36, InstanceCount: 1, FirstVertex: 6, FirstInstance: 99}
	got := UnmarshalDrawCommand(cmd.Marshal())
	assert.Equal(t, cmd, got)
}

func TestMarshalCullObjects(t *testing.T) {
	volumes := []core.Volume{
		{
			AABB:   core.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}},
			Params: core.DrawParams{VertexCount: 36, InstanceCount: 1, FirstInstance: 0},
		},
		{
			AABB:   core.AABB{Min: mgl32.Vec3{4, 4, 4}, Max: mgl32.Vec3{6, 6, 6}},
			Params: core.DrawParams{VertexCount: 36, InstanceCount: 1, FirstInstance: 1},
		},
	}

	buf := MarshalCullObjects(volumes)
	require.Len(t, buf, 2*CullObjectSize)

	second := buf[CullObjectSize:]
	assert.Equal(t, float32(4), math.Float32frombits(binary.LittleEndian.Uint32(second[0:4])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(second[36:40]))
}
