package gpu

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrapNard/vulkan-browser-engine/renderer/core"
)

// Bookkeeping tests run against hand-built rings; no device needed.

func testRing(frames int) *FrameRing {
	r := &FrameRing{
		growthFactor: 2,
		fenceTimeout: 20 * time.Millisecond,
	}
	for i := 0; i < frames; i++ {
		r.slots = append(r.slots, &FrameSlot{Index: i})
	}
	return r
}

func TestFrameRingRotation(t *testing.T) {
	r := testRing(3)
	assert.Equal(t, 0, r.next().Index)
	assert.Equal(t, 1, r.next().Index)
	assert.Equal(t, 2, r.next().Index)
	assert.Equal(t, 0, r.next().Index)
}

func TestFrameRingWaitNoFence(t *testing.T) {
	r := testRing(2)
	assert.NoError(t, r.wait(r.slots[0]))
}

func TestFrameRingWaitCompletedFence(t *testing.T) {
	r := testRing(2)
	s := r.slots[0]
	s.phase = slotInFlight
	s.done = make(chan struct{})
	close(s.done)

	require.NoError(t, r.wait(s))
	assert.Equal(t, slotIdle, s.phase)
	assert.Nil(t, s.done)
}

func TestFrameRingWaitTimeoutIsDeviceLost(t *testing.T) {
	r := testRing(2)
	s := r.slots[0]
	s.phase = slotInFlight
	s.done = make(chan struct{}) // never closed

	err := r.wait(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDeviceLost))
}

func TestFrameRingWaitSurfacesMapError(t *testing.T) {
	r := testRing(2)
	s := r.slots[0]
	s.phase = slotInFlight
	s.done = make(chan struct{})
	s.mapErr = core.ErrDeviceLost
	close(s.done)

	err := r.wait(s)
	assert.True(t, errors.Is(err, core.ErrDeviceLost))
}

func TestSlotEncodeOrderEnforced(t *testing.T) {
	s := &FrameSlot{}

	// Culling without acquiring first is a contract violation.
	assert.Panics(t, func() { s.markCulled() })

	s.phase = slotAcquired
	assert.NotPanics(t, func() { s.markCulled() })
	assert.Equal(t, slotCulled, s.phase)

	// Double cull encode on the same frame.
	assert.Panics(t, func() { s.markCulled() })
}

func TestSlotPrevStatusCarriesOverflow(t *testing.T) {
	s := &FrameSlot{}
	assert.Equal(t, uint32(0), s.PrevStatus().Overflow)

	s.status = GPUCullStatus{Overflow: 1}
	assert.Equal(t, uint32(1), s.PrevStatus().Overflow)
}
