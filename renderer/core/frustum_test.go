package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func boxAt(center mgl32.Vec3, half float32) AABB {
	h := mgl32.Vec3{half, half, half}
	return AABB{Min: center.Sub(h), Max: center.Add(h)}
}

func TestFrustumCulling(t *testing.T) {
	// Camera at origin looking down -Z
	// Perspective: 90 deg FOV, Aspect 1.0, Near 1, Far 100
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1.0, 1.0, 100.0)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 0},  // Eye
		mgl32.Vec3{0, 0, -1}, // Center
		mgl32.Vec3{0, 1, 0},  // Up
	)
	frustum := ExtractFrustum(proj.Mul4(view))

	tests := []struct {
		name     string
		aabbMin  mgl32.Vec3
		aabbMax  mgl32.Vec3
		expected bool
	}{
		{
			name:     "Inside (center)",
			aabbMin:  mgl32.Vec3{-1, -1, -10},
			aabbMax:  mgl32.Vec3{1, 1, -5},
			expected: true,
		},
		{
			name:     "Outside (Left)",
			aabbMin:  mgl32.Vec3{-20, -1, -10},
			aabbMax:  mgl32.Vec3{-15, 1, -5},
			expected: false,
		},
		{
			name:     "Outside (Right)",
			aabbMin:  mgl32.Vec3{15, -1, -10},
			aabbMax:  mgl32.Vec3{20, 1, -5},
			expected: false,
		},
		{
			name:     "Outside (Behind/Near)",
			aabbMin:  mgl32.Vec3{-1, -1, 2},
			aabbMax:  mgl32.Vec3{1, 1, 5},
			expected: false,
		},
		{
			name:     "Outside (Far)",
			aabbMin:  mgl32.Vec3{-1, -1, -200},
			aabbMax:  mgl32.Vec3{1, 1, -150},
			expected: false,
		},
		{
			name:     "Intersecting (Left Plane)",
			aabbMin:  mgl32.Vec3{-15, -1, -10}, // Left edge is at roughly -10 (tan(45)*10)
			aabbMax:  mgl32.Vec3{-5, 1, -5},
			expected: true,
		},
		{
			name:     "Encompassing (Huge box)",
			aabbMin:  mgl32.Vec3{-1000, -1000, -1000},
			aabbMax:  mgl32.Vec3{1000, 1000, 1000},
			expected: true,
		},
		{
			name:     "Degenerate point inside",
			aabbMin:  mgl32.Vec3{0, 0, -5},
			aabbMax:  mgl32.Vec3{0, 0, -5},
			expected: true,
		},
		{
			name:     "Degenerate point outside",
			aabbMin:  mgl32.Vec3{100, 0, -5},
			aabbMax:  mgl32.Vec3{100, 0, -5},
			expected: false,
		},
	}

	for _, tc := range tests {
		aabb := AABB{Min: tc.aabbMin, Max: tc.aabbMax}
		visible := frustum.Visible(aabb)
		if visible != tc.expected {
			t.Errorf("Test %s failed: expected %v, got %v", tc.name, tc.expected, visible)
			// Debug info
			for i, p := range frustum {
				dist := p.Dot(aabb.Center().Vec4(1.0))
				t.Logf("  P%d: %v, Dist(Center)=%f", i, p, dist)
			}
		}
	}
}

// Three boxes around the camera: in front, far off to the side, and behind.
// Only the one in front survives.
func TestFrustumThreeBoxes(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 1000.0)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	frustum := ExtractFrustum(proj.Mul4(view))

	inFront := boxAt(mgl32.Vec3{0, 0, -5}, 1)
	farRight := boxAt(mgl32.Vec3{100, 0, -5}, 1)
	behind := boxAt(mgl32.Vec3{0, 0, 5}, 1)

	if !frustum.Visible(inFront) {
		t.Error("box in front of camera should be visible")
	}
	if frustum.Visible(farRight) {
		t.Error("box at x=100 should be culled")
	}
	if frustum.Visible(behind) {
		t.Error("box behind camera should be culled")
	}
}

func TestFrustumOrtho(t *testing.T) {
	// Ortho(left, right, bottom, top, near, far)
	proj := mgl32.Ortho(-10, 10, -10, 10, 0, 20)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	frustum := ExtractFrustum(proj.Mul4(view))

	// AABB at 0,0,-5 should be inside
	if !frustum.Visible(AABB{Min: mgl32.Vec3{-1, -1, -6}, Max: mgl32.Vec3{1, 1, -4}}) {
		t.Error("Ortho: AABB should be inside")
	}

	// View looks down -Z, so Near=0 => Z=0 and Far=20 => Z=-20.
	// A box around -25 is beyond the far plane.
	if frustum.Visible(AABB{Min: mgl32.Vec3{-1, -1, -26}, Max: mgl32.Vec3{1, 1, -24}}) {
		t.Error("Ortho: AABB at -25 should be outside (Far=20 => Z=-20)")
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(75), 1.5, 0.5, 500.0)
	view := mgl32.LookAtV(mgl32.Vec3{3, 4, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	frustum := ExtractFrustum(proj.Mul4(view))

	for i, p := range frustum {
		n := p.Vec3().Len()
		if n < 0.999 || n > 1.001 {
			t.Errorf("plane %d normal length = %f, want 1", i, n)
		}
	}
}
