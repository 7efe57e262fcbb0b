package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrowCapacity(t *testing.T) {
	tests := []struct {
		name    string
		current uint32
		needed  uint32
		factor  uint32
		want    uint32
	}{
		{"no growth needed", 1024, 1000, 2, 1024},
		{"exact fit", 1024, 1024, 2, 1024},
		{"double once", 1024, 1025, 2, 2048},
		{"double repeatedly", 16, 1000, 2, 1024},
		{"from zero", 0, 3, 2, 4},
		{"factor four", 10, 100, 4, 160},
		{"degenerate factor clamps to two", 16, 17, 0, 32},
		{"factor one clamps to two", 16, 17, 1, 32},
	}

	for _, tc := range tests {
		got := GrowCapacity(tc.current, tc.needed, tc.factor)
		assert.Equal(t, tc.want, got, tc.name)
		assert.GreaterOrEqual(t, got, tc.needed, tc.name)
	}
}
