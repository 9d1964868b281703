package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubtractiveSource_MatchesReferenceSequence(t *testing.T) {
	tests := []struct {
		seed     int32
		expected []int32
	}{
		{0, []int32{1559595546, 1755192844, 1649316166}},
		{42, []int32{1434747710, 302596119, 269548474}},
	}
	for _, tt := range tests {
		source := NewSubtractiveSource(tt.seed)
		for i, want := range tt.expected {
			assert.Equal(t, want, source.internalSample(), "seed %d draw %d", tt.seed, i)
		}
	}
}

func TestSubtractiveSource_NextDouble(t *testing.T) {
	source := NewSubtractiveSource(42)
	assert.InDelta(t, 0.668106465911542, source.NextDouble(), 1e-15)
}

func TestSubtractiveSource_NegativeSeedsMirrorPositive(t *testing.T) {
	a := NewSubtractiveSource(-1234)
	b := NewSubtractiveSource(1234)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.internalSample(), b.internalSample())
	}

	// MinInt32 has no positive counterpart and maps to MaxInt32
	c := NewSubtractiveSource(math.MinInt32)
	d := NewSubtractiveSource(math.MaxInt32)
	for i := 0; i < 100; i++ {
		assert.Equal(t, c.internalSample(), d.internalSample())
	}
}

func TestSubtractiveSource_Ranges(t *testing.T) {
	source := NewSubtractiveSource(7)
	for i := 0; i < 10000; i++ {
		v := source.NextDouble()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)

		n := source.Next(11)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 11)
	}
	assert.Equal(t, 0, source.Next(0))
	assert.Equal(t, 0, source.Next(-5))
}
