package adc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSourceStaysNormalized(t *testing.T) {
	// Large amperage on a small sensor range: the raw sine exceeds the
	// supply rails, the mock must still clamp to [0,1].
	src := NewMockSource(3.3, 2.5, 185.0, 30.0)

	for i := 0; i < 200; i++ {
		sample, err := src.Read()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sample, 0.0)
		assert.LessOrEqual(t, sample, 1.0)
	}
}

func TestMockSourceIdleSitsOnMidpoint(t *testing.T) {
	src := NewMockSource(3.3, 2.5, 100.0, 0.0)

	sample, err := src.Read()
	require.NoError(t, err)
	assert.InDelta(t, 2.5/3.3, sample, 1e-9)
}
