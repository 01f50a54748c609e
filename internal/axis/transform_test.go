package axis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n, scale := Normalize(0, -100, 100)
	assert.InDelta(t, 0, n, 1e-9)
	assert.InDelta(t, 100, scale, 1e-9)

	n, _ = Normalize(100, -100, 100)
	assert.InDelta(t, 1, n, 1e-9)

	n, _ = Normalize(-100, -100, 100)
	assert.InDelta(t, -1, n, 1e-9)
}

func TestNormalizeZeroRange(t *testing.T) {
	n, scale := Normalize(5, 5, 5)
	assert.Zero(t, n)
	assert.Zero(t, scale)
}

func TestCubicExpoZeroIsIdentity(t *testing.T) {
	y, err := CubicExpo(0.42, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, y, 1e-9)
}

func TestCubicExpoPositiveKCompressesNearZero(t *testing.T) {
	y, err := CubicExpo(0.1, 1)
	require.NoError(t, err)
	assert.Less(t, math.Abs(y), 0.1)
}

func TestCubicExpoNegativeKIsInverseOfPositive(t *testing.T) {
	x := 0.37
	shaped, err := CubicExpo(x, 0.6)
	require.NoError(t, err)
	recovered, err := CubicExpo(shaped, -0.6)
	require.NoError(t, err)
	assert.InDelta(t, x, recovered, 1e-6)
}

func TestCubicExpoRejectsOutOfRange(t *testing.T) {
	_, err := CubicExpo(0.5, 1.5)
	assert.Error(t, err)
	_, err = CubicExpo(0.5, -1.5)
	assert.Error(t, err)
}

func TestInDeadzone(t *testing.T) {
	assert.True(t, InDeadzone(0.05, 0.1))
	assert.False(t, InDeadzone(0.2, 0.1))
}
