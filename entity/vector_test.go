package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

// TestVectorArithmetic verifies subtraction, cross product and length.
func TestVectorArithmetic(t *testing.T) {
	a := Vector{X: 1, Y: 2, Z: 3}
	b := Vector{X: 4, Y: 6, Z: 8}

	assert.Equal(t, Vector{X: 3, Y: 4, Z: 5}, b.Sub(a))
	assert.Equal(t, Vector{X: 0, Y: 0, Z: 1}, Vector{X: 1}.Cross(Vector{Y: 1}))
	assert.InDelta(t, 5.0, Vector{X: 3, Y: 4}.Length(), epsilon)
	assert.Equal(t, 20.0, a.Dot(Vector{X: 2, Y: 3, Z: 4}))
}

// TestVectorUnit verifies normalization and the zero vector case.
func TestVectorUnit(t *testing.T) {
	u := Vector{X: 3, Y: 4}.Unit()
	assert.InDelta(t, 0.6, u.X, epsilon)
	assert.InDelta(t, 0.8, u.Y, epsilon)
	assert.InDelta(t, 1.0, u.Length(), epsilon)

	assert.Equal(t, Vector{}, Vector{}.Unit())
}

// TestVectorEqualAndZero verifies equality helpers.
func TestVectorEqualAndZero(t *testing.T) {
	assert.True(t, Vector{X: 1, Y: 2, Z: 3}.Equal(Vector{X: 1, Y: 2, Z: 3}))
	assert.False(t, Vector{X: 1}.Equal(Vector{Y: 1}))
	assert.True(t, Vector{}.IsZero())
	assert.False(t, Vector{Z: -0.5}.IsZero())
	assert.Equal(t, "(1, 2.5, -3)", Vector{X: 1, Y: 2.5, Z: -3}.String())
}

// TestToOpenAL verifies only the z axis is flipped.
func TestToOpenAL(t *testing.T) {
	assert.Equal(t, Vector{X: 1, Y: 2, Z: -3}, ToOpenAL(Vector{X: 1, Y: 2, Z: 3}))
	v := Vector{X: -4, Y: 5, Z: 6}
	assert.Equal(t, v, ToOpenAL(ToOpenAL(v)))
}

// TestUpVectorPerpendicularUnit verifies the up vector is a unit vector
// perpendicular to forward for non-vertical directions.
func TestUpVectorPerpendicularUnit(t *testing.T) {
	forwards := []Vector{
		{X: 1},
		{Z: 1},
		{X: -1, Y: 0.5, Z: 2},
		{X: 0.001, Y: -10, Z: 0},
		{X: 3, Y: 4, Z: -5},
	}
	for _, f := range forwards {
		up, ok := UpVector(f)
		require.True(t, ok, "forward %s", f)
		assert.InDelta(t, 1.0, up.Length(), epsilon, "forward %s", f)
		assert.InDelta(t, 0.0, up.Dot(f), epsilon, "forward %s", f)
	}
}

// TestUpVectorLevelForwardPointsUp verifies a horizontal forward gives +y.
func TestUpVectorLevelForwardPointsUp(t *testing.T) {
	up, ok := UpVector(Vector{Z: 1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, up.X, epsilon)
	assert.InDelta(t, 1.0, math.Abs(up.Y), epsilon)
	assert.InDelta(t, 0.0, up.Z, epsilon)
}

// TestUpVectorVertical verifies the degenerate vertical case is rejected.
func TestUpVectorVertical(t *testing.T) {
	for _, f := range []Vector{{Y: 1}, {Y: -1}, {}} {
		_, ok := UpVector(f)
		assert.False(t, ok, "forward %s", f)
	}
}

// TestVolumeModifierToGain verifies unity and that gain decreases
// monotonically as the modifier attenuates.
func TestVolumeModifierToGain(t *testing.T) {
	assert.Equal(t, 1.0, VolumeModifierToGain(0))
	assert.InDelta(t, 0.5, VolumeModifierToGain(-6), epsilon)
	assert.InDelta(t, 2.0, VolumeModifierToGain(6), epsilon)

	previous := math.Inf(1)
	for m := 60.0; m >= -60.0; m -= 0.5 {
		gain := VolumeModifierToGain(m)
		assert.Less(t, gain, previous, "modifier %v", m)
		previous = gain
	}
}
