// Package entity holds the value types shared between the game-data,
// use-case and audio layers: world vectors, users and the camera.
//
// Game world coordinates are right-handed. OpenAL uses a left-handed
// convention with the same x and y axes and a negated z axis; ToOpenAL is
// the single place where that conversion happens.
package entity

import (
	"fmt"
	"math"
)

// Vector is a 3D vector in world space.
type Vector struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Cross returns the cross product v x o.
func (v Vector) Cross(o Vector) Vector {
	return Vector{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Dot returns the dot product of v and o.
func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Length returns the euclidean length of v.
func (v Vector) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v scaled to unit length. The zero vector is returned as is.
func (v Vector) Unit() Vector {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vector{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// Equal reports whether v and o are component-wise equal.
func (v Vector) Equal(o Vector) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// IsZero reports whether all components are zero.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func (v Vector) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// ToOpenAL converts a game world vector into OpenAL coordinates.
func ToOpenAL(v Vector) Vector {
	return Vector{X: v.X, Y: v.Y, Z: -v.Z}
}

// UpVector derives the camera up vector from a forward vector.
// It returns false for a vertical forward vector (x and z both zero), in
// which case the camera orientation must be left unchanged.
func UpVector(forward Vector) (Vector, bool) {
	if forward.X == 0 && forward.Z == 0 {
		return Vector{}, false
	}
	side := Vector{X: forward.Z, Y: 0, Z: -forward.X}
	return forward.Cross(side).Unit(), true
}

// VolumeModifierToGain converts the chat client's volume modifier, in 6 dB
// steps where 0 is unity, into a linear gain.
func VolumeModifierToGain(modifier float64) float64 {
	return 1 / math.Pow(2, modifier/-6)
}
