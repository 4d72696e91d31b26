package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessumod/tsplugin/backend"
	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/plugin"
	"github.com/tessumod/tsplugin/settings"
)

// TestResultCode verifies every sentinel maps to its C result.
func TestResultCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, resultOK},
		{plugin.ErrNotStarted, resultNotStarted},
		{plugin.ErrAlreadyStarted, resultAlreadyStarted},
		{plugin.ErrTestSoundRunning, resultTestSoundRunning},
		{fmt.Errorf("play: %w", backend.ErrTestSoundPlaying), resultTestSoundRunning},
		{backend.ErrBackendDisabled, resultBackendDisabled},
		{settings.ErrUnknownBackend, resultInvalidArgument},
		{errors.New("boom"), resultFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resultCode(tt.err), "%v", tt.err)
	}
}

// TestRecoverPanic verifies a panic stops at the export boundary.
func TestRecoverPanic(t *testing.T) {
	result := 0
	assert.NotPanics(t, func() {
		func() {
			defer recoverPanic("test")
			result = 1
			panic("bad state")
		}()
	})
	assert.Equal(t, 1, result)
}

// TestChatState verifies the values pushed in are reported back.
func TestChatState(t *testing.T) {
	c := &chatState{}
	c.setMyUserID(7)
	c.setDevice("Headphones")
	c.setVolume(-6)

	assert.Equal(t, uint16(7), c.MyUserID())
	assert.Equal(t, "Headphones", c.PlaybackDeviceName())
	assert.Equal(t, -6.0, c.PlaybackVolume())
}

// TestHostCallbacks verifies forwarding and failure reporting.
func TestHostCallbacks(t *testing.T) {
	h := &hostCallbacks{}
	assert.ErrorIs(t, h.Set3DAttributes(1, entity.Vector{}), ErrNoHostCallback)
	assert.ErrorIs(t, h.SetListener3DAttributes(entity.Vector{}, entity.Vector{}, entity.Vector{}), ErrNoHostCallback)

	var gotID uint16
	var gotPos entity.Vector
	h.register3D(func(id uint16, p entity.Vector) int {
		gotID, gotPos = id, p
		return 0
	})
	require.NoError(t, h.Set3DAttributes(4, entity.Vector{X: 1, Y: 2, Z: 3}))
	assert.Equal(t, uint16(4), gotID)
	assert.Equal(t, entity.Vector{X: 1, Y: 2, Z: 3}, gotPos)

	h.registerListener(func(p, f, u entity.Vector) int { return 2 })
	err := h.SetListener3DAttributes(entity.Vector{}, entity.Vector{Z: 1}, entity.Vector{Y: 1})
	assert.ErrorIs(t, err, ErrHostCallback)

	h.register3D(nil)
	assert.ErrorIs(t, h.Set3DAttributes(1, entity.Vector{}), ErrNoHostCallback)
}

// TestHostCallbacksDriveBuiltIn verifies the built-in backend reaches the
// registered callbacks.
func TestHostCallbacksDriveBuiltIn(t *testing.T) {
	h := &hostCallbacks{}
	positions := make(map[uint16]entity.Vector)
	h.register3D(func(id uint16, p entity.Vector) int {
		positions[id] = p
		return 0
	})
	h.registerListener(func(p, f, u entity.Vector) int { return 0 })

	b := backend.NewBuiltInBackend(h)
	b.SetEnabled(true)
	b.PositionCamera(entity.Vector{X: 1}, entity.Vector{Z: 1}, entity.Vector{Y: 1})
	b.PositionUser(3, entity.Vector{X: 4})

	assert.Equal(t, entity.Vector{X: 3}, positions[3])
}

// TestParseSettings verifies dialog values become settings.
func TestParseSettings(t *testing.T) {
	s, err := parseSettings("builtin", true, true, "kemar-%r.mhr", 3)
	require.NoError(t, err)
	assert.Equal(t, settings.Settings{
		Backend:     settings.BackendBuiltIn,
		Positional:  true,
		HrtfEnabled: true,
		HrtfDataSet: "kemar-%r.mhr",
		LogLevel:    3,
	}, s)

	_, err = parseSettings("fmod", true, false, "", 1)
	assert.ErrorIs(t, err, settings.ErrUnknownBackend)
	assert.Equal(t, resultInvalidArgument, resultCode(err))
}

// TestJoinDataSets verifies the C list format.
func TestJoinDataSets(t *testing.T) {
	assert.Equal(t, "", joinDataSets(nil))
	assert.Equal(t, "a.mhr\nb.mhr", joinDataSets([]string{"a.mhr", "b.mhr"}))
}
