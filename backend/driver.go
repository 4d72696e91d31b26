// Package backend implements the audio session facade: one operation set
// for positioning voice-chat users around the listener, backed either by
// the chat client's built-in spatializer or by an OpenAL output graph.
package backend

import "github.com/tessumod/tsplugin/entity"

// Driver is the operation set shared by every audio backend.
//
// Implementations never return native audio failures from the
// positioning calls. Failures are logged and the call returns normally.
type Driver interface {
	SetEnabled(enabled bool)
	IsEnabled() bool

	RemoveUser(id uint16)
	RemoveAllUsers()
	PositionUser(id uint16, position entity.Vector)
	PositionCamera(position, forward, up entity.Vector)

	SetPlaybackDeviceName(name string)
	SetPlaybackVolume(volume float64)
	SetHrtfEnabled(enabled bool)
	SetHrtfDataSet(name string)
	HrtfDataSets() []string

	PlayTestSound(path string) error
	PositionTestSound(position entity.Vector)
	StopTestSound()

	// Reset drops all native state and re-applies the stored state when
	// enabled.
	Reset()
}

// VoiceSink receives decoded voice data before the chat client mixes it.
// samples holds count*channels interleaved values and may be overwritten
// in place.
type VoiceSink interface {
	OnEditPlaybackVoiceData(id uint16, samples []int16, channels int)
}
