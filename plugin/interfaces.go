// Package plugin wires game data, the voice-chat client and the audio
// backends into the positional audio plugin.
package plugin

import (
	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/settings"
)

// VoiceChat is the state of the voice-chat client the plugin reads.
type VoiceChat interface {
	MyUserID() uint16
	// PlaybackDeviceName returns the playback device, falling back to the
	// client's default device.
	PlaybackDeviceName() string
	// PlaybackVolume returns the playback volume modifier in dB.
	PlaybackVolume() float64
}

// SettingsStore holds the persisted settings.
type SettingsStore interface {
	Get() settings.Settings
	Save(settings.Settings) error
}

// GameEvents receives the game side of the use cases.
type GameEvents interface {
	AddGameUser(id uint16)
	RemoveGameUser(id uint16)
	PositionUser(id uint16, position entity.Vector)
	PositionCamera(position, direction entity.Vector)
}

// PlaybackEvents receives playback setting changes of the voice-chat
// client.
type PlaybackEvents interface {
	ChangePlaybackDevice()
	ChangePlaybackVolume()
}
