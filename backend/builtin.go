package backend

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/entity"
)

// Host is the chat client's built-in 3D audio API.
type Host interface {
	Set3DAttributes(id uint16, position entity.Vector) error
	SetListener3DAttributes(position, forward, up entity.Vector) error
}

// BuiltInBackend positions users through the chat client's own
// spatializer. The listener stays at the origin and users are placed
// relative to the camera position.
type BuiltInBackend struct {
	mu      sync.Mutex
	host    Host
	enabled bool
	users   map[uint16]entity.Vector
	origin  entity.Vector
}

// NewBuiltInBackend creates a disabled backend over host.
func NewBuiltInBackend(host Host) *BuiltInBackend {
	return &BuiltInBackend{
		host:  host,
		users: make(map[uint16]entity.Vector),
	}
}

// SetEnabled toggles whether rolloff events are answered.
func (b *BuiltInBackend) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// IsEnabled reports the enabled flag.
func (b *BuiltInBackend) IsEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// RemoveUser forgets a user and moves it back onto the listener.
func (b *BuiltInBackend) RemoveUser(id uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "RemoveUser",
		"user_id":  id,
	}).Debug("Removing user")

	delete(b.users, id)
	b.set3D("RemoveUser", id, entity.Vector{})
}

// RemoveAllUsers removes every known user.
func (b *BuiltInBackend) RemoveAllUsers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id := range b.users {
		delete(b.users, id)
		b.set3D("RemoveAllUsers", id, entity.Vector{})
	}
}

// PositionUser places a user relative to the camera.
func (b *BuiltInBackend) PositionUser(id uint16, position entity.Vector) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.users[id] = position
	b.set3D("PositionUser", id, position.Sub(b.origin))
}

// PositionCamera moves the origin, repositions every user and orients the
// listener.
func (b *BuiltInBackend) PositionCamera(position, forward, up entity.Vector) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.origin = position
	for id, p := range b.users {
		b.set3D("PositionCamera", id, p.Sub(b.origin))
	}
	if err := b.host.SetListener3DAttributes(entity.Vector{}, forward, up); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "PositionCamera",
			"error":    err.Error(),
		}).Warn("Failed to set listener attributes")
	}
}

func (b *BuiltInBackend) set3D(function string, id uint16, position entity.Vector) {
	if err := b.host.Set3DAttributes(id, position); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": function,
			"user_id":  id,
			"error":    err.Error(),
		}).Warn("Failed to set client 3D attributes")
	}
}

// Custom3DRolloff answers the client's rolloff event for a speaker. It
// returns volume 1.0 and true for known users while enabled.
func (b *BuiltInBackend) Custom3DRolloff(id uint16) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.users[id]; b.enabled && ok {
		return 1.0, true
	}
	return 0, false
}

// Custom3DWaveRolloff answers the rolloff event for a wave handle.
func (b *BuiltInBackend) Custom3DWaveRolloff() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.enabled {
		return 1.0, true
	}
	return 0, false
}

// The built-in spatializer has no device, volume or HRTF settings of its
// own and no test sound support.

func (b *BuiltInBackend) SetPlaybackDeviceName(string)    {}
func (b *BuiltInBackend) SetPlaybackVolume(float64)       {}
func (b *BuiltInBackend) SetHrtfEnabled(bool)             {}
func (b *BuiltInBackend) SetHrtfDataSet(string)           {}
func (b *BuiltInBackend) HrtfDataSets() []string          { return nil }
func (b *BuiltInBackend) PositionTestSound(entity.Vector) {}
func (b *BuiltInBackend) StopTestSound()                  {}

// PlayTestSound is unsupported and reports ErrBackendDisabled.
func (b *BuiltInBackend) PlayTestSound(string) error { return ErrBackendDisabled }

// Reset re-sends every user position. The listener follows on the next
// camera update.
func (b *BuiltInBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, p := range b.users {
		b.set3D("Reset", id, p.Sub(b.origin))
	}
}

var _ Driver = (*BuiltInBackend)(nil)
