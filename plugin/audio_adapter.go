package plugin

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/backend"
	"github.com/tessumod/tsplugin/entity"
)

// AudioAdapter drives one backend from user and camera entities. The
// backend is enabled while it has users to position.
type AudioAdapter struct {
	mu      sync.Mutex
	driver  backend.Driver
	userIDs map[uint16]struct{}
	camera  entity.Camera
}

// NewAudioAdapter creates an adapter for driver.
func NewAudioAdapter(driver backend.Driver) *AudioAdapter {
	return &AudioAdapter{
		driver:  driver,
		userIDs: make(map[uint16]struct{}),
	}
}

// Driver returns the adapted backend.
func (a *AudioAdapter) Driver() backend.Driver {
	return a.driver
}

// SetEnabled enables or disables the backend.
func (a *AudioAdapter) SetEnabled(enabled bool) {
	a.driver.SetEnabled(enabled)
}

// PositionUser positions user, enabling the backend first if needed.
func (a *AudioAdapter) PositionUser(user entity.User) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.userIDs[user.ID] = struct{}{}
	if !a.driver.IsEnabled() {
		a.driver.SetEnabled(true)
		a.applyCamera()
	}
	a.driver.PositionUser(user.ID, user.Position)
}

// RemoveUser removes user and disables the backend once no user is left.
func (a *AudioAdapter) RemoveUser(user entity.User) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.userIDs, user.ID)
	a.driver.RemoveUser(user.ID)
	if len(a.userIDs) == 0 && a.driver.IsEnabled() {
		a.driver.SetEnabled(false)
	}
}

// PositionCamera orients the listener along the camera direction. The
// camera is remembered while the backend is disabled. Cameras looking
// straight up or down are skipped.
func (a *AudioAdapter) PositionCamera(camera entity.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.camera = camera
	if a.driver.IsEnabled() {
		a.applyCamera()
	}
}

func (a *AudioAdapter) applyCamera() {
	up, ok := entity.UpVector(a.camera.Direction)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function":  "AudioAdapter.applyCamera",
			"direction": a.camera.Direction.String(),
		}).Debug("Cannot derive up vector, skipping camera")
		return
	}
	a.driver.PositionCamera(a.camera.Position, a.camera.Direction, up)
}

// SetPlaybackDeviceName forwards the playback device.
func (a *AudioAdapter) SetPlaybackDeviceName(name string) {
	a.driver.SetPlaybackDeviceName(name)
}

// SetPlaybackVolume forwards the playback volume.
func (a *AudioAdapter) SetPlaybackVolume(volume float64) {
	a.driver.SetPlaybackVolume(volume)
}

// SetHrtf forwards the HRTF settings.
func (a *AudioAdapter) SetHrtf(enabled bool, dataSet string) {
	a.driver.SetHrtfEnabled(enabled)
	a.driver.SetHrtfDataSet(dataSet)
}

// Reset disables the backend and forgets every user and the camera.
func (a *AudioAdapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.driver.IsEnabled() {
		a.driver.SetEnabled(false)
	}
	a.userIDs = make(map[uint16]struct{})
	a.camera = entity.Camera{}
	a.driver.RemoveAllUsers()
	a.driver.PositionCamera(entity.Vector{}, entity.Vector{}, entity.Vector{})
}
