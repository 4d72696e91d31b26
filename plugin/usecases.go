package plugin

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/backend"
	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/settings"
)

// UseCases pairs game players with voice-chat users and positions the
// paired ones through the selected audio backend.
//
// A user is paired when it is both in the game and in the chat. Only
// paired users reach a backend.
type UseCases struct {
	mu         sync.Mutex
	chat       VoiceChat
	store      SettingsStore
	adapters   map[settings.Backend]*AudioAdapter
	testDriver backend.Driver
	users      map[uint16]entity.User
	camera     entity.Camera
}

// NewUseCases creates the use cases. testDriver, which plays the test
// sound, may be nil.
func NewUseCases(chat VoiceChat, store SettingsStore, adapters map[settings.Backend]*AudioAdapter, testDriver backend.Driver) *UseCases {
	return &UseCases{
		chat:       chat,
		store:      store,
		adapters:   adapters,
		testDriver: testDriver,
		users:      make(map[uint16]entity.User),
	}
}

// active returns the adapter of the selected backend, or nil while
// positional audio is off.
func (u *UseCases) active() *AudioAdapter {
	s := u.store.Get()
	if !s.Positional {
		return nil
	}
	return u.adapters[s.Backend]
}

// Initialize pushes the playback settings and enables the selected
// backend when positional audio is on.
func (u *UseCases) Initialize() {
	u.mu.Lock()
	defer u.mu.Unlock()

	s := u.store.Get()
	logrus.WithFields(logrus.Fields{
		"function":   "UseCases.Initialize",
		"backend":    s.Backend,
		"positional": s.Positional,
	}).Info("Initializing positional audio")

	u.applyHrtf(s)
	if !s.Positional {
		return
	}
	u.updatePlaybackDevice()
	u.updatePlaybackVolume()
	if adapter := u.adapters[s.Backend]; adapter != nil {
		adapter.SetEnabled(true)
	}
}

// PositionUser moves a known user.
func (u *UseCases) PositionUser(id uint16, position entity.Vector) {
	u.mu.Lock()
	defer u.mu.Unlock()

	user, ok := u.users[id]
	if !ok {
		return
	}
	user.Position = position
	u.users[id] = user
	u.positionToBackend(user)
}

// PositionCamera moves the camera.
func (u *UseCases) PositionCamera(position, direction entity.Vector) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.camera = entity.Camera{Position: position, Direction: direction}
	if adapter := u.active(); adapter != nil {
		adapter.PositionCamera(u.camera)
	}
}

// AddGameUser marks a player as in game. The local user is ignored.
func (u *UseCases) AddGameUser(id uint16) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.chat.MyUserID() == id {
		return
	}
	user := u.user(id)
	user.InGame = true
	u.users[id] = user
	u.positionToBackend(user)
}

// RemoveGameUser marks a player as no longer in game.
func (u *UseCases) RemoveGameUser(id uint16) {
	u.mu.Lock()
	defer u.mu.Unlock()

	user, ok := u.users[id]
	if !ok {
		return
	}
	u.removeFromBackend(user)
	user.InGame = false
	u.keep(user)
}

// AddChatUser marks a voice-chat user as present.
func (u *UseCases) AddChatUser(id uint16) {
	u.mu.Lock()
	defer u.mu.Unlock()

	user := u.user(id)
	user.InChat = true
	u.users[id] = user
	u.positionToBackend(user)
}

// RemoveChatUser marks a voice-chat user as gone.
func (u *UseCases) RemoveChatUser(id uint16) {
	u.mu.Lock()
	defer u.mu.Unlock()

	user, ok := u.users[id]
	if !ok {
		return
	}
	u.removeFromBackend(user)
	user.InChat = false
	u.keep(user)
}

// ChangePlaybackDevice pushes the chat client's playback device to every
// backend.
func (u *UseCases) ChangePlaybackDevice() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updatePlaybackDevice()
}

// ChangePlaybackVolume pushes the chat client's playback volume to every
// backend.
func (u *UseCases) ChangePlaybackVolume() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updatePlaybackVolume()
}

// SaveSettings persists s and switches backends accordingly. Paired users
// and the camera move to a newly selected backend.
func (u *UseCases) SaveSettings(s settings.Settings) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	original := u.store.Get()
	if err := u.store.Save(s); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function":        "UseCases.SaveSettings",
		"backend":         s.Backend,
		"positional":      s.Positional,
		"previous":        original.Backend,
		"prev_positional": original.Positional,
	}).Info("Settings changed")

	u.applyHrtf(s)

	switched := original.Backend != s.Backend || original.Positional != s.Positional
	if original.Positional && switched {
		if adapter := u.adapters[original.Backend]; adapter != nil {
			adapter.Reset()
		}
	}
	if !s.Positional {
		return nil
	}

	adapter := u.adapters[s.Backend]
	if adapter == nil {
		return nil
	}
	if switched {
		u.updatePlaybackDevice()
		u.updatePlaybackVolume()
	}
	adapter.SetEnabled(true)
	if switched {
		adapter.PositionCamera(u.camera)
		for _, id := range u.sortedUserIDs() {
			if user := u.users[id]; user.Paired() {
				adapter.PositionUser(user)
			}
		}
	}
	return nil
}

// OnEditPlaybackVoiceData hands voice data to the selected backend when
// it renders voice itself.
func (u *UseCases) OnEditPlaybackVoiceData(id uint16, samples []int16, channels int) {
	u.mu.Lock()
	adapter := u.active()
	u.mu.Unlock()

	if adapter == nil {
		return
	}
	if sink, ok := adapter.Driver().(backend.VoiceSink); ok {
		sink.OnEditPlaybackVoiceData(id, samples, channels)
	}
}

// User returns the known state of a user.
func (u *UseCases) User(id uint16) (entity.User, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	return user, ok
}

func (u *UseCases) user(id uint16) entity.User {
	if user, ok := u.users[id]; ok {
		return user
	}
	return entity.User{ID: id}
}

// keep stores user while it is in the game or the chat.
func (u *UseCases) keep(user entity.User) {
	if user.Exists() {
		u.users[user.ID] = user
		return
	}
	delete(u.users, user.ID)
}

func (u *UseCases) positionToBackend(user entity.User) {
	if !user.Paired() {
		return
	}
	if adapter := u.active(); adapter != nil {
		adapter.PositionUser(user)
	}
}

func (u *UseCases) removeFromBackend(user entity.User) {
	if !user.Paired() {
		return
	}
	if adapter := u.active(); adapter != nil {
		adapter.RemoveUser(user)
	}
}

func (u *UseCases) updatePlaybackDevice() {
	name := u.chat.PlaybackDeviceName()
	for _, adapter := range u.adapters {
		adapter.SetPlaybackDeviceName(name)
	}
	if u.testDriver != nil {
		u.testDriver.SetPlaybackDeviceName(name)
	}
}

func (u *UseCases) updatePlaybackVolume() {
	volume := u.chat.PlaybackVolume()
	for _, adapter := range u.adapters {
		adapter.SetPlaybackVolume(volume)
	}
	if u.testDriver != nil {
		u.testDriver.SetPlaybackVolume(volume)
	}
}

func (u *UseCases) applyHrtf(s settings.Settings) {
	for _, adapter := range u.adapters {
		adapter.SetHrtf(s.HrtfEnabled, s.HrtfDataSet)
	}
	if u.testDriver != nil {
		u.testDriver.SetHrtfEnabled(s.HrtfEnabled)
		u.testDriver.SetHrtfDataSet(s.HrtfDataSet)
	}
}

func (u *UseCases) sortedUserIDs() []uint16 {
	ids := make([]uint16, 0, len(u.users))
	for id := range u.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var (
	_ GameEvents     = (*UseCases)(nil)
	_ PlaybackEvents = (*UseCases)(nil)
)
