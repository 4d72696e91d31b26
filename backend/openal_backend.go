package backend

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/logging"
	"github.com/tessumod/tsplugin/openal"
)

const (
	// SampleRate is the rate of every OpenAL output and voice buffer.
	SampleRate = 48000

	// TestSoundSourceID identifies the test sound source. It lies outside
	// the 16-bit client id space.
	TestSoundSourceID = 1 << 16
)

// Paths locates the files the OpenAL backend reads and writes.
type Paths struct {
	// ConfigFile is the alsoft.ini file OpenAL Soft reads on load.
	ConfigFile string
	// HrtfDirs are searched for *.mhr data sets.
	HrtfDirs []string
}

type cameraState struct {
	position entity.Vector
	forward  entity.Vector
	up       entity.Vector
}

// OpenALBackend renders positioned voice through its own OpenAL device.
//
// Settings are applied lazily: setters store the value and the next call
// touching native state derives its descriptors from it.
type OpenALBackend struct {
	mu     sync.Mutex
	engine *openal.Engine
	paths  Paths

	enabled       bool
	users         map[uint16]entity.Vector
	camera        cameraState
	deviceName    string
	volume        float64
	hrtfEnabled   bool
	hrtfDataSet   string
	listenerDirty bool

	testPlaying  bool
	testPosition entity.Vector
}

// NewOpenALBackend creates a disabled backend over binding.
func NewOpenALBackend(binding openal.Binding, paths Paths) *OpenALBackend {
	return &OpenALBackend{
		engine:        openal.NewEngine(binding),
		paths:         paths,
		users:         make(map[uint16]entity.Vector),
		listenerDirty: true,
	}
}

func (b *OpenALBackend) output() openal.OutputInfo {
	return openal.OutputInfo{
		DeviceName:  b.deviceName,
		SampleRate:  SampleRate,
		HrtfEnabled: b.hrtfEnabled,
	}
}

func (b *OpenALBackend) listener() openal.ListenerInfo {
	return openal.ListenerInfo{
		Output:   b.output(),
		Forward:  entity.ToOpenAL(b.camera.forward),
		Up:       entity.ToOpenAL(b.camera.up),
		Position: entity.ToOpenAL(b.camera.position),
		Gain:     entity.VolumeModifierToGain(b.volume),
	}
}

func (b *OpenALBackend) userSource(id uint16, position entity.Vector) openal.SourceInfo {
	return openal.SourceInfo{
		Output:    b.output(),
		ID:        uint32(id),
		Position:  entity.ToOpenAL(position),
		Streaming: true,
	}
}

func (b *OpenALBackend) testSource() openal.SourceInfo {
	return openal.SourceInfo{
		Output:   b.output(),
		ID:       TestSoundSourceID,
		Position: entity.ToOpenAL(b.testPosition),
		Relative: true,
	}
}

func (b *OpenALBackend) syncListener() error {
	if !b.listenerDirty {
		return nil
	}
	if err := b.engine.UpdateListener(b.listener()); err != nil {
		return err
	}
	b.listenerDirty = false
	return nil
}

// applyAll pushes the listener and every user to native state. The first
// error aborts.
func (b *OpenALBackend) applyAll() error {
	b.listenerDirty = true
	if err := b.syncListener(); err != nil {
		return err
	}
	for id, position := range b.users {
		if err := b.engine.UpdateSource(b.userSource(id, position)); err != nil {
			return err
		}
	}
	return nil
}

// enable applies the stored state. A library that cannot be loaded leaves
// the backend disabled.
func (b *OpenALBackend) enable(operation string) {
	b.enabled = true
	err := b.applyAll()
	if err == nil {
		return
	}
	logrus.WithFields(logrus.Fields{
		"function":  operation,
		"device":    b.deviceName,
		"operation": "apply state",
		"error":     err.Error(),
	}).Error("Failed to enable OpenAL output")

	if errors.Is(err, openal.ErrLibLoad) {
		b.enabled = false
		b.engine.Reset()
	}
}

func (b *OpenALBackend) logFailure(function, operation string, err error, fields logrus.Fields) {
	logging.NewLogger("backend", function).
		WithError(err, operation).
		WithFields(fields).
		Warn("OpenAL call failed")
}

// SetEnabled opens or releases the OpenAL output.
func (b *OpenALBackend) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SetEnabled",
		"enabled":  enabled,
		"previous": b.enabled,
	}).Debug("Changing OpenAL backend state")

	if enabled == b.enabled {
		return
	}
	if enabled {
		b.enable("SetEnabled")
		return
	}
	b.enabled = false
	b.testPlaying = false
	b.engine.Reset()
}

// IsEnabled reports whether the backend renders audio.
func (b *OpenALBackend) IsEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// RemoveUser forgets a user and releases its source.
func (b *OpenALBackend) RemoveUser(id uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "RemoveUser",
		"user_id":  id,
	}).Debug("Removing user")

	delete(b.users, id)
	if b.enabled {
		b.engine.ReleaseSource(uint32(id))
	}
}

// RemoveAllUsers forgets every user.
func (b *OpenALBackend) RemoveAllUsers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id := range b.users {
		delete(b.users, id)
		if b.enabled {
			b.engine.ReleaseSource(uint32(id))
		}
	}
}

// PositionUser stores a user's world position and moves its source.
func (b *OpenALBackend) PositionUser(id uint16, position entity.Vector) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.users[id] = position
	if !b.enabled {
		return
	}
	if err := b.syncListener(); err != nil {
		b.logFailure("PositionUser", "update listener", err, nil)
		return
	}
	if err := b.engine.UpdateSource(b.userSource(id, position)); err != nil {
		b.logFailure("PositionUser", "update source", err, logrus.Fields{"user_id": id})
	}
}

// PositionCamera moves the listener.
func (b *OpenALBackend) PositionCamera(position, forward, up entity.Vector) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.camera = cameraState{position: position, forward: forward, up: up}
	b.listenerDirty = true
	if !b.enabled {
		return
	}
	if err := b.syncListener(); err != nil {
		b.logFailure("PositionCamera", "update listener", err, nil)
	}
}

// SetPlaybackDeviceName selects the output device, "" for the default.
func (b *OpenALBackend) SetPlaybackDeviceName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deviceName == name {
		return
	}
	logrus.WithFields(logrus.Fields{
		"function": "SetPlaybackDeviceName",
		"device":   name,
	}).Info("Playback device changed")
	b.deviceName = name
	b.listenerDirty = true
}

// SetPlaybackVolume sets the chat client's volume modifier in dB.
func (b *OpenALBackend) SetPlaybackVolume(volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.volume = volume
	b.listenerDirty = true
}

// SetHrtfEnabled selects whether new contexts request HRTF.
func (b *OpenALBackend) SetHrtfEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hrtfEnabled = enabled
	b.listenerDirty = true
}

// SetHrtfDataSet writes name into alsoft.ini and reloads the library so
// OpenAL Soft picks it up.
func (b *OpenALBackend) SetHrtfDataSet(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hrtfDataSet == name {
		return
	}
	b.hrtfDataSet = name
	if err := WriteOpenALConf(b.paths.ConfigFile, name); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SetHrtfDataSet",
			"dataset":  name,
			"error":    err.Error(),
		}).Error("Failed to write OpenAL configuration")
		return
	}
	b.reset("SetHrtfDataSet")
}

// HrtfDataSets lists the HRTF data sets usable at SampleRate.
func (b *OpenALBackend) HrtfDataSets() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return HrtfDataSets(b.paths.HrtfDirs, SampleRate)
}

// PlayTestSound loops the WAV file at path through a listener-relative
// source.
func (b *OpenALBackend) PlayTestSound(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled {
		return ErrBackendDisabled
	}
	if b.testPlaying {
		playing, err := b.engine.IsPlaying(b.testSource())
		if err == nil && playing {
			return ErrTestSoundPlaying
		}
		b.engine.ReleaseSource(TestSoundSourceID)
		b.testPlaying = false
	}

	data, err := LoadWav(path)
	if err != nil {
		return err
	}
	if err := b.syncListener(); err != nil {
		return err
	}
	if err := b.engine.PlayAudio(b.testSource(), data); err != nil {
		b.engine.ReleaseSource(TestSoundSourceID)
		return err
	}
	b.testPlaying = true

	logrus.WithFields(logrus.Fields{
		"function": "PlayTestSound",
		"path":     path,
	}).Info("Test sound started")
	return nil
}

// PositionTestSound moves the test sound relative to the listener.
func (b *OpenALBackend) PositionTestSound(position entity.Vector) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.testPosition = position
	if !b.enabled || !b.testPlaying {
		return
	}
	if err := b.engine.UpdateSource(b.testSource()); err != nil {
		b.logFailure("PositionTestSound", "update source", err, nil)
	}
}

// StopTestSound stops the test sound and releases its source and buffer.
func (b *OpenALBackend) StopTestSound() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.testPlaying {
		return
	}
	if err := b.engine.StopAudio(b.testSource()); err != nil {
		b.logFailure("StopTestSound", "stop source", err, nil)
	}
	b.engine.ReleaseSource(TestSoundSourceID)
	b.testPlaying = false
}

// Reset releases all native objects, unloads the library and re-applies
// the stored state when enabled.
func (b *OpenALBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset("Reset")
}

func (b *OpenALBackend) reset(operation string) {
	b.engine.Reset()
	b.testPlaying = false
	b.listenerDirty = true
	if b.enabled {
		b.enable(operation)
	}
}

// OnEditPlaybackVoiceData streams the voice of a positioned user into its
// source and silences samples so the chat client does not play it too.
// Samples stay untouched when streaming fails.
func (b *OpenALBackend) OnEditPlaybackVoiceData(id uint16, samples []int16, channels int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled || channels <= 0 || len(samples) == 0 {
		return
	}
	position, ok := b.users[id]
	if !ok {
		return
	}
	if err := b.syncListener(); err != nil {
		b.logFailure("OnEditPlaybackVoiceData", "update listener", err, nil)
		return
	}

	data := openal.NewPCM16(downmix(samples, channels), 1, SampleRate)
	if err := b.engine.PlayAudio(b.userSource(id, position), data); err != nil {
		b.logFailure("OnEditPlaybackVoiceData", "play audio", err, logrus.Fields{"user_id": id})
		return
	}
	clear(samples)
}

// Close releases all native objects.
func (b *OpenALBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = false
	b.testPlaying = false
	return b.engine.Close()
}

// downmix averages interleaved frames into mono.
func downmix(samples []int16, channels int) []int16 {
	if channels == 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := range mono {
		var sum int32
		for c := 0; c < channels; c++ {
			sum += int32(samples[i*channels+c])
		}
		mono[i] = int16(sum / int32(channels))
	}
	return mono
}

var (
	_ Driver    = (*OpenALBackend)(nil)
	_ VoiceSink = (*OpenALBackend)(nil)
)
