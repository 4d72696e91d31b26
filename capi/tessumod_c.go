package main

/*
#include <stdint.h>
#include <stdbool.h>
#include <stddef.h>

typedef enum TESSUMOD_RESULT {
    TESSUMOD_OK = 0,
    TESSUMOD_ERR_NOT_STARTED = 1,
    TESSUMOD_ERR_ALREADY_STARTED = 2,
    TESSUMOD_ERR_TEST_SOUND_RUNNING = 3,
    TESSUMOD_ERR_BACKEND_DISABLED = 4,
    TESSUMOD_ERR_INVALID_ARGUMENT = 5,
    TESSUMOD_ERR_FAILED = 6,
} TESSUMOD_RESULT;

// Positions are in the client's coordinate system. Callbacks return 0 on
// success.
typedef int (*tessumod_set_3d_attributes_cb)(uint16_t client_id, float x, float y, float z, void *user_data);
typedef int (*tessumod_set_listener_3d_attributes_cb)(
    float px, float py, float pz,
    float fx, float fy, float fz,
    float ux, float uy, float uz,
    void *user_data);

static inline int tessumod_call_set_3d_attributes(tessumod_set_3d_attributes_cb cb,
    uint16_t client_id, float x, float y, float z, void *user_data) {
    return cb(client_id, x, y, z, user_data);
}

static inline int tessumod_call_set_listener_3d_attributes(tessumod_set_listener_3d_attributes_cb cb,
    float px, float py, float pz,
    float fx, float fy, float fz,
    float ux, float uy, float uz,
    void *user_data) {
    return cb(px, py, pz, fx, fy, fz, ux, uy, uz, user_data);
}
*/
import "C"

import (
	"context"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/plugin"
)

func main() {} // Required for c-shared build mode

// The client loads the plugin once, so a single instance is kept.
var (
	instanceMu sync.Mutex
	instance   *plugin.Plugin
	chat       = &chatState{}
	host       = &hostCallbacks{}
)

func current() *plugin.Plugin {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

// tessumod_init creates and starts the plugin. config_dir holds the
// settings file and resource_dir the bundled HRTF data.
//
//export tessumod_init
func tessumod_init(config_dir, resource_dir *C.char) (result C.TESSUMOD_RESULT) {
	defer recoverPanic("tessumod_init")
	result = C.TESSUMOD_ERR_FAILED

	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return C.TESSUMOD_ERR_ALREADY_STARTED
	}

	p, err := plugin.New(plugin.Config{
		ConfigDir:   C.GoString(config_dir),
		ResourceDir: C.GoString(resource_dir),
		Chat:        chat,
		Host:        host,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "tessumod_init",
			"error":    err.Error(),
		}).Error("Failed to create plugin")
		return C.TESSUMOD_RESULT(resultCode(err))
	}
	if err := p.Start(context.Background()); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "tessumod_init",
			"error":    err.Error(),
		}).Error("Failed to start plugin")
		return C.TESSUMOD_RESULT(resultCode(err))
	}
	instance = p
	return C.TESSUMOD_OK
}

// tessumod_shutdown stops the plugin and releases every audio resource.
//
//export tessumod_shutdown
func tessumod_shutdown() {
	defer recoverPanic("tessumod_shutdown")

	instanceMu.Lock()
	p := instance
	instance = nil
	instanceMu.Unlock()

	if p != nil {
		p.Stop()
	}
}

//export tessumod_set_my_user_id
func tessumod_set_my_user_id(client_id C.uint16_t) {
	defer recoverPanic("tessumod_set_my_user_id")
	chat.setMyUserID(uint16(client_id))
}

//export tessumod_chat_user_added
func tessumod_chat_user_added(client_id C.uint16_t) {
	defer recoverPanic("tessumod_chat_user_added")
	if p := current(); p != nil {
		p.ChatUserAdded(uint16(client_id))
	}
}

//export tessumod_chat_user_removed
func tessumod_chat_user_removed(client_id C.uint16_t) {
	defer recoverPanic("tessumod_chat_user_removed")
	if p := current(); p != nil {
		p.ChatUserRemoved(uint16(client_id))
	}
}

// tessumod_set_playback_device records the client's playback device. An
// empty or NULL name selects the default device.
//
//export tessumod_set_playback_device
func tessumod_set_playback_device(name *C.char) {
	defer recoverPanic("tessumod_set_playback_device")

	device := ""
	if name != nil {
		device = C.GoString(name)
	}
	chat.setDevice(device)
	if p := current(); p != nil {
		p.PlaybackChanged()
	}
}

// tessumod_set_playback_volume records the client's playback volume
// modifier in dB.
//
//export tessumod_set_playback_volume
func tessumod_set_playback_volume(modifier C.float) {
	defer recoverPanic("tessumod_set_playback_volume")

	chat.setVolume(float64(modifier))
	if p := current(); p != nil {
		p.PlaybackChanged()
	}
}

// tessumod_on_edit_playback_voice_data hands a speaker's PCM frames to the
// plugin. Frames rendered by OpenAL are zeroed in place so the client's
// own mix stays silent.
//
//export tessumod_on_edit_playback_voice_data
func tessumod_on_edit_playback_voice_data(client_id C.uint16_t, samples *C.short, sample_count, channels C.int) {
	defer recoverPanic("tessumod_on_edit_playback_voice_data")

	if samples == nil || sample_count <= 0 || channels <= 0 {
		return
	}
	p := current()
	if p == nil {
		return
	}
	pcm := unsafe.Slice((*int16)(unsafe.Pointer(samples)), int(sample_count)*int(channels))
	p.OnEditPlaybackVoiceData(uint16(client_id), pcm, int(channels))
}

// tessumod_custom_3d_rolloff answers the client's custom rolloff event.
// It returns true and sets *volume when the plugin handles the speaker.
//
//export tessumod_custom_3d_rolloff
func tessumod_custom_3d_rolloff(client_id C.uint16_t, volume *C.float) C.bool {
	defer recoverPanic("tessumod_custom_3d_rolloff")

	p := current()
	if p == nil || volume == nil {
		return C.bool(false)
	}
	v, ok := p.Custom3DRolloff(uint16(client_id))
	if ok {
		*volume = C.float(v)
	}
	return C.bool(ok)
}

// tessumod_custom_3d_wave_rolloff answers the rolloff event of a wave
// played by the client.
//
//export tessumod_custom_3d_wave_rolloff
func tessumod_custom_3d_wave_rolloff(volume *C.float) C.bool {
	defer recoverPanic("tessumod_custom_3d_wave_rolloff")

	p := current()
	if p == nil || volume == nil {
		return C.bool(false)
	}
	v, ok := p.Custom3DWaveRolloff()
	if ok {
		*volume = C.float(v)
	}
	return C.bool(ok)
}

// tessumod_callback_set_3d_attributes registers the function moving a
// speaker in the client's own 3D audio. A NULL callback unregisters it.
//
//export tessumod_callback_set_3d_attributes
func tessumod_callback_set_3d_attributes(callback C.tessumod_set_3d_attributes_cb, user_data unsafe.Pointer) {
	defer recoverPanic("tessumod_callback_set_3d_attributes")

	if callback == nil {
		host.register3D(nil)
		return
	}
	host.register3D(func(id uint16, p entity.Vector) int {
		return int(C.tessumod_call_set_3d_attributes(callback, C.uint16_t(id),
			C.float(p.X), C.float(p.Y), C.float(p.Z), user_data))
	})
}

// tessumod_callback_set_listener_3d_attributes registers the function
// moving the listener in the client's own 3D audio.
//
//export tessumod_callback_set_listener_3d_attributes
func tessumod_callback_set_listener_3d_attributes(callback C.tessumod_set_listener_3d_attributes_cb, user_data unsafe.Pointer) {
	defer recoverPanic("tessumod_callback_set_listener_3d_attributes")

	if callback == nil {
		host.registerListener(nil)
		return
	}
	host.registerListener(func(p, f, u entity.Vector) int {
		return int(C.tessumod_call_set_listener_3d_attributes(callback,
			C.float(p.X), C.float(p.Y), C.float(p.Z),
			C.float(f.X), C.float(f.Y), C.float(f.Z),
			C.float(u.X), C.float(u.Y), C.float(u.Z),
			user_data))
	})
}

// tessumod_play_test_sound starts the rotating test tone.
//
//export tessumod_play_test_sound
func tessumod_play_test_sound() (result C.TESSUMOD_RESULT) {
	defer recoverPanic("tessumod_play_test_sound")
	result = C.TESSUMOD_ERR_FAILED

	p := current()
	if p == nil {
		return C.TESSUMOD_ERR_NOT_STARTED
	}
	if err := p.StartTestSound(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "tessumod_play_test_sound",
			"error":    err.Error(),
		}).Warn("Test sound not started")
		return C.TESSUMOD_RESULT(resultCode(err))
	}
	return C.TESSUMOD_OK
}

//export tessumod_stop_test_sound
func tessumod_stop_test_sound() {
	defer recoverPanic("tessumod_stop_test_sound")
	if p := current(); p != nil {
		p.StopTestSound()
	}
}

// tessumod_save_settings persists and applies the settings dialog values.
// backend is "builtin" or "openal".
//
//export tessumod_save_settings
func tessumod_save_settings(backend *C.char, positional, hrtf_enabled C.bool, hrtf_data_set *C.char, log_level C.int) (result C.TESSUMOD_RESULT) {
	defer recoverPanic("tessumod_save_settings")
	result = C.TESSUMOD_ERR_FAILED

	p := current()
	if p == nil {
		return C.TESSUMOD_ERR_NOT_STARTED
	}
	if backend == nil {
		return C.TESSUMOD_ERR_INVALID_ARGUMENT
	}
	dataSet := ""
	if hrtf_data_set != nil {
		dataSet = C.GoString(hrtf_data_set)
	}
	s, err := parseSettings(C.GoString(backend), bool(positional), bool(hrtf_enabled), dataSet, int(log_level))
	if err == nil {
		err = p.SaveSettings(s)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "tessumod_save_settings",
			"error":    err.Error(),
		}).Error("Failed to save settings")
		return C.TESSUMOD_RESULT(resultCode(err))
	}
	return C.TESSUMOD_OK
}

// tessumod_hrtf_data_sets writes the newline separated HRTF data set names
// into buffer, truncated to size-1 bytes plus a terminating NUL. It
// returns the untruncated length, so a NULL buffer queries the size.
//
//export tessumod_hrtf_data_sets
func tessumod_hrtf_data_sets(buffer *C.char, size C.size_t) C.size_t {
	defer recoverPanic("tessumod_hrtf_data_sets")

	p := current()
	if p == nil {
		return 0
	}
	names := joinDataSets(p.HrtfDataSets())
	if buffer != nil && size > 0 {
		out := unsafe.Slice((*byte)(unsafe.Pointer(buffer)), int(size))
		n := copy(out[:len(out)-1], names)
		out[n] = 0
	}
	return C.size_t(len(names))
}
