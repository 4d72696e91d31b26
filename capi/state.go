package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/backend"
	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/plugin"
	"github.com/tessumod/tsplugin/settings"
)

// Sentinel errors for capi package operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrNoHostCallback indicates the client has not registered a callback.
	ErrNoHostCallback = errors.New("host callback not registered")

	// ErrHostCallback indicates a host callback returned a failure code.
	ErrHostCallback = errors.New("host callback failed")
)

// Result codes returned to C. They match TESSUMOD_RESULT in the header.
const (
	resultOK               = 0
	resultNotStarted       = 1
	resultAlreadyStarted   = 2
	resultTestSoundRunning = 3
	resultBackendDisabled  = 4
	resultInvalidArgument  = 5
	resultFailed           = 6
)

// resultCode maps err to a C result code.
func resultCode(err error) int {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, plugin.ErrNotStarted):
		return resultNotStarted
	case errors.Is(err, plugin.ErrAlreadyStarted):
		return resultAlreadyStarted
	case errors.Is(err, plugin.ErrTestSoundRunning), errors.Is(err, backend.ErrTestSoundPlaying):
		return resultTestSoundRunning
	case errors.Is(err, backend.ErrBackendDisabled):
		return resultBackendDisabled
	case errors.Is(err, settings.ErrUnknownBackend):
		return resultInvalidArgument
	default:
		return resultFailed
	}
}

// recoverPanic keeps a panic from unwinding into the client. It must be
// deferred directly by every export.
func recoverPanic(function string) {
	if r := recover(); r != nil {
		logrus.WithFields(logrus.Fields{
			"function": function,
			"panic":    fmt.Sprint(r),
		}).Error("Recovered from panic in exported function")
	}
}

// chatState is the voice-chat client state pushed in through the exports.
type chatState struct {
	mu     sync.Mutex
	myID   uint16
	device string
	volume float64
}

func (c *chatState) MyUserID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.myID
}

func (c *chatState) PlaybackDeviceName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

func (c *chatState) PlaybackVolume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *chatState) setMyUserID(id uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.myID = id
}

func (c *chatState) setDevice(device string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.device = device
}

func (c *chatState) setVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = volume
}

// hostCallbacks implements backend.Host over the callbacks the client
// registered.
type hostCallbacks struct {
	mu          sync.RWMutex
	set3D       func(id uint16, position entity.Vector) int
	setListener func(position, forward, up entity.Vector) int
}

func (h *hostCallbacks) register3D(fn func(id uint16, position entity.Vector) int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set3D = fn
}

func (h *hostCallbacks) registerListener(fn func(position, forward, up entity.Vector) int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setListener = fn
}

func (h *hostCallbacks) Set3DAttributes(id uint16, position entity.Vector) error {
	h.mu.RLock()
	fn := h.set3D
	h.mu.RUnlock()

	if fn == nil {
		return ErrNoHostCallback
	}
	if code := fn(id, position); code != 0 {
		return fmt.Errorf("set 3D attributes of client %d: %w (code %d)", id, ErrHostCallback, code)
	}
	return nil
}

func (h *hostCallbacks) SetListener3DAttributes(position, forward, up entity.Vector) error {
	h.mu.RLock()
	fn := h.setListener
	h.mu.RUnlock()

	if fn == nil {
		return ErrNoHostCallback
	}
	if code := fn(position, forward, up); code != 0 {
		return fmt.Errorf("set listener 3D attributes: %w (code %d)", ErrHostCallback, code)
	}
	return nil
}

// parseSettings builds settings from the values of a settings dialog.
func parseSettings(backendName string, positional, hrtfEnabled bool, hrtfDataSet string, logLevel int) (settings.Settings, error) {
	b := settings.Backend(backendName)
	if !b.Valid() {
		return settings.Settings{}, fmt.Errorf("%w: %q", settings.ErrUnknownBackend, backendName)
	}
	return settings.Settings{
		Backend:     b,
		Positional:  positional,
		HrtfEnabled: hrtfEnabled,
		HrtfDataSet: hrtfDataSet,
		LogLevel:    logLevel,
	}, nil
}

// joinDataSets joins HRTF data set names for a C buffer.
func joinDataSets(names []string) string {
	return strings.Join(names, "\n")
}

var (
	_ plugin.VoiceChat = (*chatState)(nil)
	_ backend.Host     = (*hostCallbacks)(nil)
)
