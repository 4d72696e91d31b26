package plugin

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/gamedata"
)

// WatchdogInterval is how often the voice-chat playback settings are
// checked.
const WatchdogInterval = time.Second

// Watchdog notices playback device and volume changes of the voice-chat
// client.
type Watchdog struct {
	chat         VoiceChat
	events       PlaybackEvents
	timeProvider gamedata.TimeProvider

	mu      sync.Mutex
	device  string
	volume  float64
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewWatchdog creates a stopped watchdog. A nil tp uses the real clock.
func NewWatchdog(chat VoiceChat, events PlaybackEvents, tp gamedata.TimeProvider) *Watchdog {
	if tp == nil {
		tp = gamedata.RealTimeProvider{}
	}
	return &Watchdog{chat: chat, events: events, timeProvider: tp}
}

// Start records the current settings and checks for changes every
// WatchdogInterval until ctx is cancelled or Stop is called.
func (w *Watchdog) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.device = w.chat.PlaybackDeviceName()
	w.volume = w.chat.PlaybackVolume()

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running = true
	go w.run(ctx, w.done)
}

func (w *Watchdog) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := w.timeProvider.NewTicker(WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check compares the client's playback settings with the last seen ones
// and reports changes.
func (w *Watchdog) Check() {
	device := w.chat.PlaybackDeviceName()
	volume := w.chat.PlaybackVolume()

	w.mu.Lock()
	deviceChanged := device != w.device
	volumeChanged := volume != w.volume
	w.device, w.volume = device, volume
	w.mu.Unlock()

	if deviceChanged {
		logrus.WithFields(logrus.Fields{
			"function": "Watchdog.Check",
			"device":   device,
		}).Info("Playback device changed")
		w.events.ChangePlaybackDevice()
	}
	if volumeChanged {
		logrus.WithFields(logrus.Fields{
			"function": "Watchdog.Check",
			"volume":   volume,
		}).Debug("Playback volume changed")
		w.events.ChangePlaybackVolume()
	}
}

// Stop ends checking and waits for the checking goroutine.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}
