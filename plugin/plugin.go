package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/backend"
	"github.com/tessumod/tsplugin/gamedata"
	"github.com/tessumod/tsplugin/logging"
	"github.com/tessumod/tsplugin/openal"
	"github.com/tessumod/tsplugin/settings"
)

// TestToneFile is the name of the generated test tone in the temporary
// directory.
const TestToneFile = "tessumod_testtone.wav"

// Config holds the plugin's collaborators. Zero fields get defaults.
type Config struct {
	// ConfigDir holds the settings file.
	ConfigDir string
	// ResourceDir holds the bundled hrtfs directory.
	ResourceDir string
	// OpenALPaths locates alsoft configuration and HRTF data. The zero
	// value uses backend.DefaultPaths.
	OpenALPaths backend.Paths

	// NewBinding creates an OpenAL binding for each OpenAL backend.
	// Defaults to the native library.
	NewBinding func() openal.Binding
	// Segment is the game data source. Defaults to the shared memory
	// segment.
	Segment gamedata.Segment

	Chat VoiceChat
	Host backend.Host

	TimeProvider gamedata.TimeProvider
}

// Plugin is the assembled positional audio plugin.
type Plugin struct {
	mu  sync.Mutex
	cfg Config

	store    *settings.Store
	openAL   *backend.OpenALBackend
	builtIn  *backend.BuiltInBackend
	test     *backend.OpenALBackend
	useCases *UseCases

	reader   *gamedata.Reader
	poller   *gamedata.Poller
	segment  gamedata.Segment
	watchdog *Watchdog
	watcher  *ConfFileWatcher
	rotator  *PositionRotator

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	tonePath string
}

// New assembles a plugin. Nothing native is touched until Start.
func New(cfg Config) (*Plugin, error) {
	log := logging.NewLogger("plugin", "New")

	if cfg.Chat == nil || cfg.Host == nil {
		return nil, errors.New("plugin: Chat and Host are required")
	}
	if cfg.NewBinding == nil {
		cfg.NewBinding = func() openal.Binding { return openal.NewLibrary() }
	}
	if cfg.OpenALPaths.ConfigFile == "" {
		paths, err := backend.DefaultPaths()
		if err != nil {
			return nil, err
		}
		cfg.OpenALPaths = paths
	}

	p := &Plugin{
		cfg:     cfg,
		store:   settings.NewStore(cfg.ConfigDir),
		openAL:  backend.NewOpenALBackend(cfg.NewBinding(), cfg.OpenALPaths),
		builtIn: backend.NewBuiltInBackend(cfg.Host),
		test:    backend.NewOpenALBackend(cfg.NewBinding(), cfg.OpenALPaths),
	}
	p.useCases = NewUseCases(cfg.Chat, p.store, map[settings.Backend]*AudioAdapter{
		settings.BackendOpenAL:  NewAudioAdapter(p.openAL),
		settings.BackendBuiltIn: NewAudioAdapter(p.builtIn),
	}, p.test)

	p.reader = gamedata.NewReader(NewGameDataAdapter(p.useCases), cfg.TimeProvider)
	p.watchdog = NewWatchdog(cfg.Chat, p.useCases, cfg.TimeProvider)
	p.watcher = NewConfFileWatcher(cfg.OpenALPaths.ConfigFile, p.onOpenALConfChanged)
	p.rotator = NewPositionRotator(cfg.TimeProvider, p.test.PositionTestSound, p.onRotationFinished)

	log.WithFields(logrus.Fields{
		"config_dir": cfg.ConfigDir,
		"openal_ini": cfg.OpenALPaths.ConfigFile,
	}).Debug("Plugin assembled")
	return p, nil
}

// Start loads the settings, installs HRTF data and starts game data
// polling, the playback watchdog and the OpenAL configuration watcher.
func (p *Plugin) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	log := logging.NewLogger("plugin", "Start")
	if p.started {
		return ErrAlreadyStarted
	}

	s, err := p.store.Load()
	if err != nil {
		log.WithError(err, "load settings").Warn("Using default settings")
	}
	p.applyLogLevel(s.LogLevel)
	p.installHrtfData()

	p.segment = p.cfg.Segment
	if p.segment == nil {
		p.segment, err = gamedata.OpenSegment(gamedata.SegmentName, gamedata.SegmentSize)
		if err != nil {
			log.WithError(err, "open segment").Error("Game data unavailable")
			p.segment = gamedata.NewMemorySegment(gamedata.SegmentSize)
		}
	}
	p.poller = gamedata.NewPoller(p.segment, p.reader, p.cfg.TimeProvider)

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.useCases.Initialize()
	if err := p.poller.Start(p.ctx); err != nil {
		p.cancel()
		return err
	}
	p.watchdog.Start(p.ctx)
	if err := p.watcher.Start(p.ctx); err != nil {
		log.WithError(err, "watch OpenAL configuration").Warn("OpenAL configuration changes will not be noticed")
	}
	p.started = true

	log.WithFields(logrus.Fields{
		"backend":    s.Backend,
		"positional": s.Positional,
	}).Info("Plugin started")
	return nil
}

// Stop stops every background task and releases all audio resources.
func (p *Plugin) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.stopTestSound()
	p.poller.Stop()
	p.watchdog.Stop()
	if err := p.watcher.Stop(); err != nil {
		logging.NewLogger("plugin", "Stop").WithError(err, "close watcher").Warn("Failed to stop configuration watcher")
	}
	p.cancel()
	p.reader.Reset()

	p.openAL.Close()
	p.test.Close()
	if p.cfg.Segment == nil {
		p.segment.Close()
	}
	p.started = false

	logging.NewLogger("plugin", "Stop").Info("Plugin stopped")
}

// Settings returns the current settings.
func (p *Plugin) Settings() settings.Settings {
	return p.store.Get()
}

// SaveSettings persists s and applies it.
func (p *Plugin) SaveSettings(s settings.Settings) error {
	if err := p.useCases.SaveSettings(s); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLogLevel(s.LogLevel)
	return nil
}

// HrtfDataSets lists the HRTF data sets the OpenAL backend can use.
func (p *Plugin) HrtfDataSets() []string {
	return p.openAL.HrtfDataSets()
}

// ChatUserAdded registers a voice-chat user.
func (p *Plugin) ChatUserAdded(id uint16) {
	p.useCases.AddChatUser(id)
}

// ChatUserRemoved unregisters a voice-chat user.
func (p *Plugin) ChatUserRemoved(id uint16) {
	p.useCases.RemoveChatUser(id)
}

// PlaybackChanged re-reads the client's playback device and volume.
func (p *Plugin) PlaybackChanged() {
	p.watchdog.Check()
}

// OnEditPlaybackVoiceData routes voice data to the selected backend.
func (p *Plugin) OnEditPlaybackVoiceData(id uint16, samples []int16, channels int) {
	p.useCases.OnEditPlaybackVoiceData(id, samples, channels)
}

// Custom3DRolloff answers the client's rolloff event for a speaker.
func (p *Plugin) Custom3DRolloff(id uint16) (float64, bool) {
	return p.builtIn.Custom3DRolloff(id)
}

// Custom3DWaveRolloff answers the client's rolloff event for a wave.
func (p *Plugin) Custom3DWaveRolloff() (float64, bool) {
	return p.builtIn.Custom3DWaveRolloff()
}

// StartTestSound plays a tone circling the listener once through a
// dedicated OpenAL output.
func (p *Plugin) StartTestSound() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return ErrNotStarted
	}
	if p.rotator.Running() {
		return ErrTestSoundRunning
	}

	path := filepath.Join(os.TempDir(), TestToneFile)
	if err := backend.WriteTestTone(path); err != nil {
		return err
	}
	p.tonePath = path

	p.test.SetEnabled(true)
	if err := p.test.PlayTestSound(path); err != nil {
		p.test.SetEnabled(false)
		p.removeTone()
		return err
	}
	p.rotator.Start(p.ctx)

	logging.NewLogger("plugin", "StartTestSound").WithField("path", path).Info("Test sound started")
	return nil
}

// StopTestSound stops a running test sound.
func (p *Plugin) StopTestSound() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTestSound()
}

func (p *Plugin) stopTestSound() {
	p.rotator.Stop()
	p.test.StopTestSound()
	p.test.SetEnabled(false)
	p.removeTone()
}

func (p *Plugin) removeTone() {
	if p.tonePath == "" {
		return
	}
	if err := os.Remove(p.tonePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.NewLogger("plugin", "removeTone").WithError(err, "remove test tone").Warn("Failed to remove test tone")
	}
	p.tonePath = ""
}

func (p *Plugin) onRotationFinished() {
	p.StopTestSound()
}

func (p *Plugin) onOpenALConfChanged() {
	p.openAL.Reset()
}

// applyLogLevel sets the logrus level and the OpenAL Soft log level. The
// OpenAL backends reload the library when the latter changed.
func (p *Plugin) applyLogLevel(level int) {
	logging.Configure(level)
	if openal.SetupLogging(level) {
		p.openAL.Reset()
		p.test.Reset()
	}
}

func (p *Plugin) installHrtfData() {
	if p.cfg.ResourceDir == "" || len(p.cfg.OpenALPaths.HrtfDirs) == 0 {
		return
	}
	src := filepath.Join(p.cfg.ResourceDir, "hrtfs")
	if _, err := backend.InstallHrtfData(src, p.cfg.OpenALPaths.HrtfDirs[0]); err != nil {
		logging.NewLogger("plugin", "installHrtfData").WithError(err, "install HRTF data").Error("Failed to install HRTF data")
	}
}
