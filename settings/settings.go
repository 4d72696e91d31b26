// Package settings persists the plugin's user settings in a TOML file
// through viper. Every key has a default, so a missing file is a valid
// configuration.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// FileName is the settings file inside the plugin configuration directory.
const FileName = "tessumod_plugin.toml"

// EnvPrefix prefixes environment variables overriding settings, e.g.
// TESSUMOD_AUDIO_BACKEND.
const EnvPrefix = "TESSUMOD"

// Backend selects the positional audio renderer.
type Backend string

const (
	BackendBuiltIn Backend = "builtin"
	BackendOpenAL  Backend = "openal"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	return b == BackendBuiltIn || b == BackendOpenAL
}

// Configuration keys.
const (
	keyBackend     = "audio.backend"
	keyPositional  = "audio.positional"
	keyHrtfEnabled = "hrtf.enabled"
	keyHrtfDataSet = "hrtf.dataset"
	keyLogLevel    = "log.level"
)

// ErrUnknownBackend indicates a backend name other than builtin or openal.
var ErrUnknownBackend = errors.New("unknown audio backend")

// Settings are the persisted user choices.
type Settings struct {
	Backend     Backend
	Positional  bool
	HrtfEnabled bool
	HrtfDataSet string
	LogLevel    int
}

// Defaults returns the settings used for missing keys.
func Defaults() Settings {
	return Settings{
		Backend:    BackendOpenAL,
		Positional: true,
		LogLevel:   1,
	}
}

// Store loads and saves Settings.
type Store struct {
	mu      sync.Mutex
	v       *viper.Viper
	path    string
	current Settings
}

// NewStore creates a store for the settings file in dir.
func NewStore(dir string) *Store {
	v := viper.New()
	d := Defaults()
	v.SetDefault(keyBackend, string(d.Backend))
	v.SetDefault(keyPositional, d.Positional)
	v.SetDefault(keyHrtfEnabled, d.HrtfEnabled)
	v.SetDefault(keyHrtfDataSet, d.HrtfDataSet)
	v.SetDefault(keyLogLevel, d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, FileName)
	v.SetConfigFile(path)

	return &Store{v: v, path: path, current: d}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields the defaults and
// no error.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return s.current, fmt.Errorf("read settings %s: %w", s.path, err)
		}
		logrus.WithFields(logrus.Fields{
			"function": "Store.Load",
			"path":     s.path,
		}).Info("No settings file found, using defaults")
	}

	loaded := Settings{
		Backend:     Backend(strings.ToLower(s.v.GetString(keyBackend))),
		Positional:  s.v.GetBool(keyPositional),
		HrtfEnabled: s.v.GetBool(keyHrtfEnabled),
		HrtfDataSet: s.v.GetString(keyHrtfDataSet),
		LogLevel:    s.v.GetInt(keyLogLevel),
	}
	if !loaded.Backend.Valid() {
		logrus.WithFields(logrus.Fields{
			"function": "Store.Load",
			"backend":  loaded.Backend,
		}).Warn("Unknown audio backend in settings, using default")
		loaded.Backend = Defaults().Backend
	}

	s.current = loaded
	return loaded, nil
}

// Get returns the last loaded or saved settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Save writes settings to the settings file.
func (s *Store) Save(settings Settings) error {
	if !settings.Backend.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, settings.Backend)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(keyBackend, string(settings.Backend))
	s.v.Set(keyPositional, settings.Positional)
	s.v.Set(keyHrtfEnabled, settings.HrtfEnabled)
	s.v.Set(keyHrtfDataSet, settings.HrtfDataSet)
	s.v.Set(keyLogLevel, settings.LogLevel)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings %s: %w", s.path, err)
	}
	s.current = settings

	logrus.WithFields(logrus.Fields{
		"function": "Store.Save",
		"path":     s.path,
		"backend":  settings.Backend,
	}).Debug("Settings saved")
	return nil
}
