package openal

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/sirupsen/logrus"
)

// LibraryPathEnv overrides the library search list with one path.
const LibraryPathEnv = "TESSUMOD_OPENAL_LIBRARY"

// Library is the Binding backed by the OpenAL Soft shared library, loaded
// at runtime with purego.
type Library struct {
	mu     sync.RWMutex
	names  []string
	handle uintptr
	loaded bool
	fn     functions
}

type functions struct {
	alGetError             func() int32
	alGetString            func(param int32) string
	alGenSources           func(n int32, sources *uint32)
	alDeleteSources        func(n int32, sources *uint32)
	alSource3f             func(source uint32, param int32, x, y, z float32)
	alSourcef              func(source uint32, param int32, value float32)
	alSourcei              func(source uint32, param int32, value int32)
	alGetSourcei           func(source uint32, param int32, value *int32)
	alSourcePlay           func(source uint32)
	alSourceStop           func(source uint32)
	alSourceQueueBuffers   func(source uint32, n int32, buffers *uint32)
	alSourceUnqueueBuffers func(source uint32, n int32, buffers *uint32)
	alGenBuffers           func(n int32, buffers *uint32)
	alDeleteBuffers        func(n int32, buffers *uint32)
	alBufferData           func(buffer uint32, format int32, data unsafe.Pointer, size int32, frequency int32)
	alListenerf            func(param int32, value float32)
	alListener3f           func(param int32, x, y, z float32)
	alListenerfv           func(param int32, values *float32)

	alcOpenDevice       func(name *byte) uintptr
	alcCloseDevice      func(device uintptr) bool
	alcCreateContext    func(device uintptr, attrs *int32) uintptr
	alcDestroyContext   func(context uintptr)
	alcSetThreadContext func(context uintptr) bool
	alcGetError         func(device uintptr) int32
	alcGetString        func(device uintptr, param int32) string
}

type symbol struct {
	name string
	fn   interface{}
}

// NewLibrary creates an unloaded Library searching the given file names,
// or the platform defaults when none are given.
func NewLibrary(names ...string) *Library {
	if len(names) == 0 {
		names = defaultLibraryNames()
	}
	if override := os.Getenv(LibraryPathEnv); override != "" {
		names = []string{override}
	}
	return &Library{names: names}
}

func (l *Library) symbols() []symbol {
	return []symbol{
		{"alGetError", &l.fn.alGetError},
		{"alGetString", &l.fn.alGetString},
		{"alGenSources", &l.fn.alGenSources},
		{"alDeleteSources", &l.fn.alDeleteSources},
		{"alSource3f", &l.fn.alSource3f},
		{"alSourcef", &l.fn.alSourcef},
		{"alSourcei", &l.fn.alSourcei},
		{"alGetSourcei", &l.fn.alGetSourcei},
		{"alSourcePlay", &l.fn.alSourcePlay},
		{"alSourceStop", &l.fn.alSourceStop},
		{"alSourceQueueBuffers", &l.fn.alSourceQueueBuffers},
		{"alSourceUnqueueBuffers", &l.fn.alSourceUnqueueBuffers},
		{"alGenBuffers", &l.fn.alGenBuffers},
		{"alDeleteBuffers", &l.fn.alDeleteBuffers},
		{"alBufferData", &l.fn.alBufferData},
		{"alListenerf", &l.fn.alListenerf},
		{"alListener3f", &l.fn.alListener3f},
		{"alListenerfv", &l.fn.alListenerfv},
		{"alcOpenDevice", &l.fn.alcOpenDevice},
		{"alcCloseDevice", &l.fn.alcCloseDevice},
		{"alcCreateContext", &l.fn.alcCreateContext},
		{"alcDestroyContext", &l.fn.alcDestroyContext},
		{"alcSetThreadContext", &l.fn.alcSetThreadContext},
		{"alcGetError", &l.fn.alcGetError},
		{"alcGetString", &l.fn.alcGetString},
	}
}

// Load opens the first library in the search list that resolves every
// symbol.
func (l *Library) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return nil
	}

	var lastErr error
	for _, name := range l.names {
		handle, err := openLibrary(name)
		if err != nil {
			lastErr = err
			continue
		}
		if err := l.resolve(handle); err != nil {
			if closeErr := closeLibrary(handle); closeErr != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Load",
					"library":  name,
					"error":    closeErr.Error(),
				}).Warn("Failed to close partially loaded library")
			}
			lastErr = err
			continue
		}
		l.handle = handle
		l.loaded = true

		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"library":  name,
		}).Info("OpenAL library loaded")
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no library names to search")
	}
	return fmt.Errorf("%w: %v", ErrLibLoad, lastErr)
}

func (l *Library) resolve(handle uintptr) error {
	for _, s := range l.symbols() {
		addr, err := lookupSymbol(handle, s.name)
		if err != nil {
			return fmt.Errorf("symbol %s: %w", s.name, err)
		}
		purego.RegisterFunc(s.fn, addr)
	}
	return nil
}

// Unload releases the library handle. Every Go function registered against
// it is dropped.
func (l *Library) Unload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		return nil
	}
	handle := l.handle
	l.handle = 0
	l.loaded = false
	l.fn = functions{}

	if err := closeLibrary(handle); err != nil {
		return fmt.Errorf("%w: unload: %v", ErrLibLoad, err)
	}
	return nil
}

// IsLoaded reports whether Load succeeded and Unload was not called since.
func (l *Library) IsLoaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

func (l *Library) ensureLoaded() error {
	if !l.IsLoaded() {
		return ErrLibNotLoaded
	}
	return nil
}

// checkAL turns the pending AL error into a Failure.
func (l *Library) checkAL(op string) error {
	code := l.fn.alGetError()
	if code == alNoError {
		return nil
	}
	return &Failure{Op: op, Code: code, Description: l.fn.alGetString(code)}
}

// checkALC turns the pending ALC error of device into a Failure.
func (l *Library) checkALC(op string, device uintptr) error {
	code := l.fn.alcGetError(device)
	if code == alcNoError {
		return nil
	}
	return &Failure{Op: op, Code: code, Description: l.fn.alcGetString(device, code)}
}

func (l *Library) OpenDevice(name string) (Device, error) {
	if err := l.ensureLoaded(); err != nil {
		return 0, err
	}
	var cname *byte
	if name != "" {
		buf := append([]byte(name), 0)
		cname = &buf[0]
	}
	device := l.fn.alcOpenDevice(cname)
	if err := l.checkALC("alcOpenDevice", device); err != nil {
		return 0, err
	}
	if device == 0 {
		return 0, &Failure{Op: "alcOpenDevice", Code: alcInvalidValue, Description: fmt.Sprintf("cannot open device %q", name)}
	}
	return Device(device), nil
}

func (l *Library) CloseDevice(device Device) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	if !l.fn.alcCloseDevice(uintptr(device)) {
		if err := l.checkALC("alcCloseDevice", uintptr(device)); err != nil {
			return err
		}
		return &Failure{Op: "alcCloseDevice", Code: alcInvalidDevice, Description: "device not closed"}
	}
	return nil
}

func (l *Library) CreateContext(device Device, attrs []int32) (Context, error) {
	if err := l.ensureLoaded(); err != nil {
		return 0, err
	}
	var attrPtr *int32
	if len(attrs) > 0 {
		attrPtr = &attrs[0]
	}
	context := l.fn.alcCreateContext(uintptr(device), attrPtr)
	if err := l.checkALC("alcCreateContext", uintptr(device)); err != nil {
		return 0, err
	}
	if context == 0 {
		return 0, &Failure{Op: "alcCreateContext", Code: alcInvalidContext, Description: "no context created"}
	}
	return Context(context), nil
}

func (l *Library) DestroyContext(context Context) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.fn.alcDestroyContext(uintptr(context))
	return l.checkALC("alcDestroyContext", 0)
}

func (l *Library) SetThreadContext(context Context) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	if !l.fn.alcSetThreadContext(uintptr(context)) {
		if err := l.checkALC("alcSetThreadContext", 0); err != nil {
			return err
		}
		return &Failure{Op: "alcSetThreadContext", Code: alcInvalidContext, Description: "context not made current"}
	}
	return nil
}

func (l *Library) GenSource() (Source, error) {
	if err := l.ensureLoaded(); err != nil {
		return 0, err
	}
	var source uint32
	l.fn.alGenSources(1, &source)
	if err := l.checkAL("alGenSources"); err != nil {
		return 0, err
	}
	return Source(source), nil
}

func (l *Library) DeleteSource(source Source) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	s := uint32(source)
	l.fn.alDeleteSources(1, &s)
	return l.checkAL("alDeleteSources")
}

func (l *Library) Source3f(source Source, param int32, x, y, z float32) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.fn.alSource3f(uint32(source), param, x, y, z)
	return l.checkAL("alSource3f")
}

func (l *Library) Sourcef(source Source, param int32, value float32) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.fn.alSourcef(uint32(source), param, value)
	return l.checkAL("alSourcef")
}

func (l *Library) Sourcei(source Source, param int32, value int32) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.fn.alSourcei(uint32(source), param, value)
	return l.checkAL("alSourcei")
}

func (l *Library) GetSourcei(source Source, param int32) (int32, error) {
	if err := l.ensureLoaded(); err != nil {
		return 0, err
	}
	var value int32
	l.fn.alGetSourcei(uint32(source), param, &value)
	if err := l.checkAL("alGetSourcei"); err != nil {
		return 0, err
	}
	return value, nil
}

func (l *Library) SourcePlay(source Source) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.fn.alSourcePlay(uint32(source))
	return l.checkAL("alSourcePlay")
}

func (l *Library) SourceStop(source Source) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.fn.alSourceStop(uint32(source))
	return l.checkAL("alSourceStop")
}

func (l *Library) SourceQueueBuffers(source Source, buffers []Buffer) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	if len(buffers) == 0 {
		return nil
	}
	names := bufferNames(buffers)
	l.fn.alSourceQueueBuffers(uint32(source), int32(len(names)), &names[0])
	return l.checkAL("alSourceQueueBuffers")
}

func (l *Library) SourceUnqueueBuffers(source Source, count int) ([]Buffer, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}
	names := make([]uint32, count)
	l.fn.alSourceUnqueueBuffers(uint32(source), int32(count), &names[0])
	if err := l.checkAL("alSourceUnqueueBuffers"); err != nil {
		return nil, err
	}
	buffers := make([]Buffer, count)
	for i, name := range names {
		buffers[i] = Buffer(name)
	}
	return buffers, nil
}

func (l *Library) GenBuffer() (Buffer, error) {
	if err := l.ensureLoaded(); err != nil {
		return 0, err
	}
	var buffer uint32
	l.fn.alGenBuffers(1, &buffer)
	if err := l.checkAL("alGenBuffers"); err != nil {
		return 0, err
	}
	return Buffer(buffer), nil
}

func (l *Library) DeleteBuffers(buffers []Buffer) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	if len(buffers) == 0 {
		return nil
	}
	names := bufferNames(buffers)
	l.fn.alDeleteBuffers(int32(len(names)), &names[0])
	return l.checkAL("alDeleteBuffers")
}

func (l *Library) BufferData(buffer Buffer, format int32, data []byte, frequency int32) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	l.fn.alBufferData(uint32(buffer), format, ptr, int32(len(data)), frequency)
	return l.checkAL("alBufferData")
}

func (l *Library) Listenerf(param int32, value float32) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.fn.alListenerf(param, value)
	return l.checkAL("alListenerf")
}

func (l *Library) Listener3f(param int32, x, y, z float32) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.fn.alListener3f(param, x, y, z)
	return l.checkAL("alListener3f")
}

func (l *Library) Listenerfv(param int32, values []float32) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	if len(values) == 0 {
		return newFailure("alListenerfv", "no values")
	}
	l.fn.alListenerfv(param, &values[0])
	return l.checkAL("alListenerfv")
}

func bufferNames(buffers []Buffer) []uint32 {
	names := make([]uint32, len(buffers))
	for i, b := range buffers {
		names[i] = uint32(b)
	}
	return names
}
