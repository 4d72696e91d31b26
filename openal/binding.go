package openal

// Device is a native ALCdevice handle.
type Device uintptr

// Context is a native ALCcontext handle.
type Context uintptr

// Source is a native source name.
type Source uint32

// Buffer is a native buffer name.
type Buffer uint32

// Binding is the set of native OpenAL calls used by the registry.
//
// Every method checks the native error state right after the underlying
// call and reports it as a *Failure. Calling any method other than Load,
// Unload and IsLoaded before Load returns ErrLibNotLoaded.
type Binding interface {
	// Load resolves the library and every symbol. Idempotent.
	Load() error
	// Unload releases the library. No-op when not loaded.
	Unload() error
	IsLoaded() bool

	// OpenDevice opens the named device, the default one for "".
	OpenDevice(name string) (Device, error)
	CloseDevice(device Device) error
	// CreateContext creates a context with a zero terminated attribute list.
	CreateContext(device Device, attrs []int32) (Context, error)
	DestroyContext(context Context) error
	// SetThreadContext makes context current for the calling OS thread;
	// 0 clears it.
	SetThreadContext(context Context) error

	GenSource() (Source, error)
	DeleteSource(source Source) error
	Source3f(source Source, param int32, x, y, z float32) error
	Sourcef(source Source, param int32, value float32) error
	Sourcei(source Source, param int32, value int32) error
	GetSourcei(source Source, param int32) (int32, error)
	SourcePlay(source Source) error
	SourceStop(source Source) error
	SourceQueueBuffers(source Source, buffers []Buffer) error
	// SourceUnqueueBuffers removes the count oldest processed buffers.
	SourceUnqueueBuffers(source Source, count int) ([]Buffer, error)

	GenBuffer() (Buffer, error)
	DeleteBuffers(buffers []Buffer) error
	BufferData(buffer Buffer, format int32, data []byte, frequency int32) error

	Listenerf(param int32, value float32) error
	Listener3f(param int32, x, y, z float32) error
	Listenerfv(param int32, values []float32) error
}
