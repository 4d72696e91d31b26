package openal

import (
	"runtime"
	"sync"
)

// Engine is the synchronized entry point into the registry. Every call
// holds one mutex for its whole duration and runs on a locked OS thread,
// so the thread context applied at its start stays current until it
// returns.
//
// Calls with an invalid descriptor are no-ops.
type Engine struct {
	mu       sync.Mutex
	registry *Registry
}

// NewEngine creates an engine over binding. The library is loaded on the
// first call that needs a device.
func NewEngine(binding Binding) *Engine {
	return &Engine{registry: NewRegistry(binding)}
}

func (e *Engine) lock() func() {
	e.mu.Lock()
	runtime.LockOSThread()
	return func() {
		runtime.UnlockOSThread()
		e.mu.Unlock()
	}
}

// PlayAudio streams data into the source of info when info.Streaming is
// set, or binds it as the single looping buffer otherwise. Playback starts
// when the source is not already playing. Buffers generated by a failed
// call are deleted before the error is returned.
func (e *Engine) PlayAudio(info SourceInfo, data AudioData) error {
	if !info.Valid() {
		return nil
	}
	defer e.lock()()

	if err := e.registry.ApplyThreadContext(info.Output); err != nil {
		return err
	}
	return e.registry.playAudio(info, data)
}

// StopAudio stops playback of the source of info.
func (e *Engine) StopAudio(info SourceInfo) error {
	if !info.Valid() {
		return nil
	}
	defer e.lock()()

	if err := e.registry.ApplyThreadContext(info.Output); err != nil {
		return err
	}
	return e.registry.stopAudio(info)
}

// UpdateSource creates the source of info if needed and applies the
// changed options.
func (e *Engine) UpdateSource(info SourceInfo) error {
	if !info.Valid() {
		return nil
	}
	defer e.lock()()

	if err := e.registry.ApplyThreadContext(info.Output); err != nil {
		return err
	}
	_, err := e.registry.QuerySource(info)
	return err
}

// UpdateListener applies the changed listener options of info.
func (e *Engine) UpdateListener(info ListenerInfo) error {
	if !info.Valid() {
		return nil
	}
	defer e.lock()()

	if err := e.registry.ApplyThreadContext(info.Output); err != nil {
		return err
	}
	return e.registry.UpdateListenerOptions(info)
}

// IsPlaying reports whether the source of info exists and is playing.
func (e *Engine) IsPlaying(info SourceInfo) (bool, error) {
	if !info.Valid() {
		return false, nil
	}
	defer e.lock()()

	entry, ok := e.registry.sources[info.ID]
	if !ok {
		return false, nil
	}
	if err := e.registry.ApplyThreadContext(entry.info.Output); err != nil {
		return false, err
	}
	return e.registry.isPlaying(entry)
}

// StreamState returns the last observed state of source id.
func (e *Engine) StreamState(id uint32) StreamState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, ok := e.registry.sources[id]; ok {
		return entry.state
	}
	return StreamIdle
}

// ReleaseSource deletes the source of id and its buffers.
func (e *Engine) ReleaseSource(id uint32) {
	defer e.lock()()
	e.registry.ReleaseSource(id)
}

// Reset releases every native object and unloads the library.
func (e *Engine) Reset() {
	defer e.lock()()
	e.registry.Reset()
}

// Close is Reset, for use before process exit.
func (e *Engine) Close() error {
	e.Reset()
	return nil
}
