package openal

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// StreamState is the playback state of a source as last observed.
type StreamState int

const (
	// StreamIdle means nothing is known to be playing.
	StreamIdle StreamState = iota
	// StreamPriming means playback started behind a silence lead-in that
	// has not been consumed yet.
	StreamPriming
	// StreamPlaying means real audio is playing.
	StreamPlaying
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "Idle"
	case StreamPriming:
		return "Priming"
	case StreamPlaying:
		return "Playing"
	default:
		return fmt.Sprintf("StreamState(%d)", int(s))
	}
}

// sourceEntry is the registry's record of one native source.
type sourceEntry struct {
	info   SourceInfo
	handle Source
	// queued holds buffers queued on a streaming source, oldest first.
	queued []Buffer
	// silence is the lead-in buffer while it is still queued.
	silence Buffer
	// bound is the buffer attached with AL_BUFFER to a one-shot source.
	bound Buffer
	state StreamState
}

// Registry caches native devices, contexts, sources and listener state by
// logical identity and applies only what changed.
//
// Registry is not safe for concurrent use; Engine serializes access.
type Registry struct {
	binding   Binding
	devices   map[string]Device
	contexts  map[OutputInfo]Context
	listeners map[OutputInfo]ListenerInfo
	sources   map[uint32]*sourceEntry
}

// NewRegistry creates an empty registry over binding.
func NewRegistry(binding Binding) *Registry {
	return &Registry{
		binding:   binding,
		devices:   make(map[string]Device),
		contexts:  make(map[OutputInfo]Context),
		listeners: make(map[OutputInfo]ListenerInfo),
		sources:   make(map[uint32]*sourceEntry),
	}
}

// QueryDevice returns the device for info.DeviceName, loading the library
// and opening the device on first use.
func (r *Registry) QueryDevice(info OutputInfo) (Device, error) {
	if !info.Valid() {
		return 0, ErrInvalidDescriptor
	}
	if !r.binding.IsLoaded() {
		if err := r.binding.Load(); err != nil {
			return 0, err
		}
	}
	if device, ok := r.devices[info.DeviceName]; ok {
		return device, nil
	}

	device, err := r.binding.OpenDevice(info.DeviceName)
	if err != nil {
		return 0, err
	}
	r.devices[info.DeviceName] = device

	logrus.WithFields(logrus.Fields{
		"function": "QueryDevice",
		"device":   info.DeviceName,
	}).Debug("Opened OpenAL device")
	return device, nil
}

// QueryContext returns the context for exactly info, creating it on the
// device with the output's sample rate and HRTF attributes.
func (r *Registry) QueryContext(info OutputInfo) (Context, error) {
	if !info.Valid() {
		return 0, ErrInvalidDescriptor
	}
	if context, ok := r.contexts[info]; ok {
		return context, nil
	}

	device, err := r.QueryDevice(info)
	if err != nil {
		return 0, err
	}
	context, err := r.binding.CreateContext(device, info.contextAttributes())
	if err != nil {
		return 0, err
	}
	r.contexts[info] = context

	logrus.WithFields(logrus.Fields{
		"function": "QueryContext",
		"output":   info.String(),
	}).Debug("Created OpenAL context")
	return context, nil
}

// ApplyThreadContext makes the context of info current for the calling
// OS thread.
func (r *Registry) ApplyThreadContext(info OutputInfo) error {
	context, err := r.QueryContext(info)
	if err != nil {
		return err
	}
	return r.binding.SetThreadContext(context)
}

// QuerySource returns the native source for info.ID. An existing source
// bound to a different output is released and recreated. A new source gets
// every option applied, a reused one only the changed options.
func (r *Registry) QuerySource(info SourceInfo) (Source, error) {
	entry, err := r.querySourceEntry(info)
	if err != nil {
		return 0, err
	}
	return entry.handle, nil
}

func (r *Registry) querySourceEntry(info SourceInfo) (*sourceEntry, error) {
	if !info.Valid() {
		return nil, ErrInvalidDescriptor
	}

	if entry, ok := r.sources[info.ID]; ok {
		if entry.info.Output == info.Output {
			if err := r.UpdateSourceOptions(info, false); err != nil {
				return nil, err
			}
			return entry, nil
		}

		logrus.WithFields(logrus.Fields{
			"function":   "QuerySource",
			"source_id":  info.ID,
			"old_output": entry.info.Output.String(),
			"new_output": info.Output.String(),
		}).Debug("Output changed, recreating source")

		r.ReleaseSource(info.ID)
		// release switched to the old output's context
		if err := r.ApplyThreadContext(info.Output); err != nil {
			return nil, err
		}
	}

	handle, err := r.binding.GenSource()
	if err != nil {
		return nil, err
	}
	entry := &sourceEntry{info: info, handle: handle}
	r.sources[info.ID] = entry

	if err := r.UpdateSourceOptions(info, true); err != nil {
		// a half configured source must not be diffed against later
		r.ReleaseSource(info.ID)
		return nil, err
	}
	return entry, nil
}

// UpdateSourceOptions applies the options of info that differ from the
// last applied state of the same source, or all of them when force is set.
// Unknown ids are ignored, as are sources living on another output: those
// are recreated by QuerySource. The last applied state is only recorded
// once every option was applied.
func (r *Registry) UpdateSourceOptions(info SourceInfo, force bool) error {
	if !info.Valid() {
		return ErrInvalidDescriptor
	}
	entry, ok := r.sources[info.ID]
	if !ok || entry.info.Output != info.Output {
		return nil
	}
	prev := entry.info

	if force || !info.Position.Equal(prev.Position) {
		x, y, z := toFloat32(info.Position)
		if err := r.binding.Source3f(entry.handle, alPosition, x, y, z); err != nil {
			return err
		}
	}
	if force || info.RolloffFactor != prev.RolloffFactor {
		if err := r.binding.Sourcef(entry.handle, alRolloffFactor, float32(info.RolloffFactor)); err != nil {
			return err
		}
	}
	if force || info.Relative != prev.Relative {
		if err := r.binding.Sourcei(entry.handle, alSourceRelative, boolToAL(info.Relative)); err != nil {
			return err
		}
	}
	if force || info.Streaming != prev.Streaming {
		if err := r.binding.Sourcei(entry.handle, alLooping, boolToAL(!info.Streaming)); err != nil {
			return err
		}
	}

	entry.info = info
	return nil
}

// UpdateListenerOptions applies the listener options of info that differ
// from the last applied listener of the same output. The first listener of
// an output is applied in full. The output's context must be current.
func (r *Registry) UpdateListenerOptions(info ListenerInfo) error {
	if !info.Valid() {
		return ErrInvalidDescriptor
	}
	prev, known := r.listeners[info.Output]
	force := !known

	if force || !info.Forward.Equal(prev.Forward) || !info.Up.Equal(prev.Up) {
		fx, fy, fz := toFloat32(info.Forward)
		ux, uy, uz := toFloat32(info.Up)
		if err := r.binding.Listenerfv(alOrientation, []float32{fx, fy, fz, ux, uy, uz}); err != nil {
			return err
		}
	}
	if force || !info.Position.Equal(prev.Position) {
		x, y, z := toFloat32(info.Position)
		if err := r.binding.Listener3f(alPosition, x, y, z); err != nil {
			return err
		}
	}
	if force || info.Gain != prev.Gain {
		if err := r.binding.Listenerf(alGain, float32(info.Gain)); err != nil {
			return err
		}
	}
	if force || !info.Velocity.Equal(prev.Velocity) {
		x, y, z := toFloat32(info.Velocity)
		if err := r.binding.Listener3f(alVelocity, x, y, z); err != nil {
			return err
		}
	}

	r.listeners[info.Output] = info
	return nil
}

// ReleaseSource stops and deletes the source of id together with every
// buffer still attached to it. Failures are logged.
func (r *Registry) ReleaseSource(id uint32) {
	entry, ok := r.sources[id]
	if !ok {
		return
	}
	delete(r.sources, id)

	fields := logrus.Fields{
		"function":  "ReleaseSource",
		"source_id": id,
	}
	warn := func(err error, operation string) {
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"operation": operation,
			"error":     err.Error(),
		}).Warn("Failed to release OpenAL source")
	}

	if err := r.ApplyThreadContext(entry.info.Output); err != nil {
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"operation":      "apply thread context",
			"error":          err.Error(),
			"leaked_source":  entry.handle,
			"leaked_buffers": len(entry.queued) + boolToCount(entry.bound != 0),
		}).Warn("Failed to release OpenAL source, native handles leaked")
		return
	}
	if err := r.binding.SourceStop(entry.handle); err != nil {
		warn(err, "stop")
	}
	// detaches the queue and the bound buffer
	if err := r.binding.Sourcei(entry.handle, alBuffer, 0); err != nil {
		warn(err, "detach buffers")
	}
	if err := r.binding.DeleteSource(entry.handle); err != nil {
		warn(err, "delete source")
	}

	buffers := append([]Buffer(nil), entry.queued...)
	if entry.bound != 0 {
		buffers = append(buffers, entry.bound)
	}
	if err := r.binding.DeleteBuffers(buffers); err != nil {
		warn(err, "delete buffers")
	}
}

// ReleaseAllSources releases every known source.
func (r *Registry) ReleaseAllSources() {
	for id := range r.sources {
		r.ReleaseSource(id)
	}
}

// ReleaseAllContexts clears the thread context and destroys every context.
// Listener snapshots are dropped with their contexts.
func (r *Registry) ReleaseAllContexts() {
	if r.binding.IsLoaded() {
		if err := r.binding.SetThreadContext(0); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ReleaseAllContexts",
				"error":    err.Error(),
			}).Warn("Failed to clear thread context")
		}
	}
	for info, context := range r.contexts {
		if err := r.binding.DestroyContext(context); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ReleaseAllContexts",
				"output":   info.String(),
				"error":    err.Error(),
			}).Warn("Failed to release OpenAL context")
		}
	}
	r.contexts = make(map[OutputInfo]Context)
	r.listeners = make(map[OutputInfo]ListenerInfo)
}

// ReleaseAllDevices closes every device.
func (r *Registry) ReleaseAllDevices() {
	for name, device := range r.devices {
		if err := r.binding.CloseDevice(device); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ReleaseAllDevices",
				"device":   name,
				"error":    err.Error(),
			}).Warn("Failed to close OpenAL device")
		}
	}
	r.devices = make(map[string]Device)
}

// Reset releases sources, contexts and devices in that order and unloads
// the library. The next query reloads it, which rereads alsoft.ini and the
// HRTF data.
func (r *Registry) Reset() {
	if !r.binding.IsLoaded() {
		r.sources = make(map[uint32]*sourceEntry)
		r.contexts = make(map[OutputInfo]Context)
		r.listeners = make(map[OutputInfo]ListenerInfo)
		r.devices = make(map[string]Device)
		return
	}

	r.ReleaseAllSources()
	r.ReleaseAllContexts()
	r.ReleaseAllDevices()

	if err := r.binding.Unload(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Reset",
			"error":    err.Error(),
		}).Warn("Failed to unload OpenAL library")
	}
}

// SourceCount returns the number of live sources.
func (r *Registry) SourceCount() int {
	return len(r.sources)
}

func boolToCount(v bool) int {
	if v {
		return 1
	}
	return 0
}

func boolToAL(v bool) int32 {
	if v {
		return alTrue
	}
	return alFalse
}
