package oalsim

import (
	"github.com/tessumod/tsplugin/openal"
)

// Calls returns the recorded calls of op, or every call when op is "".
func (s *Sim) Calls(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Call
	for _, c := range s.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of successful calls of op.
func (s *Sim) Count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.calls {
		if c.Op == op && c.Err == nil {
			n++
		}
	}
	return n
}

// CountParam returns the number of successful calls of op with param.
func (s *Sim) CountParam(op string, param int32) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.calls {
		if c.Op == op && c.Param == param && c.Err == nil {
			n++
		}
	}
	return n
}

// Ops returns the names of all recorded calls in order.
func (s *Sim) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Op
	}
	return out
}

// ClearCalls forgets the recorded calls.
func (s *Sim) ClearCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Loads returns how many times the library was loaded.
func (s *Sim) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// CurrentContext returns the thread context.
func (s *Sim) CurrentContext() openal.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// LiveDevices returns the number of open devices.
func (s *Sim) LiveDevices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices)
}

// LiveContexts returns the number of existing contexts.
func (s *Sim) LiveContexts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contexts)
}

// LiveBuffers returns the number of undeleted buffers.
func (s *Sim) LiveBuffers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffers)
}

// Sources returns the live sources in creation order.
func (s *Sim) Sources() []openal.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedSources(s.sources)
}

// ContextAttributes returns the attribute list a context was created with.
func (s *Sim) ContextAttributes(c openal.Context) []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int32(nil), s.attrs[c]...)
}

// Contexts returns the live contexts.
func (s *Sim) Contexts() []openal.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]openal.Context, 0, len(s.contexts))
	for c := range s.contexts {
		out = append(out, c)
	}
	return out
}

// SourceContext returns the context a source was created in.
func (s *Sim) SourceContext(id openal.Source) openal.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[id]; ok {
		return src.context
	}
	return 0
}

// Position returns a source's position.
func (s *Sim) Position(id openal.Source) [3]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[id]; ok {
		return src.position
	}
	return [3]float32{}
}

// State returns a source's AL_SOURCE_STATE.
func (s *Sim) State(id openal.Source) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[id]; ok {
		return src.state
	}
	return 0
}

// Queue returns the buffers attached to a source.
func (s *Sim) Queue(id openal.Source) []openal.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[id]; ok {
		return append([]openal.Buffer(nil), src.queue...)
	}
	return nil
}

// Looping reports a source's AL_LOOPING value.
func (s *Sim) Looping(id openal.Source) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[id]; ok {
		return src.looping != 0
	}
	return false
}

// Listener returns the listener state of a context.
func (s *Sim) Listener(c openal.Context) Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.listener[c]; ok {
		return *l
	}
	return Listener{}
}

// Process marks the count oldest queued buffers of a source as played.
func (s *Sim) Process(id openal.Source, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[id]; ok {
		src.processed += count
		if src.processed > len(src.queue) {
			src.processed = len(src.queue)
		}
	}
}

// Drain plays out a source's whole queue and stops it.
func (s *Sim) Drain(id openal.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[id]; ok {
		src.processed = len(src.queue)
		src.state = openal.StateStopped
	}
}
