// Package oalsim provides a simulated openal.Binding for tests.
//
// Sim keeps enough OpenAL state to reject the misuse real drivers reject:
// calls without a current context, sources used from another context,
// deleting queued buffers and rebinding a playing source all fail with the
// matching AL error. Every call is recorded in order.
package oalsim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/openal"
)

// Call is one recorded native call.
type Call struct {
	Op      string
	Source  openal.Source
	Context openal.Context
	Param   int32
	Ints    []int32
	Floats  []float32
	Buffers []openal.Buffer
	Err     error
}

type source struct {
	context   openal.Context
	queue     []openal.Buffer
	processed int
	state     int32
	position  [3]float32
	rolloff   float32
	relative  int32
	looping   int32
}

// Listener is the listener state of one simulated context.
type Listener struct {
	Orientation [6]float32
	Position    [3]float32
	Velocity    [3]float32
	Gain        float32
}

// Sim is a simulated OpenAL library.
type Sim struct {
	mu sync.Mutex

	// LoadErr makes Load fail when set.
	LoadErr error

	loaded   bool
	loads    int
	unloads  int
	next     uint32
	current  openal.Context
	devices  map[openal.Device]string
	contexts map[openal.Context]openal.Device
	attrs    map[openal.Context][]int32
	sources  map[openal.Source]*source
	buffers  map[openal.Buffer]int
	listener map[openal.Context]*Listener
	failures map[string][]int32
	calls    []Call
}

// New creates an unloaded simulator.
func New() *Sim {
	logrus.WithFields(logrus.Fields{
		"function": "oalsim.New",
	}).Debug("Creating simulated OpenAL binding")

	return &Sim{
		devices:  make(map[openal.Device]string),
		contexts: make(map[openal.Context]openal.Device),
		attrs:    make(map[openal.Context][]int32),
		sources:  make(map[openal.Source]*source),
		buffers:  make(map[openal.Buffer]int),
		listener: make(map[openal.Context]*Listener),
		failures: make(map[string][]int32),
	}
}

// FailNext makes the next call of op (a Binding method name) fail with
// code. Multiple calls queue up.
func (s *Sim) FailNext(op string, code int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], code)
}

// begin records the call and returns the error it must fail with, if any.
func (s *Sim) begin(c Call) error {
	var err error
	switch {
	case !s.loaded:
		err = openal.ErrLibNotLoaded
	case len(s.failures[c.Op]) > 0:
		code := s.failures[c.Op][0]
		s.failures[c.Op] = s.failures[c.Op][1:]
		err = &openal.Failure{Op: c.Op, Code: code, Description: "simulated failure"}
	}
	c.Err = err
	s.calls = append(s.calls, c)
	return err
}

// fail records a driver reported error on the last call.
func (s *Sim) fail(op string, code int32) error {
	err := &openal.Failure{Op: op, Code: code, Description: alErrorString(code)}
	s.calls[len(s.calls)-1].Err = err
	return err
}

func (s *Sim) handle() uint32 {
	s.next++
	return s.next
}

// needContext checks that a context is current.
func (s *Sim) needContext(op string) error {
	if s.current == 0 {
		return s.fail(op, openal.ErrorInvalidOperation)
	}
	return nil
}

// lookupSource returns a source of the current context.
func (s *Sim) lookupSource(op string, id openal.Source) (*source, error) {
	if err := s.needContext(op); err != nil {
		return nil, err
	}
	src, ok := s.sources[id]
	if !ok || src.context != s.current {
		return nil, s.fail(op, openal.ErrorInvalidName)
	}
	return src, nil
}

func (s *Sim) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: "Load"})
	if s.LoadErr != nil {
		return fmt.Errorf("%w: %v", openal.ErrLibLoad, s.LoadErr)
	}
	if !s.loaded {
		s.loaded = true
		s.loads++
	}
	return nil
}

func (s *Sim) Unload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: "Unload"})
	if s.loaded {
		s.loaded = false
		s.unloads++
		s.current = 0
	}
	return nil
}

func (s *Sim) IsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Sim) OpenDevice(name string) (openal.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "OpenDevice"}); err != nil {
		return 0, err
	}
	d := openal.Device(s.handle())
	s.devices[d] = name
	return d, nil
}

func (s *Sim) CloseDevice(device openal.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "CloseDevice"}); err != nil {
		return err
	}
	if _, ok := s.devices[device]; !ok {
		return s.fail("CloseDevice", openal.ContextErrorInvalidDevice)
	}
	for _, d := range s.contexts {
		if d == device {
			return s.fail("CloseDevice", openal.ContextErrorInvalidDevice)
		}
	}
	delete(s.devices, device)
	return nil
}

func (s *Sim) CreateContext(device openal.Device, attrs []int32) (openal.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "CreateContext", Ints: append([]int32(nil), attrs...)}); err != nil {
		return 0, err
	}
	if _, ok := s.devices[device]; !ok {
		return 0, s.fail("CreateContext", openal.ContextErrorInvalidDevice)
	}
	c := openal.Context(s.handle())
	s.contexts[c] = device
	s.attrs[c] = append([]int32(nil), attrs...)
	s.listener[c] = &Listener{Gain: 1, Orientation: [6]float32{0, 0, -1, 0, 1, 0}}
	return c, nil
}

func (s *Sim) DestroyContext(context openal.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "DestroyContext", Context: context}); err != nil {
		return err
	}
	if _, ok := s.contexts[context]; !ok {
		return s.fail("DestroyContext", openal.ContextErrorInvalidContext)
	}
	for id, src := range s.sources {
		if src.context == context {
			delete(s.sources, id)
		}
	}
	delete(s.contexts, context)
	delete(s.attrs, context)
	delete(s.listener, context)
	if s.current == context {
		s.current = 0
	}
	return nil
}

func (s *Sim) SetThreadContext(context openal.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "SetThreadContext", Context: context}); err != nil {
		return err
	}
	if context != 0 {
		if _, ok := s.contexts[context]; !ok {
			return s.fail("SetThreadContext", openal.ContextErrorInvalidContext)
		}
	}
	s.current = context
	return nil
}

func (s *Sim) GenSource() (openal.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "GenSource"}); err != nil {
		return 0, err
	}
	if err := s.needContext("GenSource"); err != nil {
		return 0, err
	}
	id := openal.Source(s.handle())
	s.sources[id] = &source{context: s.current, state: openal.StateInitial, rolloff: 1}
	s.calls[len(s.calls)-1].Source = id
	return id, nil
}

func (s *Sim) DeleteSource(id openal.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "DeleteSource", Source: id}); err != nil {
		return err
	}
	if _, err := s.lookupSource("DeleteSource", id); err != nil {
		return err
	}
	delete(s.sources, id)
	return nil
}

func (s *Sim) Source3f(id openal.Source, param int32, x, y, z float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "Source3f", Source: id, Param: param, Floats: []float32{x, y, z}}); err != nil {
		return err
	}
	src, err := s.lookupSource("Source3f", id)
	if err != nil {
		return err
	}
	if param != openal.Position && param != openal.Velocity {
		return s.fail("Source3f", openal.ErrorInvalidEnum)
	}
	if param == openal.Position {
		src.position = [3]float32{x, y, z}
	}
	return nil
}

func (s *Sim) Sourcef(id openal.Source, param int32, value float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "Sourcef", Source: id, Param: param, Floats: []float32{value}}); err != nil {
		return err
	}
	src, err := s.lookupSource("Sourcef", id)
	if err != nil {
		return err
	}
	if param == openal.RolloffFactor {
		src.rolloff = value
	}
	return nil
}

func (s *Sim) Sourcei(id openal.Source, param int32, value int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "Sourcei", Source: id, Param: param, Ints: []int32{value}}); err != nil {
		return err
	}
	src, err := s.lookupSource("Sourcei", id)
	if err != nil {
		return err
	}
	switch param {
	case openal.SourceRelative:
		src.relative = value
	case openal.Looping:
		src.looping = value
	case openal.BufferParam:
		if src.state == openal.StatePlaying || src.state == openal.StatePaused {
			return s.fail("Sourcei", openal.ErrorInvalidOperation)
		}
		if value == 0 {
			src.queue = nil
			src.processed = 0
			return nil
		}
		if _, ok := s.buffers[openal.Buffer(value)]; !ok {
			return s.fail("Sourcei", openal.ErrorInvalidValue)
		}
		src.queue = []openal.Buffer{openal.Buffer(value)}
		src.processed = 0
	default:
		return s.fail("Sourcei", openal.ErrorInvalidEnum)
	}
	return nil
}

func (s *Sim) GetSourcei(id openal.Source, param int32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "GetSourcei", Source: id, Param: param}); err != nil {
		return 0, err
	}
	src, err := s.lookupSource("GetSourcei", id)
	if err != nil {
		return 0, err
	}
	switch param {
	case openal.SourceState:
		return src.state, nil
	case openal.BuffersProcessed:
		return int32(src.processed), nil
	case openal.BuffersQueued:
		return int32(len(src.queue)), nil
	case openal.SourceRelative:
		return src.relative, nil
	case openal.Looping:
		return src.looping, nil
	}
	return 0, s.fail("GetSourcei", openal.ErrorInvalidEnum)
}

func (s *Sim) SourcePlay(id openal.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "SourcePlay", Source: id}); err != nil {
		return err
	}
	src, err := s.lookupSource("SourcePlay", id)
	if err != nil {
		return err
	}
	src.state = openal.StatePlaying
	src.processed = 0
	return nil
}

func (s *Sim) SourceStop(id openal.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "SourceStop", Source: id}); err != nil {
		return err
	}
	src, err := s.lookupSource("SourceStop", id)
	if err != nil {
		return err
	}
	if src.state != openal.StateInitial {
		src.state = openal.StateStopped
		src.processed = len(src.queue)
	}
	return nil
}

func (s *Sim) SourceQueueBuffers(id openal.Source, buffers []openal.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "SourceQueueBuffers", Source: id, Buffers: append([]openal.Buffer(nil), buffers...)}); err != nil {
		return err
	}
	src, err := s.lookupSource("SourceQueueBuffers", id)
	if err != nil {
		return err
	}
	for _, b := range buffers {
		if _, ok := s.buffers[b]; !ok {
			return s.fail("SourceQueueBuffers", openal.ErrorInvalidName)
		}
	}
	src.queue = append(src.queue, buffers...)
	return nil
}

func (s *Sim) SourceUnqueueBuffers(id openal.Source, count int) ([]openal.Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "SourceUnqueueBuffers", Source: id, Ints: []int32{int32(count)}}); err != nil {
		return nil, err
	}
	src, err := s.lookupSource("SourceUnqueueBuffers", id)
	if err != nil {
		return nil, err
	}
	if count > src.processed {
		return nil, s.fail("SourceUnqueueBuffers", openal.ErrorInvalidValue)
	}
	out := append([]openal.Buffer(nil), src.queue[:count]...)
	src.queue = src.queue[count:]
	src.processed -= count
	s.calls[len(s.calls)-1].Buffers = out
	return out, nil
}

func (s *Sim) GenBuffer() (openal.Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "GenBuffer"}); err != nil {
		return 0, err
	}
	if err := s.needContext("GenBuffer"); err != nil {
		return 0, err
	}
	b := openal.Buffer(s.handle())
	s.buffers[b] = 0
	s.calls[len(s.calls)-1].Buffers = []openal.Buffer{b}
	return b, nil
}

func (s *Sim) DeleteBuffers(buffers []openal.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "DeleteBuffers", Buffers: append([]openal.Buffer(nil), buffers...)}); err != nil {
		return err
	}
	if err := s.needContext("DeleteBuffers"); err != nil {
		return err
	}
	for _, b := range buffers {
		if _, ok := s.buffers[b]; !ok {
			return s.fail("DeleteBuffers", openal.ErrorInvalidName)
		}
		if s.inUse(b) {
			return s.fail("DeleteBuffers", openal.ErrorInvalidOperation)
		}
	}
	for _, b := range buffers {
		delete(s.buffers, b)
	}
	return nil
}

func (s *Sim) inUse(b openal.Buffer) bool {
	for _, src := range s.sources {
		for _, q := range src.queue {
			if q == b {
				return true
			}
		}
	}
	return false
}

func (s *Sim) BufferData(buffer openal.Buffer, format int32, data []byte, frequency int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Call{Op: "BufferData", Param: format, Ints: []int32{int32(len(data)), frequency}, Buffers: []openal.Buffer{buffer}}
	if err := s.begin(c); err != nil {
		return err
	}
	if err := s.needContext("BufferData"); err != nil {
		return err
	}
	if _, ok := s.buffers[buffer]; !ok {
		return s.fail("BufferData", openal.ErrorInvalidName)
	}
	switch format {
	case openal.FormatMono8, openal.FormatMono16, openal.FormatStereo8, openal.FormatStereo16:
	default:
		return s.fail("BufferData", openal.ErrorInvalidEnum)
	}
	s.buffers[buffer] = len(data)
	return nil
}

func (s *Sim) Listenerf(param int32, value float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "Listenerf", Param: param, Floats: []float32{value}}); err != nil {
		return err
	}
	if err := s.needContext("Listenerf"); err != nil {
		return err
	}
	if param != openal.Gain {
		return s.fail("Listenerf", openal.ErrorInvalidEnum)
	}
	s.listener[s.current].Gain = value
	return nil
}

func (s *Sim) Listener3f(param int32, x, y, z float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "Listener3f", Param: param, Floats: []float32{x, y, z}}); err != nil {
		return err
	}
	if err := s.needContext("Listener3f"); err != nil {
		return err
	}
	l := s.listener[s.current]
	switch param {
	case openal.Position:
		l.Position = [3]float32{x, y, z}
	case openal.Velocity:
		l.Velocity = [3]float32{x, y, z}
	default:
		return s.fail("Listener3f", openal.ErrorInvalidEnum)
	}
	return nil
}

func (s *Sim) Listenerfv(param int32, values []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(Call{Op: "Listenerfv", Param: param, Floats: append([]float32(nil), values...)}); err != nil {
		return err
	}
	if err := s.needContext("Listenerfv"); err != nil {
		return err
	}
	if param != openal.Orientation || len(values) != 6 {
		return s.fail("Listenerfv", openal.ErrorInvalidValue)
	}
	copy(s.listener[s.current].Orientation[:], values)
	return nil
}

var _ openal.Binding = (*Sim)(nil)

func alErrorString(code int32) string {
	switch code {
	case openal.ErrorInvalidName:
		return "Invalid Name"
	case openal.ErrorInvalidEnum:
		return "Invalid Enum"
	case openal.ErrorInvalidValue:
		return "Invalid Value"
	case openal.ErrorInvalidOperation:
		return "Invalid Operation"
	case openal.ErrorOutOfMemory:
		return "Out of Memory"
	}
	return fmt.Sprintf("error %#x", code)
}

func sortedSources(m map[openal.Source]*source) []openal.Source {
	out := make([]openal.Source, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
