package gamedata

import "sync"

// Shared memory segment the game writes its records into.
const (
	SegmentName = "TessuModTSPlugin3dAudio"
	SegmentSize = 1024
)

// Segment is a readable view of the game's shared memory.
type Segment interface {
	// Snapshot copies the current segment content.
	Snapshot() []byte
	Close() error
}

// WritableSegment is a Segment records can be published to, as the game
// does.
type WritableSegment interface {
	Segment
	Write(data []byte)
}

// MemorySegment is an in-process Segment.
type MemorySegment struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySegment creates a zeroed segment of size bytes.
func NewMemorySegment(size int) *MemorySegment {
	return &MemorySegment{data: make([]byte, size)}
}

// Write replaces the segment content from offset 0, truncating data to
// the segment size.
func (m *MemorySegment) Write(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	copy(m.data, data)
}

func (m *MemorySegment) Snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

func (m *MemorySegment) Close() error { return nil }

// mappedSegment is a Segment over memory shared with another process.
type mappedSegment struct {
	data   []byte
	unmap  func() error
	closed bool
	mu     sync.Mutex
}

func (s *mappedSegment) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return append([]byte(nil), s.data...)
}

// Write replaces the segment content from offset 0.
func (s *mappedSegment) Write(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	clear(s.data)
	copy(s.data, data)
}

func (s *mappedSegment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.data = nil
	return s.unmap()
}

var (
	_ WritableSegment = (*MemorySegment)(nil)
	_ WritableSegment = (*mappedSegment)(nil)
)
