package gamedata

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessumod/tsplugin/entity"
)

type fixedTime struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fixedTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixedTime) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

func (f *fixedTime) set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) CameraPositionChanged(p entity.Vector)  { r.add("camera position %v", p) }
func (r *recorder) CameraDirectionChanged(d entity.Vector) { r.add("camera direction %v", d) }
func (r *recorder) UserAdded(id uint16)                    { r.add("added %d", id) }
func (r *recorder) UserPositionChanged(id uint16, p entity.Vector) {
	r.add("moved %d %v", id, p)
}
func (r *recorder) UserRemoved(id uint16) { r.add("removed %d", id) }

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

const baseTime = 1700000000

func putFloat(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// TestParseRecord verifies decoding of a hand built record.
func TestParseRecord(t *testing.T) {
	data := make([]byte, headerSize+clientSize+3)
	binary.LittleEndian.PutUint32(data, baseTime)
	putFloat(data[4:], 1)
	putFloat(data[8:], 2)
	putFloat(data[12:], 3)
	putFloat(data[16:], 0)
	putFloat(data[20:], 0)
	putFloat(data[24:], -1)
	data[28] = 1
	binary.LittleEndian.PutUint16(data[29:], 42)
	putFloat(data[31:], 10.5)
	putFloat(data[35:], 0)
	putFloat(data[39:], -4)

	rec, err := ParseRecord(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(baseTime), rec.Timestamp)
	assert.Equal(t, entity.Vector{X: 1, Y: 2, Z: 3}, rec.CameraPosition)
	assert.Equal(t, entity.Vector{Z: -1}, rec.CameraDirection)
	assert.Equal(t, map[uint16]entity.Vector{42: {X: 10.5, Z: -4}}, rec.Clients)

	encoded, err := rec.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data[:headerSize+clientSize], encoded)
}

// TestParseRecordShort verifies truncated records are rejected.
func TestParseRecordShort(t *testing.T) {
	_, err := ParseRecord(make([]byte, headerSize-1))
	assert.ErrorIs(t, err, ErrShortRecord)

	data := make([]byte, headerSize+clientSize)
	data[28] = 2
	_, err = ParseRecord(data)
	assert.ErrorIs(t, err, ErrShortRecord)

	rec, err := ParseRecord(make([]byte, SegmentSize))
	require.NoError(t, err, "zeroed segment is an empty record")
	assert.Empty(t, rec.Clients)
}

// TestRecordTooManyClients verifies the one byte count limit.
func TestRecordTooManyClients(t *testing.T) {
	clients := make(map[uint16]entity.Vector)
	for i := 0; i <= MaxClients; i++ {
		clients[uint16(i)] = entity.Vector{}
	}
	_, err := Record{Clients: clients}.MarshalBinary()
	assert.ErrorIs(t, err, ErrTooManyClients)
}

// TestReaderEvents verifies event order for additions, moves and removals.
func TestReaderEvents(t *testing.T) {
	clock := &fixedTime{now: time.Unix(baseTime, 0)}
	rec := &recorder{}
	reader := NewReader(rec, clock)

	reader.Update(Record{
		Timestamp:       baseTime,
		CameraPosition:  entity.Vector{X: 1},
		CameraDirection: entity.Vector{Z: 1},
		Clients: map[uint16]entity.Vector{
			2: {X: 20},
			1: {X: 10},
		},
	})
	assert.Equal(t, []string{
		"camera position (1, 0, 0)",
		"camera direction (0, 0, 1)",
		"added 1",
		"moved 1 (10, 0, 0)",
		"added 2",
		"moved 2 (20, 0, 0)",
	}, rec.take())

	reader.Update(Record{
		Timestamp:       baseTime,
		CameraPosition:  entity.Vector{X: 1},
		CameraDirection: entity.Vector{Z: 1},
		Clients: map[uint16]entity.Vector{
			1: {X: 11},
			3: {X: 30},
		},
	})
	assert.Equal(t, []string{
		"moved 1 (11, 0, 0)",
		"added 3",
		"moved 3 (30, 0, 0)",
		"removed 2",
	}, rec.take())

	reader.Update(Record{
		Timestamp:       baseTime,
		CameraPosition:  entity.Vector{X: 1},
		CameraDirection: entity.Vector{Z: 1},
		Clients: map[uint16]entity.Vector{
			1: {X: 11},
			3: {X: 30},
		},
	})
	assert.Empty(t, rec.take(), "unchanged record")
}

// TestReaderLiveness verifies a record older than five seconds clears
// everything.
func TestReaderLiveness(t *testing.T) {
	clock := &fixedTime{now: time.Unix(baseTime, 0)}
	rec := &recorder{}
	reader := NewReader(rec, clock)

	live := Record{
		Timestamp:       baseTime,
		CameraPosition:  entity.Vector{X: 1},
		CameraDirection: entity.Vector{Z: 1},
		Clients:         map[uint16]entity.Vector{7: {Y: 1}},
	}
	reader.Update(live)
	rec.take()

	clock.set(time.Unix(baseTime+5, 0))
	reader.Update(live)
	assert.Empty(t, rec.take(), "five seconds is still live")

	clock.set(time.Unix(baseTime+6, 0))
	reader.Update(live)
	assert.Equal(t, []string{
		"camera position (0, 0, 0)",
		"camera direction (0, 0, 0)",
		"removed 7",
	}, rec.take())

	reader.Update(live)
	assert.Empty(t, rec.take())
}

// TestReaderReset verifies Reset removes known clients.
func TestReaderReset(t *testing.T) {
	clock := &fixedTime{now: time.Unix(baseTime, 0)}
	rec := &recorder{}
	reader := NewReader(rec, clock)
	reader.Update(Record{Timestamp: baseTime, Clients: map[uint16]entity.Vector{4: {X: 1}}})
	rec.take()

	reader.Reset()
	assert.Equal(t, []string{"removed 4"}, rec.take())
}

// TestPollerPoll verifies a segment record reaches the reader.
func TestPollerPoll(t *testing.T) {
	clock := &fixedTime{now: time.Unix(baseTime, 0)}
	rec := &recorder{}
	segment := NewMemorySegment(SegmentSize)
	poller := NewPoller(segment, NewReader(rec, clock), clock)

	data, err := Record{Timestamp: baseTime, Clients: map[uint16]entity.Vector{9: {X: 1}}}.MarshalBinary()
	require.NoError(t, err)
	segment.Write(data)

	poller.Poll()
	assert.Equal(t, []string{"added 9", "moved 9 (1, 0, 0)"}, rec.take())

	poller.segment = NewMemorySegment(4)
	poller.Poll()
	assert.Empty(t, rec.take(), "unreadable record skipped")
}

// TestPollerStartStop verifies background polling and shutdown.
func TestPollerStartStop(t *testing.T) {
	clock := &fixedTime{now: time.Unix(baseTime, 0)}
	rec := &recorder{}
	segment := NewMemorySegment(SegmentSize)
	poller := NewPoller(segment, NewReader(rec, clock), clock)

	require.NoError(t, poller.Start(context.Background()))
	assert.ErrorIs(t, poller.Start(context.Background()), ErrPollerRunning)

	data, err := Record{Timestamp: baseTime, Clients: map[uint16]entity.Vector{9: {X: 1}}}.MarshalBinary()
	require.NoError(t, err)
	segment.Write(data)

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.events) >= 2
	}, 2*time.Second, 20*time.Millisecond)

	poller.Stop()
	poller.Stop()
	require.NoError(t, poller.Start(context.Background()), "restart after stop")
	poller.Stop()
}

// TestPollerContextCancel verifies cancelling the context stops polling.
func TestPollerContextCancel(t *testing.T) {
	poller := NewPoller(NewMemorySegment(SegmentSize), NewReader(&recorder{}, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, poller.Start(ctx))

	done := poller.done
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	poller.Stop()
}

// TestOpenSegment verifies the mapped segment sees file content.
func TestOpenSegment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file backed segment is unix only")
	}
	t.Setenv("TMPDIR", t.TempDir())
	name := "TessuModSegmentTest"

	segment, err := OpenSegment(name, SegmentSize)
	require.NoError(t, err)
	assert.Len(t, segment.Snapshot(), SegmentSize)

	f, err := os.OpenFile(filepath.Join(os.TempDir(), name), os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{1, 2, 3}, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, []byte{1, 2, 3}, segment.Snapshot()[:3])

	other, err := OpenSegment(name, SegmentSize)
	require.NoError(t, err)
	other.Write([]byte{9})
	require.NoError(t, other.Close())
	assert.Equal(t, []byte{9, 0, 0}, segment.Snapshot()[:3], "writers share the mapping")

	require.NoError(t, segment.Close())
	assert.Nil(t, segment.Snapshot())
	assert.NoError(t, segment.Close())
}

// TestTimeProviderFallback verifies a nil clock falls back to the system
// clock and an injected one is kept.
func TestTimeProviderFallback(t *testing.T) {
	clock := &fixedTime{now: time.Unix(100, 0)}
	assert.Same(t, clock, getTimeProvider(clock))

	tp := getTimeProvider(nil)
	assert.IsType(t, RealTimeProvider{}, tp)
	assert.WithinDuration(t, time.Now(), tp.Now(), time.Minute)
}
