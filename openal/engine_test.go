package openal_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/openal"
	"github.com/tessumod/tsplugin/openal/oalsim"
)

var defaultOutput = openal.OutputInfo{SampleRate: 48000}

func newEngine(t *testing.T) (*openal.Engine, *oalsim.Sim) {
	t.Helper()
	sim := oalsim.New()
	return openal.NewEngine(sim), sim
}

func voiceSource(id uint32) openal.SourceInfo {
	return openal.SourceInfo{Output: defaultOutput, ID: id, Streaming: true}
}

func chunk() openal.AudioData {
	return openal.NewPCM16(make([]int16, 480), 1, 48000)
}

// TestUpdateSourceDiffing verifies a position change issues exactly one
// native call and an unchanged position none.
func TestUpdateSourceDiffing(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(7)
	info.Position = entity.Vector{X: 1, Y: 2, Z: 3}

	require.NoError(t, engine.UpdateSource(info))
	assert.Equal(t, 1, sim.CountParam("Source3f", openal.Position), "creation applies every option")
	assert.Equal(t, 1, sim.CountParam("Sourcef", openal.RolloffFactor))
	assert.Equal(t, 1, sim.CountParam("Sourcei", openal.SourceRelative))
	assert.Equal(t, 1, sim.CountParam("Sourcei", openal.Looping))

	require.NoError(t, engine.UpdateSource(info))
	assert.Equal(t, 1, sim.CountParam("Source3f", openal.Position))

	info.Position = entity.Vector{X: 4, Y: 5, Z: 6}
	require.NoError(t, engine.UpdateSource(info))
	assert.Equal(t, 2, sim.CountParam("Source3f", openal.Position))
	assert.Equal(t, 1, sim.CountParam("Sourcef", openal.RolloffFactor), "unchanged rolloff is not reapplied")

	src := sim.Sources()[0]
	assert.Equal(t, [3]float32{4, 5, 6}, sim.Position(src))

	info.RolloffFactor = 0.5
	require.NoError(t, engine.UpdateSource(info))
	assert.Equal(t, 2, sim.CountParam("Sourcef", openal.RolloffFactor))
	assert.Equal(t, 2, sim.CountParam("Source3f", openal.Position))
}

// TestOutputChangeRecreatesSource verifies a source moved to another output
// is released and exactly one new source is created in the new context.
func TestOutputChangeRecreatesSource(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(3)
	require.NoError(t, engine.UpdateSource(info))
	old := sim.Sources()
	require.Len(t, old, 1)

	info.Output = openal.OutputInfo{DeviceName: "headset", SampleRate: 48000}
	require.NoError(t, engine.UpdateSource(info))

	assert.Equal(t, 1, sim.Count("DeleteSource"))
	assert.Equal(t, 2, sim.Count("GenSource"))
	current := sim.Sources()
	require.Len(t, current, 1)
	assert.NotEqual(t, old[0], current[0])
	assert.Equal(t, sim.CurrentContext(), sim.SourceContext(current[0]))
}

// TestPlayAudioOutputChangeRecreatesSource verifies streaming to a source
// whose output changed releases it and keeps streaming in the new context.
func TestPlayAudioOutputChangeRecreatesSource(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)
	require.NoError(t, engine.PlayAudio(info, chunk()))

	info.Output = openal.OutputInfo{DeviceName: "headset", SampleRate: 48000, HrtfEnabled: true}
	require.NoError(t, engine.PlayAudio(info, chunk()))
	require.NoError(t, engine.PlayAudio(info, chunk()))

	assert.Equal(t, 1, sim.Count("DeleteSource"))
	assert.Equal(t, 2, sim.Count("GenSource"))
	sources := sim.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, sim.CurrentContext(), sim.SourceContext(sources[0]))
	assert.Equal(t, openal.StatePlaying, sim.State(sources[0]))
	assert.Len(t, sim.Queue(sources[0]), 3, "silence lead-in and two chunks")
}

// TestStopAudioOutputChangeRecreatesSource verifies stopping a source on a
// changed output never touches the old context's handle.
func TestStopAudioOutputChangeRecreatesSource(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)
	require.NoError(t, engine.PlayAudio(info, chunk()))

	info.Output = openal.OutputInfo{DeviceName: "headset", SampleRate: 48000}
	require.NoError(t, engine.StopAudio(info))

	assert.Equal(t, 1, sim.Count("DeleteSource"))
	sources := sim.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, sim.CurrentContext(), sim.SourceContext(sources[0]))
}

// TestSourceCreationFailureIsRetried verifies a source whose initial
// options failed to apply is released, so the next call configures a new
// one in full.
func TestSourceCreationFailureIsRetried(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)
	info.Position = entity.Vector{X: 5}
	info.Relative = true

	sim.FailNext("Source3f", openal.ErrorInvalidValue)
	require.Error(t, engine.UpdateSource(info))
	assert.Empty(t, sim.Sources())
	assert.Equal(t, 1, sim.Count("DeleteSource"))

	require.NoError(t, engine.UpdateSource(info))
	sources := sim.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, [3]float32{5, 0, 0}, sim.Position(sources[0]))
	assert.Equal(t, 1, sim.CountParam("Sourcei", openal.SourceRelative))
	assert.Equal(t, 2, sim.Count("GenSource"))
}

// TestReleaseSourceLogsLeakedHandles verifies a release that cannot reach
// the source's context reports what it left behind.
func TestReleaseSourceLogsLeakedHandles(t *testing.T) {
	var buf bytes.Buffer
	originalOut := logrus.StandardLogger().Out
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(originalOut) })

	engine, sim := newEngine(t)
	require.NoError(t, engine.PlayAudio(voiceSource(5), chunk()))

	sim.FailNext("SetThreadContext", openal.ContextErrorInvalidContext)
	engine.ReleaseSource(5)

	assert.Len(t, sim.Sources(), 1)
	assert.Contains(t, buf.String(), "leaked_buffers=2")
}

// TestStreamingThreeChunks verifies the silence lead-in and the single
// play call across three chunks streamed to source 5.
func TestStreamingThreeChunks(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)

	require.NoError(t, engine.PlayAudio(info, chunk()))
	src := sim.Sources()[0]

	queues := sim.Calls("SourceQueueBuffers")
	require.Len(t, queues, 2)
	silence := queues[0].Buffers[0]
	first := queues[1].Buffers[0]
	assert.NotEqual(t, silence, first)
	assert.Equal(t, []openal.Buffer{silence, first}, sim.Queue(src))
	assert.Equal(t, 1, sim.Count("SourcePlay"))
	assert.Equal(t, openal.StatePlaying, sim.State(src))
	assert.Equal(t, openal.StreamPriming, engine.StreamState(5))

	var silenceSize int32
	for _, c := range sim.Calls("BufferData") {
		if c.Buffers[0] == silence {
			silenceSize = c.Ints[0]
		}
	}
	assert.Equal(t, int32(48000/10*2), silenceSize, "100 ms of mono 16-bit silence")

	// the lead-in has played out
	sim.Process(src, 1)
	require.NoError(t, engine.PlayAudio(info, chunk()))
	assert.Equal(t, 3, sim.Count("SourceQueueBuffers"))
	assert.Equal(t, 1, sim.Count("SourcePlay"))
	assert.Equal(t, 1, sim.Count("SourceUnqueueBuffers"))
	assert.NotContains(t, sim.Queue(src), silence)
	assert.Equal(t, openal.StreamPlaying, engine.StreamState(5))

	require.NoError(t, engine.PlayAudio(info, chunk()))
	assert.Equal(t, 4, sim.Count("SourceQueueBuffers"))
	assert.Equal(t, 1, sim.Count("SourcePlay"))
	assert.Len(t, sim.Queue(src), 3)
	assert.Equal(t, 3, sim.LiveBuffers())
}

// TestStreamingRestartsAfterDrain verifies a drained source is primed and
// played again and its played buffers are reclaimed.
func TestStreamingRestartsAfterDrain(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)

	require.NoError(t, engine.PlayAudio(info, chunk()))
	src := sim.Sources()[0]
	sim.Drain(src)

	require.NoError(t, engine.PlayAudio(info, chunk()))
	assert.Equal(t, 2, sim.Count("SourcePlay"))
	assert.Len(t, sim.Queue(src), 2, "new lead-in and new chunk")
	assert.Equal(t, 2, sim.LiveBuffers(), "drained buffers deleted")
	assert.Equal(t, openal.StreamPriming, engine.StreamState(5))
}

// TestPlayAudioReleasesBuffersOnFailure verifies no buffer leaks when
// queuing fails.
func TestPlayAudioReleasesBuffersOnFailure(t *testing.T) {
	engine, sim := newEngine(t)
	sim.FailNext("SourceQueueBuffers", openal.ErrorOutOfMemory)

	err := engine.PlayAudio(voiceSource(5), chunk())
	require.Error(t, err)
	assert.ErrorIs(t, err, openal.ErrNative)
	assert.Equal(t, 0, sim.LiveBuffers())
	assert.Equal(t, 0, sim.Count("SourcePlay"))

	sim.FailNext("BufferData", openal.ErrorOutOfMemory)
	require.Error(t, engine.PlayAudio(voiceSource(5), chunk()))
	assert.Equal(t, 0, sim.LiveBuffers())
}

// TestPlayAudioDataQueueFailure verifies the data buffer is freed when only
// the second queue call fails.
func TestPlayAudioDataQueueFailure(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)

	require.NoError(t, engine.PlayAudio(info, chunk()))
	require.Equal(t, 2, sim.LiveBuffers())

	sim.FailNext("SourceQueueBuffers", openal.ErrorInvalidValue)
	require.Error(t, engine.PlayAudio(info, chunk()))
	assert.Equal(t, 2, sim.LiveBuffers())
}

// TestPlayAudioUnsupportedFormat verifies format validation.
func TestPlayAudioUnsupportedFormat(t *testing.T) {
	engine, sim := newEngine(t)
	data := openal.AudioData{Channels: 3, BitsPerSample: 16, SampleRate: 48000, Data: make([]byte, 12)}

	err := engine.PlayAudio(voiceSource(1), data)
	var failure *openal.Failure
	require.ErrorAs(t, err, &failure)
	assert.Zero(t, failure.Code)
	assert.Equal(t, 0, sim.Count("GenBuffer"))
}

// TestOneShotSource verifies a non-streaming source binds a looping buffer
// and refuses a second one.
func TestOneShotSource(t *testing.T) {
	engine, sim := newEngine(t)
	info := openal.SourceInfo{Output: defaultOutput, ID: 1 << 16, Relative: true}

	require.NoError(t, engine.PlayAudio(info, chunk()))
	src := sim.Sources()[0]
	assert.True(t, sim.Looping(src))
	assert.Len(t, sim.Queue(src), 1)
	assert.Equal(t, 0, sim.Count("SourceQueueBuffers"))
	assert.Equal(t, 1, sim.Count("SourcePlay"))

	err := engine.PlayAudio(info, chunk())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already assigned")
	assert.Equal(t, 1, sim.LiveBuffers())

	engine.ReleaseSource(info.ID)
	assert.Equal(t, 0, sim.LiveBuffers())
	require.NoError(t, engine.PlayAudio(info, chunk()))
}

// TestStopAudio verifies stop and the stream state.
func TestStopAudio(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(2)
	require.NoError(t, engine.PlayAudio(info, chunk()))

	require.NoError(t, engine.StopAudio(info))
	assert.Equal(t, openal.StateStopped, sim.State(sim.Sources()[0]))
	assert.Equal(t, openal.StreamIdle, engine.StreamState(2))

	playing, err := engine.IsPlaying(info)
	require.NoError(t, err)
	assert.False(t, playing)
}

// TestReleaseSourceDeletesBuffers verifies queued buffers go with their
// source.
func TestReleaseSourceDeletesBuffers(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)
	require.NoError(t, engine.PlayAudio(info, chunk()))
	require.NoError(t, engine.PlayAudio(info, chunk()))

	engine.ReleaseSource(5)
	assert.Empty(t, sim.Sources())
	assert.Equal(t, 0, sim.LiveBuffers())
}

// TestUpdateListenerDiffing verifies listener options are diffed against
// the last applied listener.
func TestUpdateListenerDiffing(t *testing.T) {
	engine, sim := newEngine(t)
	listener := openal.ListenerInfo{
		Output:  defaultOutput,
		Forward: entity.Vector{Z: -1},
		Up:      entity.Vector{Y: 1},
		Gain:    1,
	}

	require.NoError(t, engine.UpdateListener(listener))
	assert.Equal(t, 1, sim.Count("Listenerfv"))
	assert.Equal(t, 2, sim.Count("Listener3f"))
	assert.Equal(t, 1, sim.Count("Listenerf"))

	require.NoError(t, engine.UpdateListener(listener))
	assert.Equal(t, 1, sim.Count("Listenerfv"))
	assert.Equal(t, 2, sim.Count("Listener3f"))
	assert.Equal(t, 1, sim.Count("Listenerf"))

	listener.Up = entity.Vector{X: 1}
	require.NoError(t, engine.UpdateListener(listener))
	assert.Equal(t, 2, sim.Count("Listenerfv"), "up change reorients")

	require.NoError(t, engine.UpdateListener(listener))
	assert.Equal(t, 2, sim.Count("Listenerfv"), "snapshot refreshed after apply")

	listener.Gain = 0.5
	require.NoError(t, engine.UpdateListener(listener))
	assert.Equal(t, 2, sim.Count("Listenerf"))
	assert.Equal(t, 2, sim.Count("Listenerfv"))

	l := sim.Listener(sim.CurrentContext())
	assert.Equal(t, [6]float32{0, 0, -1, 1, 0, 0}, l.Orientation)
	assert.Equal(t, float32(0.5), l.Gain)
}

// TestContextAttributes verifies HRTF outputs request stereo HRTF mixing.
func TestContextAttributes(t *testing.T) {
	engine, sim := newEngine(t)
	hrtf := openal.OutputInfo{SampleRate: 44100, HrtfEnabled: true}

	require.NoError(t, engine.UpdateSource(openal.SourceInfo{Output: hrtf, ID: 1}))
	attrs := sim.ContextAttributes(sim.CurrentContext())
	assert.Equal(t, []int32{
		openal.ContextFrequency, 44100,
		openal.ContextFormatChannels, openal.ContextStereo,
		openal.ContextHrtf, openal.ContextTrue,
		0,
	}, attrs)

	require.NoError(t, engine.UpdateSource(openal.SourceInfo{Output: defaultOutput, ID: 2}))
	assert.Equal(t, []int32{openal.ContextFrequency, 48000, 0}, sim.ContextAttributes(sim.CurrentContext()))
	assert.Equal(t, 1, sim.Count("OpenDevice"), "outputs on one device share it")
	assert.Equal(t, 2, sim.Count("CreateContext"))
}

// TestEveryCallAppliesThreadContext verifies each entry point starts by
// making its context current.
func TestEveryCallAppliesThreadContext(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)
	require.NoError(t, engine.UpdateSource(info))
	sim.ClearCalls()

	require.NoError(t, engine.PlayAudio(info, chunk()))
	require.NoError(t, engine.StopAudio(info))
	require.NoError(t, engine.UpdateListener(openal.ListenerInfo{Output: defaultOutput, Gain: 1}))

	ops := sim.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, "SetThreadContext", ops[0])
	assert.Equal(t, 3, sim.Count("SetThreadContext"))
}

// TestInvalidDescriptorIsNoop verifies calls without an output do nothing.
func TestInvalidDescriptorIsNoop(t *testing.T) {
	engine, sim := newEngine(t)

	assert.NoError(t, engine.PlayAudio(openal.SourceInfo{ID: 1}, chunk()))
	assert.NoError(t, engine.StopAudio(openal.SourceInfo{ID: 1}))
	assert.NoError(t, engine.UpdateSource(openal.SourceInfo{ID: 1}))
	assert.NoError(t, engine.UpdateListener(openal.ListenerInfo{}))
	assert.Empty(t, sim.Ops())
}

// TestLibraryLoadFailure verifies load errors reach the caller.
func TestLibraryLoadFailure(t *testing.T) {
	engine, sim := newEngine(t)
	sim.LoadErr = errors.New("not installed")

	err := engine.UpdateSource(voiceSource(1))
	assert.ErrorIs(t, err, openal.ErrLibLoad)
}

// TestResetReleasesEverything verifies teardown order and that objects are
// recreated afterwards.
func TestResetReleasesEverything(t *testing.T) {
	engine, sim := newEngine(t)
	info := voiceSource(5)
	require.NoError(t, engine.PlayAudio(info, chunk()))
	require.NoError(t, engine.UpdateListener(openal.ListenerInfo{Output: defaultOutput, Gain: 1}))
	before := sim.Sources()[0]
	sim.ClearCalls()

	engine.Reset()

	assert.False(t, sim.IsLoaded())
	assert.Empty(t, sim.Sources())
	assert.Equal(t, 0, sim.LiveBuffers())
	assert.Equal(t, 0, sim.LiveContexts())
	assert.Equal(t, 0, sim.LiveDevices())

	ops := sim.Ops()
	index := func(op string) int {
		for i, o := range ops {
			if o == op {
				return i
			}
		}
		return -1
	}
	assert.Less(t, index("DeleteSource"), index("DestroyContext"))
	assert.Less(t, index("DestroyContext"), index("CloseDevice"))
	assert.Less(t, index("CloseDevice"), index("Unload"))
	cleared := -1
	for i, c := range sim.Calls("") {
		if c.Op == "SetThreadContext" && c.Context == 0 {
			cleared = i
			break
		}
	}
	require.NotEqual(t, -1, cleared, "thread context cleared")
	assert.Less(t, cleared, index("DestroyContext"))

	require.NoError(t, engine.PlayAudio(info, chunk()))
	assert.Equal(t, 2, sim.Loads())
	after := sim.Sources()
	require.Len(t, after, 1)
	assert.NotEqual(t, before, after[0])
	assert.Equal(t, 1, sim.Count("SourcePlay"))

	// listener snapshot went with the context
	sim.ClearCalls()
	require.NoError(t, engine.UpdateListener(openal.ListenerInfo{Output: defaultOutput, Gain: 1}))
	assert.Equal(t, 1, sim.Count("Listenerf"))
}

// TestResetWhenNeverLoaded verifies reset of an unused engine is harmless.
func TestResetWhenNeverLoaded(t *testing.T) {
	engine, sim := newEngine(t)
	engine.Reset()
	assert.NoError(t, engine.Close())
	assert.Equal(t, 0, sim.Loads())
}
