package plugin

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessumod/tsplugin/backend"
	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/gamedata"
	"github.com/tessumod/tsplugin/openal"
	"github.com/tessumod/tsplugin/openal/oalsim"
	"github.com/tessumod/tsplugin/settings"
)

type nullHost struct {
	mu        sync.Mutex
	positions map[uint16]entity.Vector
}

func (h *nullHost) Set3DAttributes(id uint16, position entity.Vector) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.positions == nil {
		h.positions = make(map[uint16]entity.Vector)
	}
	h.positions[id] = position
	return nil
}

func (h *nullHost) SetListener3DAttributes(position, forward, up entity.Vector) error {
	return nil
}

type pluginFixture struct {
	plugin  *Plugin
	segment *gamedata.MemorySegment
	chat    *fakeChat
	host    *nullHost
	voice   *oalsim.Sim
	test    *oalsim.Sim
}

func newPluginFixture(t *testing.T) *pluginFixture {
	t.Helper()
	t.Setenv(openal.LogLevelEnv, "")

	dir := t.TempDir()
	f := &pluginFixture{
		segment: gamedata.NewMemorySegment(gamedata.SegmentSize),
		chat:    &fakeChat{myID: 1, device: "Speakers"},
		host:    &nullHost{},
	}
	var sims []*oalsim.Sim
	p, err := New(Config{
		ConfigDir: filepath.Join(dir, "config"),
		OpenALPaths: backend.Paths{
			ConfigFile: filepath.Join(dir, "openal", "alsoft.conf"),
			HrtfDirs:   []string{filepath.Join(dir, "openal", "hrtf")},
		},
		NewBinding: func() openal.Binding {
			s := oalsim.New()
			sims = append(sims, s)
			return s
		},
		Segment: f.segment,
		Chat:    f.chat,
		Host:    f.host,
	})
	require.NoError(t, err)
	require.Len(t, sims, 2)
	f.plugin, f.voice, f.test = p, sims[0], sims[1]

	require.NoError(t, p.Start(testContext(t)))
	t.Cleanup(p.Stop)
	return f
}

func (f *pluginFixture) writeRecord(t *testing.T, clients map[uint16]entity.Vector) {
	t.Helper()
	data, err := gamedata.Record{
		Timestamp:       uint32(time.Now().Unix()),
		CameraPosition:  entity.Vector{},
		CameraDirection: entity.Vector{Z: 1},
		Clients:         clients,
	}.MarshalBinary()
	require.NoError(t, err)
	f.segment.Write(data)
}

// TestPluginRequiresCollaborators verifies New rejects a missing client.
func TestPluginRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

// TestPluginLifecycle verifies Start and Stop guard against misuse.
func TestPluginLifecycle(t *testing.T) {
	f := newPluginFixture(t)

	assert.ErrorIs(t, f.plugin.Start(testContext(t)), ErrAlreadyStarted)
	assert.Equal(t, settings.Defaults(), f.plugin.Settings())

	f.plugin.Stop()
	f.plugin.Stop()
	assert.ErrorIs(t, f.plugin.StartTestSound(), ErrNotStarted)
}

// TestPluginPositionsPairedUser verifies game data and chat presence
// together produce a positioned OpenAL source.
func TestPluginPositionsPairedUser(t *testing.T) {
	f := newPluginFixture(t)

	f.plugin.ChatUserAdded(5)
	f.writeRecord(t, map[uint16]entity.Vector{5: {X: 3}, 9: {X: 4}})

	samples := []int16{100, 200, 300}
	require.Eventually(t, func() bool {
		f.plugin.OnEditPlaybackVoiceData(5, samples, 1)
		return samples[0] == 0
	}, 2*time.Second, 20*time.Millisecond, "voice rendered by OpenAL")
	assert.Equal(t, []int16{0, 0, 0}, samples)
	require.Len(t, f.voice.Sources(), 1, "user 9 is not in the chat")

	src := f.voice.Sources()[0]
	assert.Equal(t, [3]float32{3, 0, 0}, f.voice.Position(src))

	f.plugin.ChatUserRemoved(5)
	assert.Empty(t, f.voice.Sources())
}

// TestPluginSwitchToBuiltIn verifies the client's own 3D audio takes over.
func TestPluginSwitchToBuiltIn(t *testing.T) {
	f := newPluginFixture(t)

	f.plugin.ChatUserAdded(5)
	f.writeRecord(t, map[uint16]entity.Vector{5: {X: 3}})
	require.Eventually(t, func() bool {
		user, ok := f.plugin.useCases.User(5)
		return ok && user.Paired()
	}, 2*time.Second, 20*time.Millisecond)

	s := f.plugin.Settings()
	s.Backend = settings.BackendBuiltIn
	require.NoError(t, f.plugin.SaveSettings(s))

	f.host.mu.Lock()
	assert.Equal(t, entity.Vector{X: 3}, f.host.positions[5])
	f.host.mu.Unlock()

	samples := []int16{100}
	f.plugin.OnEditPlaybackVoiceData(5, samples, 1)
	assert.Equal(t, []int16{100}, samples, "voice left to the client")

	rolloff, ok := f.plugin.Custom3DRolloff(5)
	assert.True(t, ok)
	assert.Equal(t, 1.0, rolloff)
}

// TestPluginTestSound verifies the test tone plays once at a time through
// its own output.
func TestPluginTestSound(t *testing.T) {
	f := newPluginFixture(t)

	require.NoError(t, f.plugin.StartTestSound())
	require.Len(t, f.test.Sources(), 1)
	src := f.test.Sources()[0]
	assert.True(t, f.test.Looping(src))
	assert.Equal(t, [3]float32{10, 0, 0}, f.test.Position(src))
	assert.Empty(t, f.voice.Sources())

	assert.ErrorIs(t, f.plugin.StartTestSound(), ErrTestSoundRunning)

	f.plugin.StopTestSound()
	assert.Empty(t, f.test.Sources())
	require.NoError(t, f.plugin.StartTestSound())
}
