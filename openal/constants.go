package openal

// AL enum values used by this package. Values match al.h, alext.h and
// alc.h of OpenAL Soft.
const (
	alNoError = 0
	alFalse   = 0
	alTrue    = 1

	alSourceRelative   = 0x0202
	alPosition         = 0x1004
	alVelocity         = 0x1006
	alLooping          = 0x1007
	alBuffer           = 0x1009
	alGain             = 0x100A
	alOrientation      = 0x100F
	alSourceState      = 0x1010
	alInitial          = 0x1011
	alPlaying          = 0x1012
	alPaused           = 0x1013
	alStopped          = 0x1014
	alBuffersQueued    = 0x1015
	alBuffersProcessed = 0x1016
	alRolloffFactor    = 0x1021

	alFormatMono8    = 0x1100
	alFormatMono16   = 0x1101
	alFormatStereo8  = 0x1102
	alFormatStereo16 = 0x1103

	alInvalidName      = 0xA001
	alInvalidEnum      = 0xA002
	alInvalidValue     = 0xA003
	alInvalidOperation = 0xA004
	alOutOfMemory      = 0xA005
)

// ALC enum values.
const (
	alcNoError = 0
	alcTrue    = 1

	alcFrequency          = 0x1007
	alcStereoSoft         = 0x1501
	alcFormatChannelsSoft = 0x1990
	alcHrtfSoft           = 0x1992

	alcInvalidDevice  = 0xA001
	alcInvalidContext = 0xA002
	alcInvalidEnum    = 0xA003
	alcInvalidValue   = 0xA004
	alcOutOfMemory    = 0xA005
)

// Exported parameter names, for Binding implementations outside this
// package (such as the simulator) and for tests inspecting native calls.
const (
	SourceRelative   int32 = alSourceRelative
	Position         int32 = alPosition
	Velocity         int32 = alVelocity
	Looping          int32 = alLooping
	BufferParam      int32 = alBuffer
	Gain             int32 = alGain
	Orientation      int32 = alOrientation
	SourceState      int32 = alSourceState
	BuffersQueued    int32 = alBuffersQueued
	BuffersProcessed int32 = alBuffersProcessed
	RolloffFactor    int32 = alRolloffFactor

	StateInitial int32 = alInitial
	StatePlaying int32 = alPlaying
	StatePaused  int32 = alPaused
	StateStopped int32 = alStopped

	FormatMono8    int32 = alFormatMono8
	FormatMono16   int32 = alFormatMono16
	FormatStereo8  int32 = alFormatStereo8
	FormatStereo16 int32 = alFormatStereo16

	ErrorInvalidName      int32 = alInvalidName
	ErrorInvalidEnum      int32 = alInvalidEnum
	ErrorInvalidValue     int32 = alInvalidValue
	ErrorInvalidOperation int32 = alInvalidOperation
	ErrorOutOfMemory      int32 = alOutOfMemory

	ContextFrequency      int32 = alcFrequency
	ContextFormatChannels int32 = alcFormatChannelsSoft
	ContextStereo         int32 = alcStereoSoft
	ContextHrtf           int32 = alcHrtfSoft
	ContextTrue           int32 = alcTrue

	ContextErrorInvalidDevice  int32 = alcInvalidDevice
	ContextErrorInvalidContext int32 = alcInvalidContext
)
