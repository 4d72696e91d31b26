package openal

import (
	"encoding/binary"
	"fmt"

	"github.com/tessumod/tsplugin/entity"
)

// OutputInfo identifies one device and context pair. It is comparable and
// used as a map key.
type OutputInfo struct {
	DeviceName  string
	SampleRate  uint32
	HrtfEnabled bool
}

// Valid reports whether the output can be opened. An empty device name
// selects the default device.
func (o OutputInfo) Valid() bool {
	return o.SampleRate > 0
}

func (o OutputInfo) String() string {
	return fmt.Sprintf("OutputInfo(device=%q, rate=%d, hrtf=%t)", o.DeviceName, o.SampleRate, o.HrtfEnabled)
}

// contextAttributes returns the zero terminated ALC attribute list.
func (o OutputInfo) contextAttributes() []int32 {
	attrs := []int32{alcFrequency, int32(o.SampleRate)}
	if o.HrtfEnabled {
		attrs = append(attrs,
			alcFormatChannelsSoft, alcStereoSoft,
			alcHrtfSoft, alcTrue,
		)
	}
	return append(attrs, 0)
}

// SourceInfo is the requested state of one source. ID is the stable key,
// the other fields are the current intent. Position is in OpenAL
// coordinates.
type SourceInfo struct {
	Output        OutputInfo
	ID            uint32
	Position      entity.Vector
	RolloffFactor float64
	Relative      bool
	Streaming     bool
}

// Valid reports whether the source refers to a valid output.
func (s SourceInfo) Valid() bool {
	return s.Output.Valid()
}

// ListenerInfo is the requested listener state of one output. Vectors are
// in OpenAL coordinates.
type ListenerInfo struct {
	Output   OutputInfo
	Forward  entity.Vector
	Up       entity.Vector
	Velocity entity.Vector
	Position entity.Vector
	Gain     float64
}

// Valid reports whether the listener refers to a valid output.
func (l ListenerInfo) Valid() bool {
	return l.Output.Valid()
}

// AudioData is one chunk of interleaved PCM.
type AudioData struct {
	Channels      int
	BitsPerSample int
	SampleRate    uint32
	Data          []byte
}

// NewPCM16 wraps signed 16-bit samples into AudioData.
func NewPCM16(samples []int16, channels int, sampleRate uint32) AudioData {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.NativeEndian.PutUint16(data[i*2:], uint16(s))
	}
	return AudioData{
		Channels:      channels,
		BitsPerSample: 16,
		SampleRate:    sampleRate,
		Data:          data,
	}
}

// Silence returns mono 16-bit silence of the given duration in
// milliseconds.
func Silence(sampleRate uint32, millis int) AudioData {
	samples := int(sampleRate) * millis / 1000
	return AudioData{
		Channels:      1,
		BitsPerSample: 16,
		SampleRate:    sampleRate,
		Data:          make([]byte, samples*2),
	}
}

// Format maps the channel count and sample size to an AL buffer format.
func (a AudioData) Format() (int32, error) {
	switch a.Channels {
	case 1:
		switch a.BitsPerSample {
		case 8:
			return alFormatMono8, nil
		case 16:
			return alFormatMono16, nil
		}
	case 2:
		switch a.BitsPerSample {
		case 8:
			return alFormatStereo8, nil
		case 16:
			return alFormatStereo16, nil
		}
	default:
		return 0, newFailure("buffer format", fmt.Sprintf("unsupported channel count %d", a.Channels))
	}
	return 0, newFailure("buffer format", fmt.Sprintf("unsupported bits per sample %d", a.BitsPerSample))
}

func toFloat32(v entity.Vector) (float32, float32, float32) {
	return float32(v.X), float32(v.Y), float32(v.Z)
}
