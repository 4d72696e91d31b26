package backend

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/openal"
)

// Test tone parameters.
const (
	TestToneFrequency = 440
	TestToneSeconds   = 1
	testToneAmplitude = 0.5
)

// LoadWav decodes a PCM WAV file into audio data OpenAL accepts. Samples
// wider than 16 bits are narrowed to 16 bits.
func LoadWav(path string) (openal.AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return openal.AudioData{}, fmt.Errorf("open test sound: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return openal.AudioData{}, fmt.Errorf("%w: %s", ErrInvalidWav, path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return openal.AudioData{}, fmt.Errorf("%w: %v", ErrInvalidWav, err)
	}
	if len(buf.Data) == 0 {
		return openal.AudioData{}, ErrEmptyWav
	}

	channels := int(decoder.NumChans)
	bits := int(decoder.BitDepth)
	rate := decoder.SampleRate

	logrus.WithFields(logrus.Fields{
		"function":    "LoadWav",
		"path":        path,
		"channels":    channels,
		"bits":        bits,
		"sample_rate": rate,
		"samples":     len(buf.Data),
	}).Debug("Decoded test sound")

	switch {
	case bits == 8:
		data := make([]byte, len(buf.Data))
		for i, v := range buf.Data {
			data[i] = byte(v)
		}
		return openal.AudioData{Channels: channels, BitsPerSample: 8, SampleRate: rate, Data: data}, nil
	case bits >= 16:
		samples := make([]int16, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = int16(v >> (bits - 16))
		}
		return openal.NewPCM16(samples, channels, rate), nil
	default:
		return openal.AudioData{}, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWav, bits)
	}
}

// WriteTestTone writes a mono 16-bit sine tone WAV file to path.
func WriteTestTone(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create test tone: %w", err)
	}

	frames := SampleRate * TestToneSeconds
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, frames),
	}
	for i := range buf.Data {
		phase := 2 * math.Pi * TestToneFrequency * float64(i) / SampleRate
		buf.Data[i] = int(testToneAmplitude * math.MaxInt16 * math.Sin(phase))
	}

	encoder := wav.NewEncoder(f, SampleRate, 16, 1, 1)
	if err := encoder.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("write test tone: %w", err)
	}
	if err := encoder.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finish test tone: %w", err)
	}
	return f.Close()
}
