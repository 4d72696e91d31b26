package openal

import (
	"github.com/sirupsen/logrus"
)

// SilenceLeadIn is the length of the silence queued ahead of the first
// chunk of a stream, in milliseconds.
const SilenceLeadIn = 100

const bufferAssigned = "playback buffer is already assigned"

// bufferAudioData uploads data into a new native buffer.
func (r *Registry) bufferAudioData(data AudioData) (Buffer, error) {
	format, err := data.Format()
	if err != nil {
		return 0, err
	}
	buffer, err := r.binding.GenBuffer()
	if err != nil {
		return 0, err
	}
	if err := r.binding.BufferData(buffer, format, data.Data, int32(data.SampleRate)); err != nil {
		r.deleteBuffers("buffer audio data", buffer)
		return 0, err
	}
	return buffer, nil
}

// deleteBuffers deletes the non-zero buffers and logs a failure.
func (r *Registry) deleteBuffers(operation string, buffers ...Buffer) {
	var live []Buffer
	for _, b := range buffers {
		if b != 0 {
			live = append(live, b)
		}
	}
	if len(live) == 0 {
		return
	}
	if err := r.binding.DeleteBuffers(live); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "deleteBuffers",
			"operation": operation,
			"buffers":   len(live),
			"error":     err.Error(),
		}).Warn("Failed to delete OpenAL buffers")
	}
}

func (r *Registry) isPlaying(entry *sourceEntry) (bool, error) {
	state, err := r.binding.GetSourcei(entry.handle, alSourceState)
	if err != nil {
		return false, err
	}
	return state == alPlaying, nil
}

// reclaimProcessed unqueues and deletes the buffers the source has
// finished playing. Failures are logged.
func (r *Registry) reclaimProcessed(entry *sourceEntry) {
	fields := logrus.Fields{
		"function":  "reclaimProcessed",
		"source_id": entry.info.ID,
	}

	processed, err := r.binding.GetSourcei(entry.handle, alBuffersProcessed)
	if err != nil {
		logrus.WithFields(fields).WithField("error", err.Error()).Warn("Failed to clean up processed buffers")
		return
	}
	if processed <= 0 {
		return
	}

	buffers, err := r.binding.SourceUnqueueBuffers(entry.handle, int(processed))
	if err != nil {
		logrus.WithFields(fields).WithField("error", err.Error()).Warn("Failed to clean up processed buffers")
		return
	}
	for _, b := range buffers {
		entry.queued = removeBuffer(entry.queued, b)
		if b == entry.silence {
			entry.silence = 0
			if entry.state == StreamPriming {
				entry.state = StreamPlaying
			}
		}
	}
	r.deleteBuffers("reclaim processed", buffers...)
}

// playAudio queues or binds data on the source of info. The source's
// context must be current.
func (r *Registry) playAudio(info SourceInfo, data AudioData) (err error) {
	buffer, err := r.bufferAudioData(data)
	if err != nil {
		return err
	}
	var silence Buffer
	defer func() {
		if err != nil {
			r.deleteBuffers("play audio", buffer, silence)
		}
	}()

	entry, err := r.querySourceEntry(info)
	if err != nil {
		return err
	}
	playing, err := r.isPlaying(entry)
	if err != nil {
		return err
	}
	if !playing && entry.state != StreamIdle {
		logrus.WithFields(logrus.Fields{
			"function":  "playAudio",
			"source_id": info.ID,
			"state":     entry.state.String(),
		}).Debug("Source drained")
		entry.state = StreamIdle
	}

	if info.Streaming {
		r.reclaimProcessed(entry)
		if !playing {
			silence, err = r.bufferAudioData(Silence(info.Output.SampleRate, SilenceLeadIn))
			if err != nil {
				return err
			}
			if err = r.binding.SourceQueueBuffers(entry.handle, []Buffer{silence}); err != nil {
				return err
			}
			entry.queued = append(entry.queued, silence)
			entry.silence = silence
			silence = 0
		}
		if err = r.binding.SourceQueueBuffers(entry.handle, []Buffer{buffer}); err != nil {
			return err
		}
		entry.queued = append(entry.queued, buffer)
		buffer = 0
	} else {
		if entry.bound != 0 {
			return newFailure("bind buffer", bufferAssigned)
		}
		if err = r.binding.Sourcei(entry.handle, alBuffer, int32(buffer)); err != nil {
			return err
		}
		entry.bound = buffer
		buffer = 0
	}

	if !playing {
		if err = r.binding.SourcePlay(entry.handle); err != nil {
			return err
		}
		if entry.silence != 0 {
			entry.state = StreamPriming
		} else {
			entry.state = StreamPlaying
		}
	}
	return nil
}

// stopAudio stops the source of info. The source's context must be
// current.
func (r *Registry) stopAudio(info SourceInfo) error {
	entry, err := r.querySourceEntry(info)
	if err != nil {
		return err
	}
	if err := r.binding.SourceStop(entry.handle); err != nil {
		return err
	}
	entry.state = StreamIdle
	return nil
}

func removeBuffer(buffers []Buffer, b Buffer) []Buffer {
	for i, q := range buffers {
		if q == b {
			return append(buffers[:i], buffers[i+1:]...)
		}
	}
	return buffers
}
