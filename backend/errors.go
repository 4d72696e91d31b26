package backend

import "errors"

// Sentinel errors for backend package operations.
// These errors enable reliable error classification using errors.Is().

// Test sound errors.
var (
	// ErrTestSoundPlaying indicates a test sound is already playing.
	ErrTestSoundPlaying = errors.New("test sound already playing")

	// ErrBackendDisabled indicates the backend must be enabled first.
	ErrBackendDisabled = errors.New("audio backend disabled")
)

// Sound file errors.
var (
	// ErrInvalidWav indicates the file is not a readable PCM WAV file.
	ErrInvalidWav = errors.New("invalid WAV file")

	// ErrEmptyWav indicates the WAV file holds no samples.
	ErrEmptyWav = errors.New("WAV file has no samples")
)

// File artifact errors.
var (
	// ErrNoConfigPath indicates no alsoft.ini path was configured.
	ErrNoConfigPath = errors.New("no OpenAL configuration path")
)
