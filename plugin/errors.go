package plugin

import "errors"

// Sentinel errors for plugin package operations.
// These errors enable reliable error classification using errors.Is().

// Lifecycle errors.
var (
	// ErrNotStarted indicates an operation that needs Start first.
	ErrNotStarted = errors.New("plugin not started")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("plugin already started")
)

// Test sound errors.
var (
	// ErrTestSoundRunning indicates a test sound run is in progress.
	ErrTestSoundRunning = errors.New("test sound already running")
)
