package gamedata

import "errors"

// Sentinel errors for gamedata package operations.
// These errors enable reliable error classification using errors.Is().

// Record errors.
var (
	// ErrShortRecord indicates the record ends before its declared content.
	ErrShortRecord = errors.New("game data record truncated")

	// ErrTooManyClients indicates more clients than the one byte count holds.
	ErrTooManyClients = errors.New("too many clients in game data record")
)

// Segment errors.
var (
	// ErrSegmentOpen indicates the shared memory segment could not be mapped.
	ErrSegmentOpen = errors.New("failed to open shared memory segment")

	// ErrPollerRunning indicates Start was called twice.
	ErrPollerRunning = errors.New("poller already running")
)
