package openal

import (
	"errors"
	"fmt"
)

// Sentinel errors for openal package operations.
// These errors enable reliable error classification using errors.Is().

// Library errors.
var (
	// ErrLibLoad indicates the OpenAL library or one of its symbols could
	// not be resolved.
	ErrLibLoad = errors.New("failed to load OpenAL library")

	// ErrLibNotLoaded indicates a native call was attempted before Load.
	ErrLibNotLoaded = errors.New("OpenAL library not loaded")
)

// Native call errors.
var (
	// ErrNative is matched by every *Failure.
	ErrNative = errors.New("OpenAL native call failed")

	// ErrInvalidDescriptor indicates an output, source or listener
	// descriptor without a valid output.
	ErrInvalidDescriptor = errors.New("invalid OpenAL descriptor")
)

// Failure is a native OpenAL call that reported an error, or a request the
// native layer cannot express (such as an unsupported sample format).
type Failure struct {
	// Op is the native function or the logical step that failed.
	Op string
	// Code is the AL or ALC error code, 0 when not reported by OpenAL.
	Code int32
	// Description is OpenAL's description of Code, or a message.
	Description string
}

func (f *Failure) Error() string {
	if f.Code != 0 {
		return fmt.Sprintf("openal: %s failed: error %#x, %s", f.Op, f.Code, f.Description)
	}
	return fmt.Sprintf("openal: %s failed: %s", f.Op, f.Description)
}

// Unwrap makes errors.Is(err, ErrNative) true for every Failure.
func (f *Failure) Unwrap() error {
	return ErrNative
}

func newFailure(op, description string) *Failure {
	return &Failure{Op: op, Description: description}
}
