package analysis

import "errors"

// Failure taxonomy for the two analysis entry points. Welcome-message
// fetches never surface these; they fall back to DefaultWelcome.
var (
	// ErrBackendUnavailable covers transport, auth, and non-2xx
	// failures, including a missing API credential at call time.
	ErrBackendUnavailable = errors.New("analysis backend unavailable")

	// ErrBackendEmpty means the call succeeded but carried no text.
	ErrBackendEmpty = errors.New("analysis backend returned no content")

	// ErrMalformedResult means text came back but could not be decoded
	// into the analysis schema.
	ErrMalformedResult = errors.New("analysis result has unexpected shape")
)
