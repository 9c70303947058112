package fetcher

import (
	"errors"
	"fmt"
)

// Outcomes at the external service boundaries are tagged so the
// pipeline can tell terminal results from retryable ones without
// inspecting error strings.
var (
	// ErrNoTranscript means the video has no usable transcript
	// track. Terminal, retrying does not help.
	ErrNoTranscript = errors.New("video has no transcript")

	// ErrBadCredential means the configured API credential is
	// missing or was rejected. The caller should prompt for
	// reconfiguration instead of retrying.
	ErrBadCredential = errors.New("api credential missing or rejected")
)

// RejectedError is a terminal refusal by the service, for instance on
// input length or policy grounds.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected by service: %s", e.Reason)
}

// TransientError is a network or service failure that may succeed on
// retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %s", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var tErr *TransientError
	return errors.As(err, &tErr) && !errors.Is(err, ErrBadCredential)
}
