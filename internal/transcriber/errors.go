package transcriber

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model answers with no usable text.
// It is final: the request is not retried.
var ErrEmptyResponse = errors.New("no transcription returned from the model")

// FailedError reports that every attempt failed. Err is the error of the
// last attempt.
type FailedError struct {
	Attempts int
	Err      error
}

func (e *FailedError) Error() string {
	if e == nil || e.Err == nil {
		return "transcription failed"
	}
	return fmt.Sprintf("transcription failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *FailedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsFailed reports whether err is a retry-exhaustion failure.
func IsFailed(err error) bool {
	var failed *FailedError
	return errors.As(err, &failed)
}
