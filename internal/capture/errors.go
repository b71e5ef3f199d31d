package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned by Start when detection found no usable backend.
	ErrUnavailable = errors.New("no audio recording method available")

	// ErrAlreadyRecording is returned by Start while a session is active.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrNotRecording is returned by Stop when no session is active.
	ErrNotRecording = errors.New("not recording")

	// ErrNoOutputProduced means the external recorder exited without leaving a file.
	ErrNoOutputProduced = errors.New("no audio file was created")
)

// DeviceError reports a failure to open the audio device or spawn the recorder.
type DeviceError struct {
	Backend Backend
	Err     error
}

func (e *DeviceError) Error() string {
	if e == nil || e.Err == nil {
		return "audio device error"
	}
	return fmt.Sprintf("%s recording failed: %v", e.Backend, e.Err)
}

func (e *DeviceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EncodeError reports a failure to serialize captured audio to disk.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	if e == nil || e.Err == nil {
		return "failed to save audio file"
	}
	return fmt.Sprintf("failed to save audio file %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
