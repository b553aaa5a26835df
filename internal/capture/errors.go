package capture

import (
	"errors"
	"fmt"
)

// Setup failure kinds. A *SetupError always unwraps to exactly one of them.
var (
	// ErrDeviceUnavailable is returned when the capture device cannot be opened.
	ErrDeviceUnavailable = errors.New("capture: device unavailable")

	// ErrInputAttach is returned when the device opened but delivers no frames.
	ErrInputAttach = errors.New("capture: cannot attach input")

	// ErrOutputAttach is returned when no frame consumer can be attached.
	ErrOutputAttach = errors.New("capture: cannot attach output")
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// SetupError is a terminal session setup failure. No frames are delivered
// by a session whose setup failed.
type SetupError struct {
	// Kind is one of ErrDeviceUnavailable, ErrInputAttach or ErrOutputAttach.
	Kind error

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *SetupError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
