package detector

import (
	"errors"
	"fmt"
)

// ErrInference marks a failed detector call. Every error returned from
// Detect matches it with errors.Is.
var ErrInference = errors.New("detector: inference failed")

// InferenceError wraps a backend failure for one frame.
type InferenceError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v (%s)", ErrInference, e.Backend)
	}
	return fmt.Sprintf("%v (%s): %v", ErrInference, e.Backend, e.Err)
}

// Unwrap reports both ErrInference and the backend cause.
func (e *InferenceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInference}
	}
	return []error{ErrInference, e.Err}
}
