package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedOutput indicates the service answered but the answer could
	// not be turned into a valid shortcode.
	ErrMalformedOutput = errors.New("malformed service output")

	// ErrEmptyResponse indicates the service returned no choices.
	ErrEmptyResponse = errors.New("empty service response")
)

// OutputError carries the raw text of an answer that could not be used.
// It matches both ErrMalformedOutput and the underlying cause.
type OutputError struct {
	Raw string
	Err error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedOutput, e.Err)
}

func (e *OutputError) Unwrap() []error {
	return []error{ErrMalformedOutput, e.Err}
}
