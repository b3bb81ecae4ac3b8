package tts

import (
	"errors"
	"fmt"
)

// ErrNoInput is returned when a request carries no usable text after trimming.
var ErrNoInput = errors.New("no usable input text")

// ErrUnsupportedFormat is returned when a caller asks the driver for a format
// outside the set the remote service accepts.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// UpstreamError wraps a failed call to the remote speech service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
