package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("resolver queue full")
	ErrClosed = errors.New("resolver queue closed")
)
