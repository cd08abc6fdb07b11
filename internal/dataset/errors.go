package dataset

import "errors"

// Error kinds.
var (
	ErrInvalidConfig = errors.New("invalid dataset config")
	ErrInvalid       = errors.New("dataset failed verification")
	ErrProbe         = errors.New("probe failed")
)
