package repository

import "errors"

// Sentinel kinds for similarity data errors.
var (
	ErrDataUnavailable = errors.New("similarity data unavailable")
	ErrUnknownUser     = errors.New("unknown user")
	ErrNotFound        = errors.New("not found")
	ErrMalformed       = errors.New("malformed dataset")
)
