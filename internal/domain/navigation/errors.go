package navigation

import "errors"

// Sentinel kinds for navigation errors.
var (
	ErrInvalidTransition = errors.New("invalid navigation transition")
	ErrEmptyPartnerID    = errors.New("empty partner id")
)
