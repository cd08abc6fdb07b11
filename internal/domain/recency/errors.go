package recency

import "errors"

// Sentinel kinds for recency errors.
var (
	ErrEmptyID = errors.New("empty partner id")
	ErrPersist = errors.New("persist recency list failed")
	ErrCorrupt = errors.New("persisted recency list is corrupt")
)
