package session

import "errors"

// ErrUnavailable wraps failures of the backing store.
var ErrUnavailable = errors.New("session store unavailable")
