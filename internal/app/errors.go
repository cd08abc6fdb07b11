package service

import "errors"

// Sentinel kinds for controller errors.
var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNoSelection = errors.New("no partner selected")
)
