package service

import "errors"

// Sentinel error kinds for the service layer.
var (
	// ErrCounterUnavailable means no to-do counter was configured.
	ErrCounterUnavailable = errors.New("todo counter unavailable")
)
