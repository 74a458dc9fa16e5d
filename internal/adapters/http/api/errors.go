package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrPayloadTooLarge = errors.New("request body too large")
)
