package counter

import "errors"

var (
	// ErrNotNumeric is returned when a counter key holds something other than an
	// integer.
	ErrNotNumeric = errors.New("counter value is not numeric")
	// ErrUnavailable wraps transport failures talking to the store.
	ErrUnavailable = errors.New("counter store unavailable")
)
