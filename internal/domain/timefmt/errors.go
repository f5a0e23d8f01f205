package timefmt

import "errors"

// Sentinel kinds for time format errors.
var (
	ErrUnknownFormat = errors.New("unknown time format")
	ErrMalformed     = errors.New("malformed time value")
	ErrRange         = errors.New("time value out of range")
)
