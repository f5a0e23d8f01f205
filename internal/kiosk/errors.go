package kiosk

import "errors"

// Sentinel kinds for kiosk errors.
var (
	ErrShutdownTimeout = errors.New("kiosk engine shutdown timed out")
	ErrBadPin          = errors.New("invalid kiosk pin")
)
