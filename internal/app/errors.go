package app

import "errors"

// Sentinel kinds for service errors. The HTTP layer maps these to status
// codes.
var (
	ErrValidation   = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrLocked       = errors.New("scoreboard is locked")
	ErrNoPending    = errors.New("no such pending operation")
	ErrBadSignature = errors.New("invalid webhook signature")
)
