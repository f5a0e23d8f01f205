package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("missing or invalid credentials")
	ErrNoSession    = errors.New("unknown kiosk session")
)
